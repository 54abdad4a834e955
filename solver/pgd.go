// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/jolars/sortedl1/penalty"
	"github.com/jolars/sortedl1/xmat"
)

// computeResidual recomputes residual = z − X̃·β for the current β, where X̃
// is the centered/scaled design matrix. With an intercept, β₀ is re-fitted
// from the weighted residual mean and subtracted.
func computeResidual(st *state, x xmat.Matrix, xc, xs []float64, std, intercept bool) {
	n := x.Nrows()
	if std {
		for j := range st.beta {
			st.bscaled[j] = st.beta[j] / xs[j]
		}
		x.MulVec(st.xbtmp, st.bscaled)
		shift := 0.0
		for j := range st.beta {
			shift += xc[j] * st.bscaled[j]
		}
		for i := 0; i < n; i++ {
			st.residual[i] = st.z[i] - st.xbtmp[i] + shift
		}
	} else {
		x.MulVec(st.xbtmp, st.beta)
		for i := 0; i < n; i++ {
			st.residual[i] = st.z[i] - st.xbtmp[i]
		}
	}
	if intercept {
		sumw, wr := 0.0, 0.0
		for i := 0; i < n; i++ {
			sumw += st.w[i]
			wr += st.w[i] * st.residual[i]
		}
		st.beta0 = wr / sumw
		for i := 0; i < n; i++ {
			st.residual[i] -= st.beta0
		}
	}
}

// computeGradient computes grad = −X̃ᵀ·res / n for the centered/scaled design
// matrix, where res is a (possibly weighted) residual vector
func computeGradient(grad []float64, x xmat.Matrix, res []float64, xc, xs []float64, std bool) {
	n := x.Nrows()
	p := x.Ncols()
	fn := float64(n)
	if std {
		rsum := 0.0
		for i := 0; i < n; i++ {
			rsum += res[i]
		}
		for j := 0; j < p; j++ {
			grad[j] = -(x.ColDot(j, res) - xc[j]*rsum) / (xs[j] * fn)
		}
	} else {
		la.VecFill(grad, 0)
		x.TrMulVecAdd(grad, -1.0/fn, res)
	}
}

// subprobValue computes the quadratic surrogate value g = Σ w·r² / (2n)
func subprobValue(st *state, n int) (res float64) {
	for i := 0; i < n; i++ {
		res += st.w[i] * st.residual[i] * st.residual[i]
	}
	return res / (2.0 * float64(n))
}

// proximalGradientStep performs one PGD update of the full β vector with
// backtracking line search on the quadratic surrogate. st.grad must hold the
// surrogate gradient at the current β and gOld the surrogate value. The
// learning rate is carried in the state and only ever decreased.
func proximalGradientStep(st *state, x xmat.Matrix, pen *penalty.SortedL1, xc, xs []float64, std, intercept bool, gOld, lrDecr float64, printLevel int) {

	n := x.Nrows()
	p := x.Ncols()
	copy(st.betaOld, st.beta)

	if printLevel > 2 {
		io.Pfgrey("      line search: learning rate = %g\n", st.learningRate)
	}

	for {
		for j := 0; j < p; j++ {
			st.vtmp[j] = st.betaOld[j] - st.learningRate*st.grad[j]
		}
		pen.Prox(st.beta, st.vtmp, st.learningRate)

		computeResidual(st, x, xc, xs, std, intercept)

		g := subprobValue(st, n)
		q := gOld
		dsq := 0.0
		for j := 0; j < p; j++ {
			d := st.beta[j] - st.betaOld[j]
			q += d * st.grad[j]
			dsq += d * d
		}
		q += dsq / (2.0 * st.learningRate)

		if q >= g*(1.0-1e-12) || st.learningRate < 1e-14 {
			break
		}
		st.learningRate *= lrDecr
	}
}

// fistaStep performs one accelerated proximal-gradient update: the gradient
// is taken at the extrapolated point v = β + mom·(β − β_prev), and the
// momentum sequence restarts whenever the surrogate value increases
func fistaStep(st *state, x xmat.Matrix, pen *penalty.SortedL1, xc, xs []float64, std, intercept bool, lrDecr float64, printLevel int) {

	n := x.Nrows()
	p := x.Ncols()

	tNext := 0.5 * (1.0 + math.Sqrt(1.0+4.0*st.fistaT*st.fistaT))
	mom := (st.fistaT - 1.0) / tNext

	// extrapolated point and its residual/gradient
	copy(st.vtmp, st.beta)
	for j := 0; j < p; j++ {
		st.vtmp[j] += mom * (st.beta[j] - st.betaPrev[j])
	}
	copy(st.betaPrev, st.beta)
	copy(st.beta, st.vtmp)
	computeResidual(st, x, xc, xs, std, intercept)
	gv := subprobValue(st, n)
	for i := 0; i < n; i++ {
		st.wr[i] = st.w[i] * st.residual[i]
	}
	computeGradient(st.grad, x, st.wr, xc, xs, std)

	proximalGradientStep(st, x, pen, xc, xs, std, intercept, gv, lrDecr, printLevel)

	// restart on increase
	gNew := subprobValue(st, n)
	if gNew > gv {
		st.fistaT = 1
	} else {
		st.fistaT = tNext
	}
}
