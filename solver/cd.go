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

// coordinateDescent performs one sweep over the clusters in current order,
// applying the SlopeThreshold update per cluster and keeping the residual
// (and optionally the intercept) up to date. The zero cluster is skipped: it
// can be very large but rarely changes, and it is re-entered only through
// SlopeThreshold returning the zero rank.
func coordinateDescent(st *state, x xmat.Matrix, pen *penalty.SortedL1, xc, xs []float64, std, intercept, updateClusters bool, printLevel int) {

	n := x.Nrows()
	fn := float64(n)
	cl := st.clusters
	lam := pen.Lambda()

	sumw := 0.0
	for i := 0; i < n; i++ {
		sumw += st.w[i]
	}

	for j := 0; j < cl.N(); j++ {

		cOld := cl.Coeff(j)
		if cOld == 0 {
			continue
		}

		mem := cl.Members(j)
		csize := len(mem)
		st.signs = st.signs[:0]

		var hess, grad float64
		if csize == 1 {

			// singleton fast path with just-in-time centering/scaling
			k := mem[0]
			sk := signOf(st.beta[k])
			st.signs = append(st.signs, sk)
			if std {
				wr := 0.0
				for i := 0; i < n; i++ {
					wr += st.w[i] * st.residual[i]
				}
				grad = -sk * (x.ColDot2(k, st.w, st.residual) - wr*xc[k]) / (fn * xs[k])
				hess = (x.ColSqDot(k, st.w) - 2.0*xc[k]*x.ColDot(k, st.w) + xc[k]*xc[k]*sumw) / (xs[k] * xs[k] * fn)
			} else {
				grad = -sk * x.ColDot2(k, st.w, st.residual) / fn
				hess = x.ColSqDot(k, st.w) / fn
			}

		} else {

			// aggregated clusters need a dense effective column: there is no
			// efficient just-in-time standardization of summed sparse columns
			la.VecFill(st.xsAgg, 0)
			for _, k := range mem {
				sk := signOf(st.beta[k])
				st.signs = append(st.signs, sk)
				if std {
					x.ColAxpy(k, sk/xs[k], st.xsAgg)
					shift := xc[k] * sk / xs[k]
					for i := 0; i < n; i++ {
						st.xsAgg[i] -= shift
					}
				} else {
					x.ColAxpy(k, sk, st.xsAgg)
				}
			}
			for i := 0; i < n; i++ {
				hess += st.xsAgg[i] * st.xsAgg[i] * st.w[i]
				grad -= st.xsAgg[i] * st.w[i] * st.residual[i]
			}
			hess /= fn
			grad /= fn
		}

		if hess <= 0 {
			// degenerate column (all zeros after weighting); nothing to update
			continue
		}

		a := pen.Alpha() / hess
		for i := range lam {
			st.lamScaled[i] = lam[i] * a
		}
		cTilde, newPos := SlopeThreshold(cOld-grad/hess, j, st.lamScaled, cl)

		if printLevel > 2 {
			io.Pfgrey("      cluster %d: c = %g -> %g (rank %d)\n", j, cOld, cTilde, newPos)
		}

		for q, k := range mem {
			st.beta[k] = cTilde * st.signs[q]
		}

		cDiff := cOld - cTilde
		if cDiff != 0 {
			if csize == 1 {
				k := mem[0]
				sk := st.signs[0]
				if std {
					x.ColAxpy(k, sk*cDiff/xs[k], st.residual)
					shift := xc[k] * sk * cDiff / xs[k]
					for i := 0; i < n; i++ {
						st.residual[i] -= shift
					}
				} else {
					x.ColAxpy(k, sk*cDiff, st.residual)
				}
			} else {
				for i := 0; i < n; i++ {
					st.residual[i] += st.xsAgg[i] * cDiff
				}
			}
		}

		if updateClusters {
			cl.Update(j, newPos, math.Abs(cTilde))
		} else {
			cl.SetCoeff(j, math.Abs(cTilde))
		}

		if intercept {
			b0u := 0.0
			for i := 0; i < n; i++ {
				b0u += st.w[i] * st.residual[i]
			}
			b0u /= sumw
			for i := 0; i < n; i++ {
				st.residual[i] -= b0u
			}
			st.beta0 += b0u
		}
	}
}
