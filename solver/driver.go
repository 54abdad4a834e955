// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/jolars/sortedl1/inp"
	"github.com/jolars/sortedl1/loss"
	"github.com/jolars/sortedl1/penalty"
	"github.com/jolars/sortedl1/xmat"
)

// Slope fits SLOPE models for a fixed set of options
type Slope struct {
	Opts *inp.Options // fit options; immutable during a fit
}

// state holds the per-response solver workspace. All vectors are owned by
// the solver for the duration of one fit and mutated in place; warm starts
// carry the state from one α to the next.
type state struct {
	beta     []float64 // coefficients on the centered/scaled frame
	beta0    float64   // intercept on the centered/scaled frame
	residual []float64 // working response minus linear predictor
	eta      []float64 // linear predictor
	w        []float64 // IRLS weights
	z        []float64 // IRLS working response
	genres   []float64 // generalized residual of the outer problem
	theta    []float64 // scaled dual point
	grad     []float64 // gradient workspace
	wr       []float64 // weighted residual workspace

	vtmp     []float64 // proposal point in PGD/FISTA
	betaOld  []float64 // line-search backup
	betaPrev []float64 // FISTA previous iterate
	bscaled  []float64 // β/scale workspace
	xbtmp    []float64 // X·β workspace
	xsAgg    []float64 // aggregated effective column in CD
	lamScaled []float64 // αλ/h workspace in CD
	signs    []float64 // member signs workspace in CD

	clusters     *Clusters
	learningRate float64
	fistaT       float64

	primals []float64 // per-pass primal history for this α
	gaps    []float64 // per-pass duality-gap history for this α
}

// newState allocates the workspace for n observations and p predictors
func newState(n, p int) (st *state) {
	st = new(state)
	st.beta = make([]float64, p)
	st.residual = make([]float64, n)
	st.eta = make([]float64, n)
	st.w = make([]float64, n)
	st.z = make([]float64, n)
	st.genres = make([]float64, n)
	st.theta = make([]float64, n)
	st.grad = make([]float64, p)
	st.wr = make([]float64, n)
	st.vtmp = make([]float64, p)
	st.betaOld = make([]float64, p)
	st.betaPrev = make([]float64, p)
	st.bscaled = make([]float64, p)
	st.xbtmp = make([]float64, n)
	st.xsAgg = make([]float64, n)
	st.lamScaled = make([]float64, p)
	st.signs = make([]float64, 0, p)
	st.clusters = NewClusters(st.beta)
	st.learningRate = 1
	st.fistaT = 1
	return
}

// NewSlope returns a new SLOPE model after validating the options
func NewSlope(opts *inp.Options) (o *Slope, err error) {
	err = opts.Validate()
	if err != nil {
		return
	}
	o = new(Slope)
	o.Opts = opts
	return
}

// Fit computes the SLOPE estimate at a single regularization strength α.
// An empty lam means "generate from the configured λ type".
func (o *Slope) Fit(x xmat.Matrix, y [][]float64, alpha float64, lam []float64) (res *Results, err error) {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || alpha < 0 {
		return nil, chk.Err(_driver_err01, alpha)
	}
	return o.Path(x, y, []float64{alpha}, lam)
}

// Path fits the full regularization path. Empty alphas means "generate a
// geometric grid from α_max down to α_max·alpha_min_ratio"; empty lam means
// "generate from the configured λ type".
func (o *Slope) Path(x xmat.Matrix, y [][]float64, alphas, lam []float64) (res *Results, err error) {

	n := x.Nrows()
	p := x.Ncols()
	m, err := checkResponse(y, n)
	if err != nil {
		return
	}
	for _, a := range alphas {
		if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			return nil, chk.Err(_driver_err01, a)
		}
	}

	lossModel, err := loss.New(o.Opts.Loss)
	if err != nil {
		return
	}
	kind := o.solverKind()

	xc, xs, err := xmat.CentersAndScales(x, o.Opts.Centering, o.Opts.Scaling, o.Opts.Centers, o.Opts.Scales)
	if err != nil {
		return
	}
	std := !xmat.Trivial(xc, xs)

	lam, err = o.lambdaWeights(p, lam)
	if err != nil {
		return
	}
	pen, err := penalty.NewSortedL1(lam)
	if err != nil {
		return
	}

	// per-response warm-start states
	ycols := make([][]float64, m)
	states := make([]*state, m)
	for r := 0; r < m; r++ {
		ycols[r] = make([]float64, n)
		for i := 0; i < n; i++ {
			ycols[r][i] = y[i][r]
		}
		st := newState(n, p)
		if o.Opts.Intercept {
			st.beta0 = lossModel.NullFit(ycols[r])
		}
		la.VecFill(st.eta, st.beta0)
		lossModel.UpdateWeightsAndWorkingResponse(st.w, st.z, st.eta, ycols[r])
		la.VecAdd2(st.residual, 1, st.z, -1, st.eta)
		states[r] = st
	}

	if len(alphas) == 0 {
		alphas = o.alphaGrid(x, states[0], pen, xc, xs, std, n, p)
	}

	res = new(Results)
	res.Lambda = lam

	// null deviance for the dev-ratio early stopping (first response)
	nullDev := lossModel.Deviance(states[0].eta, ycols[0])
	devPrev := 0.0

	for step, alpha := range alphas {

		pen.SetAlpha(alpha)
		if o.Opts.PrintLevel > 0 {
			io.Pf("path step %d: alpha = %g\n", step, alpha)
		}

		passes := 0
		numIssue := false
		for r := 0; r < m; r++ {
			np, bad := o.fitAlpha(states[r], x, pen, lossModel, ycols[r], xc, xs, std, kind, r == 0)
			passes += np
			if bad {
				numIssue = true
				break
			}
		}
		if numIssue {
			if o.Opts.PrintLevel > 0 {
				io.Pfred("numerical issue at alpha = %g; truncating path\n", alpha)
			}
			res.Truncated = true
			break
		}

		// store this step in the original data frame
		res.Alphas = append(res.Alphas, alpha)
		res.Passes = append(res.Passes, passes)
		res.ItTotal += passes
		b0s := make([]float64, m)
		bs := la.MatAlloc(p, m)
		for r := 0; r < m; r++ {
			b0, b := xmat.RescaleCoefficients(states[r].beta0, states[r].beta, xc, xs, o.Opts.Intercept)
			b0s[r] = b0
			for j := 0; j < p; j++ {
				bs[j][r] = b[j]
			}
		}
		res.Beta0s = append(res.Beta0s, b0s)
		res.Betas = append(res.Betas, bs)
		res.Primals = append(res.Primals, states[0].primals)
		res.Gaps = append(res.Gaps, states[0].gaps)
		states[0].primals = nil
		states[0].gaps = nil

		// deviance ratio and early stopping (first response)
		st := states[0]
		for i := 0; i < n; i++ {
			st.eta[i] = st.z[i] - st.residual[i]
		}
		dev := lossModel.Deviance(st.eta, ycols[0])
		devRatio := 0.0
		if nullDev > 0 {
			devRatio = 1.0 - dev/nullDev
		}
		res.DevRatios = append(res.DevRatios, devRatio)
		nnz := st.clusters.NumNonzero()
		res.NumNonzero = append(res.NumNonzero, nnz)

		if len(alphas) > 1 {
			if step > 0 && devRatio-devPrev < o.Opts.TolDevChange*devRatio {
				break
			}
			if devRatio > o.Opts.TolDevRatio {
				break
			}
			if o.Opts.MaxClusters != -1 && nnz > o.Opts.MaxClusters {
				break
			}
		}
		devPrev = devRatio
	}

	// final clusters, rebuilt to reflect the stored coefficients exactly
	res.Clusters = make([]*Clusters, m)
	for r := 0; r < m; r++ {
		states[r].clusters.Rebuild(states[r].beta)
		res.Clusters[r] = states[r].clusters
	}
	return
}

// AlphaSequence returns the automatic α grid for the given data without
// fitting; cross-validation uses it to align score vectors across folds
func (o *Slope) AlphaSequence(x xmat.Matrix, y [][]float64, lam []float64) (alphas []float64, err error) {

	n := x.Nrows()
	p := x.Ncols()
	_, err = checkResponse(y, n)
	if err != nil {
		return
	}
	lossModel, err := loss.New(o.Opts.Loss)
	if err != nil {
		return
	}
	xc, xs, err := xmat.CentersAndScales(x, o.Opts.Centering, o.Opts.Scaling, o.Opts.Centers, o.Opts.Scales)
	if err != nil {
		return
	}
	std := !xmat.Trivial(xc, xs)
	lam, err = o.lambdaWeights(p, lam)
	if err != nil {
		return
	}
	pen, err := penalty.NewSortedL1(lam)
	if err != nil {
		return
	}

	ycol := make([]float64, n)
	for i := 0; i < n; i++ {
		ycol[i] = y[i][0]
	}
	st := newState(n, p)
	if o.Opts.Intercept {
		st.beta0 = lossModel.NullFit(ycol)
	}
	la.VecFill(st.eta, st.beta0)
	lossModel.UpdateWeightsAndWorkingResponse(st.w, st.z, st.eta, ycol)
	la.VecAdd2(st.residual, 1, st.z, -1, st.eta)

	return o.alphaGrid(x, st, pen, xc, xs, std, n, p), nil
}

// alphaGrid derives α_max from the gradient at β = 0 and produces the
// geometric grid down to α_max·alpha_min_ratio
func (o *Slope) alphaGrid(x xmat.Matrix, st *state, pen *penalty.SortedL1, xc, xs []float64, std bool, n, p int) (alphas []float64) {

	ratio := o.Opts.AlphaMinRatio
	if ratio < 0 {
		if n > p {
			ratio = 1e-4
		} else {
			ratio = 1e-2
		}
	}

	for i := 0; i < n; i++ {
		st.wr[i] = st.w[i] * st.residual[i]
	}
	computeGradient(st.grad, x, st.wr, xc, xs, std)
	alphaMax := pen.DualNorm(st.grad)

	k := o.Opts.PathLength
	alphas = make([]float64, k)
	if k == 1 {
		alphas[0] = alphaMax
		return
	}
	div := float64(k - 1)
	for i := 0; i < k; i++ {
		alphas[i] = alphaMax * math.Pow(ratio, float64(i)/div)
	}
	return
}

// fitAlpha runs the IRLS outer loop for one α value on one response column.
// It returns the pass count and whether a numerical issue occurred. record
// tells whether primal/gap histories should be kept (first response only).
func (o *Slope) fitAlpha(st *state, x xmat.Matrix, pen *penalty.SortedL1, lossModel loss.Model, ycol []float64, xc, xs []float64, std bool, kind string, record bool) (passes int, numIssue bool) {

	n := x.Nrows()
	tol := o.Opts.Tol

	for itOuter := 0; itOuter < o.Opts.MaxItOuter; itOuter++ {
		passes++

		// the residual is kept up to date through the inner loop, but η is
		// not; recompute it here
		for i := 0; i < n; i++ {
			st.eta[i] = st.z[i] - st.residual[i]
		}

		primal := lossModel.Value(st.eta, ycol) + pen.Eval(st.beta)
		lossModel.Residual(st.genres, st.eta, ycol)
		computeGradient(st.grad, x, st.genres, xc, xs, std)
		scale := math.Max(1.0, pen.DualNorm(st.grad))
		for i := 0; i < n; i++ {
			st.theta[i] = st.genres[i] / scale
		}
		dual := lossModel.Dual(st.theta, ycol)
		gap := primal - dual

		if record {
			st.primals = append(st.primals, primal)
			st.gaps = append(st.gaps, gap)
		}
		if math.IsNaN(primal) || math.IsInf(primal, 0) {
			return passes, true
		}
		if o.Opts.PrintLevel > 1 {
			io.Pfyel("  pass %d: primal = %g, gap = %g\n", itOuter, primal, gap)
		}
		if math.Max(gap, 0) <= tol*math.Abs(primal) {
			break
		}

		lossModel.UpdateWeightsAndWorkingResponse(st.w, st.z, st.eta, ycol)
		for i := 0; i < n; i++ {
			st.residual[i] = st.z[i] - st.eta[i]
		}

		if kind == "fista" {
			o.fistaInner(st, x, pen, xc, xs, std)
		} else {
			o.hybridInner(st, x, pen, xc, xs, std)
		}

		for _, b := range st.beta {
			if math.IsNaN(b) || math.IsInf(b, 0) {
				return passes, true
			}
		}
	}
	return
}

// hybridInner alternates coordinate-descent sweeps with a proximal-gradient
// step (and inner duality-gap check) every PgdFreq iterations
func (o *Slope) hybridInner(st *state, x xmat.Matrix, pen *penalty.SortedL1, xc, xs []float64, std bool) {

	n := x.Nrows()
	tol := o.Opts.Tol

	for it := 0; it < o.Opts.MaxIt; it++ {
		if it%o.Opts.PgdFreq == 0 {

			g := subprobValue(st, n)
			primal := g + pen.Eval(st.beta)

			for i := 0; i < n; i++ {
				st.wr[i] = st.w[i] * st.residual[i]
			}
			computeGradient(st.grad, x, st.wr, xc, xs, std)
			scale := math.Max(1.0, pen.DualNorm(st.grad))
			for i := 0; i < n; i++ {
				st.theta[i] = st.residual[i] / scale
			}
			dual := quadraticDual(st.theta, st.z, st.w, n)
			gap := primal - dual

			if o.Opts.PrintLevel > 2 {
				io.Pforan("    it %d: inner primal = %g, inner gap = %g\n", it, primal, gap)
			}
			if math.Max(gap, 0) <= tol*math.Abs(primal) {
				break
			}

			proximalGradientStep(st, x, pen, xc, xs, std, o.Opts.Intercept, g, o.Opts.LearningRateDecr, o.Opts.PrintLevel)
			st.clusters.Rebuild(st.beta)

		} else {
			coordinateDescent(st, x, pen, xc, xs, std, o.Opts.Intercept, o.Opts.UpdateClusters, o.Opts.PrintLevel)
		}
	}
}

// fistaInner solves the quadratic subproblem with accelerated proximal
// gradient steps only
func (o *Slope) fistaInner(st *state, x xmat.Matrix, pen *penalty.SortedL1, xc, xs []float64, std bool) {

	n := x.Nrows()
	tol := o.Opts.Tol
	st.fistaT = 1
	copy(st.betaPrev, st.beta)

	for it := 0; it < o.Opts.MaxIt; it++ {

		g := subprobValue(st, n)
		primal := g + pen.Eval(st.beta)
		for i := 0; i < n; i++ {
			st.wr[i] = st.w[i] * st.residual[i]
		}
		computeGradient(st.grad, x, st.wr, xc, xs, std)
		scale := math.Max(1.0, pen.DualNorm(st.grad))
		for i := 0; i < n; i++ {
			st.theta[i] = st.residual[i] / scale
		}
		dual := quadraticDual(st.theta, st.z, st.w, n)
		gap := primal - dual
		if math.Max(gap, 0) <= tol*math.Abs(primal) {
			break
		}

		fistaStep(st, x, pen, xc, xs, std, o.Opts.Intercept, o.Opts.LearningRateDecr, o.Opts.PrintLevel)
	}
	st.clusters.Rebuild(st.beta)
}

// quadraticDual computes the dual Σ wᵢ·(zᵢ² − (zᵢ − θᵢ)²)/(2n) of the inner
// weighted quadratic subproblem; with unit weights this is the Gaussian dual
func quadraticDual(theta, z, w []float64, n int) (res float64) {
	for i := 0; i < n; i++ {
		d := z[i] - theta[i]
		res += w[i] * (z[i]*z[i] - d*d)
	}
	return res / (2.0 * float64(n))
}

// solverKind resolves "auto" to the concrete inner strategy
func (o *Slope) solverKind() string {
	if o.Opts.Solver == "auto" {
		if o.Opts.Loss == "poisson" {
			return "fista"
		}
		return "hybrid"
	}
	return o.Opts.Solver
}

// lambdaWeights returns the validated λ sequence, generating it when absent
func (o *Slope) lambdaWeights(p int, lam []float64) ([]float64, error) {
	if len(lam) == 0 {
		if o.Opts.LambdaType == "user" {
			return nil, chk.Err(_driver_err02)
		}
		return penalty.LambdaSequence(o.Opts.LambdaType, p, o.Opts.Q, o.Opts.Gamma, nil)
	}
	if len(lam) != p {
		return nil, chk.Err(_driver_err03, len(lam), p)
	}
	return penalty.LambdaSequence("user", p, o.Opts.Q, o.Opts.Gamma, lam)
}

// checkResponse validates the response matrix shape and returns the number
// of response columns
func checkResponse(y [][]float64, n int) (m int, err error) {
	if len(y) != n {
		return 0, chk.Err(_driver_err04, len(y), n)
	}
	m = len(y[0])
	if m < 1 {
		return 0, chk.Err(_driver_err05)
	}
	for i := 1; i < n; i++ {
		if len(y[i]) != m {
			return 0, chk.Err(_driver_err06, i, len(y[i]), m)
		}
	}
	return
}

// error messages
var (
	_driver_err01 = "alpha = %v must be non-negative and finite\n"
	_driver_err02 = "lambda_type is \"user\" but no lambda sequence was given\n"
	_driver_err03 = "lambda has length %d; expected %d\n"
	_driver_err04 = "y has %d rows but x has %d\n"
	_driver_err05 = "y must have at least one response column\n"
	_driver_err06 = "y row %d has %d entries; expected %d\n"
)
