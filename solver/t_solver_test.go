// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/jolars/sortedl1/inp"
	"github.com/jolars/sortedl1/loss"
	"github.com/jolars/sortedl1/penalty"
	"github.com/jolars/sortedl1/xmat"
)

// rawOptions returns options without intercept or standardization
func rawOptions() (o *inp.Options) {
	o = inp.NewOptions()
	o.Intercept = false
	o.Centering = "none"
	o.Scaling = "none"
	o.Tol = 1e-10
	return
}

// identity returns the n × n identity scaled by s
func identity(n int, s float64) xmat.Matrix {
	a := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		a[i][i] = s
	}
	x, _ := xmat.NewDense(a)
	return x
}

// column wraps a vector as an n × 1 response matrix
func column(v []float64) (y [][]float64) {
	y = make([][]float64, len(v))
	for i := range v {
		y[i] = []float64{v[i]}
	}
	return
}

func Test_null01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("null01. all-zero design keeps the null model")

	x, _ := xmat.NewDense(la.MatAlloc(10, 5))
	y := column([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})

	mdl, err := NewSlope(inp.NewOptions())
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	res, err := mdl.Path(x, y, []float64{1, 0.1}, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	for k := 0; k < res.NumSteps(); k++ {
		chk.Scalar(tst, "beta0", 1e-12, res.Beta0s[k][0], 1)
		for j := 0; j < 5; j++ {
			chk.Scalar(tst, "beta", 1e-12, res.Betas[k][j][0], 0)
		}
	}
}

func Test_ols01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ols01. alpha = 0 recovers least squares")

	x := identity(5, 1)
	y := column([]float64{1, 2, 3, 4, 5})
	lam := []float64{5, 4, 3, 2, 1}

	mdl, err := NewSlope(rawOptions())
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	res, err := mdl.Fit(x, y, 0, lam)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	for j := 0; j < 5; j++ {
		chk.Scalar(tst, "beta", 1e-6, res.Betas[0][j][0], float64(j+1))
	}
}

func Test_softthresh01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("softthresh01. orthogonal design soft-thresholds")

	// with unit λ and α·n = 1, the estimate is soft-threshold(y, 1)
	x := identity(4, 1)
	y := column([]float64{3, 1, 0.5, 0.2})
	lam := []float64{1, 1, 1, 1}

	mdl, err := NewSlope(rawOptions())
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	res, err := mdl.Fit(x, y, 0.25, lam)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	got := []float64{res.Betas[0][0][0], res.Betas[0][1][0], res.Betas[0][2][0], res.Betas[0][3][0]}
	chk.Vector(tst, "beta", 1e-8, got, []float64{2, 0, 0, 0})
}

func Test_cluster01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cluster01. nearby coefficients cluster")

	// with x = 2·I the fit reduces to the prox of y/2; the three largest
	// magnitudes merge into one cluster of value 29/30
	x := identity(4, 2)
	y := column([]float64{4.2, 3.8, -4.0, 0.2})
	lam := []float64{1.5, 1.0, 0.6, 0.3}

	mdl, err := NewSlope(rawOptions())
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	res, err := mdl.Fit(x, y, 1, lam)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	d := 29.0 / 30.0
	got := []float64{res.Betas[0][0][0], res.Betas[0][1][0], res.Betas[0][2][0], res.Betas[0][3][0]}
	chk.Vector(tst, "beta", 1e-7, got, []float64{d, d, -d, 0})
	chk.Scalar(tst, "|b1|-|b2|", 1e-10, math.Abs(got[0])-math.Abs(got[1]), 0)

	cl := res.Clusters[0]
	chk.IntAssert(cl.N(), 2)
	chk.IntAssert(cl.Size(0), 3)
}

func Test_path01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("path01. automatic path activates monotonically")

	rng := rand.New(rand.NewSource(1234))
	n, p := 50, 20
	a := la.MatAlloc(n, p)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			a[i][j] = rng.NormFloat64()
		}
	}
	betaTrue := make([]float64, p)
	betaTrue[0], betaTrue[3], betaTrue[7] = 2, -1.5, 1
	y := make([][]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < p; j++ {
			s += a[i][j] * betaTrue[j]
		}
		y[i] = []float64{s + 0.1*rng.NormFloat64()}
	}
	x, _ := xmat.NewDense(a)

	opts := inp.NewOptions()
	opts.PathLength = 20
	opts.Tol = 1e-6
	mdl, err := NewSlope(opts)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	res, err := mdl.Path(x, y, nil, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// grid: starts at alpha_max, strictly decreasing
	for k := 1; k < res.NumSteps(); k++ {
		if !(res.Alphas[k] < res.Alphas[k-1]) {
			tst.Errorf("alpha grid not decreasing at %d\n", k)
			return
		}
	}

	// all zero at alpha_max; non-zero count grows down the path, modulo
	// re-clusterings from PGD steps
	nnz := make([]int, res.NumSteps())
	for k := 0; k < res.NumSteps(); k++ {
		for j := 0; j < p; j++ {
			if res.Betas[k][j][0] != 0 {
				nnz[k]++
			}
		}
	}
	chk.IntAssert(nnz[0], 0)
	for k := 1; k < len(nnz); k++ {
		if nnz[k] < nnz[k-1]-2 {
			tst.Errorf("non-zero count dropped at step %d: %v\n", k, nnz)
			return
		}
	}
	if nnz[len(nnz)-1] < 3 {
		tst.Errorf("path never activated the signal: %v\n", nnz)
	}
}

func Test_certificate01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("certificate01. duality gap certifies convergence")

	rng := rand.New(rand.NewSource(7))
	n, p := 30, 8
	a := la.MatAlloc(n, p)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			a[i][j] = rng.NormFloat64()
		}
	}
	y := make([][]float64, n)
	for i := 0; i < n; i++ {
		y[i] = []float64{a[i][0] - a[i][1] + 0.05*rng.NormFloat64()}
	}
	x, _ := xmat.NewDense(a)

	opts := inp.NewOptions()
	opts.PathLength = 10
	mdl, _ := NewSlope(opts)
	res, err := mdl.Path(x, y, nil, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	for k := 0; k < res.NumSteps(); k++ {
		ng := len(res.Gaps[k])
		gap := res.Gaps[k][ng-1]
		primal := res.Primals[k][ng-1]
		if math.Max(gap, 0) > opts.Tol*math.Abs(primal) && res.Passes[k] < opts.MaxItOuter {
			tst.Errorf("step %d returned without certificate: gap = %v\n", k, gap)
			return
		}
	}
}

func Test_logistic01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("logistic01. KKT conditions at the optimum")

	rng := rand.New(rand.NewSource(42))
	n, p := 40, 5
	a := la.MatAlloc(n, p)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			a[i][j] = rng.NormFloat64()
		}
	}
	y := make([][]float64, n)
	for i := 0; i < n; i++ {
		eta := 1.2*a[i][0] - 1.2*a[i][1]
		if eta+0.3*rng.NormFloat64() > 0 {
			y[i] = []float64{1}
		} else {
			y[i] = []float64{0}
		}
	}
	x, _ := xmat.NewDense(a)

	opts := rawOptions()
	opts.Loss = "logistic"
	opts.Tol = 1e-8
	mdl, _ := NewSlope(opts)

	lam, err := penalty.LambdaBH(p, 0.1)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	alpha := 0.02
	res, err := mdl.Fit(x, y, alpha, lam)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// gradient of the loss at the estimate
	lossModel, _ := loss.New("logistic")
	eta := make([]float64, n)
	b := make([]float64, p)
	ycol := make([]float64, n)
	for j := 0; j < p; j++ {
		b[j] = res.Betas[0][j][0]
	}
	for i := 0; i < n; i++ {
		ycol[i] = y[i][0]
	}
	x.MulVec(eta, b)
	genres := make([]float64, n)
	lossModel.Residual(genres, eta, ycol)
	grad := make([]float64, p)
	la.VecFill(grad, 0)
	x.TrMulVecAdd(grad, -1.0/float64(n), genres)

	pen, _ := penalty.NewSortedL1(lam)
	pen.SetAlpha(alpha)
	dn := pen.DualNorm(grad)
	if dn > 1+1e-3 {
		tst.Errorf("KKT violated: dual norm = %v\n", dn)
	}
}

func Test_standardize01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("standardize01. manual and automatic modes agree")

	rng := rand.New(rand.NewSource(5))
	n, p := 25, 4
	a := la.MatAlloc(n, p)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			a[i][j] = 2*rng.NormFloat64() + float64(j)
		}
	}
	y := make([][]float64, n)
	for i := 0; i < n; i++ {
		y[i] = []float64{a[i][0] - 0.5*a[i][2] + 0.1*rng.NormFloat64()}
	}
	x, _ := xmat.NewDense(a)
	alphas := []float64{0.5, 0.1}

	auto := inp.NewOptions()
	mdlA, _ := NewSlope(auto)
	resA, err := mdlA.Path(x, y, alphas, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	xc, xs, err := xmat.CentersAndScales(x, "mean", "sd", nil, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	manual := inp.NewOptions()
	manual.Centering = "manual"
	manual.Scaling = "manual"
	manual.Centers = xc
	manual.Scales = xs
	mdlM, _ := NewSlope(manual)
	resM, err := mdlM.Path(x, y, alphas, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	for k := 0; k < 2; k++ {
		chk.Scalar(tst, "beta0", 1e-12, resA.Beta0s[k][0], resM.Beta0s[k][0])
		for j := 0; j < p; j++ {
			chk.Scalar(tst, "beta", 1e-12, resA.Betas[k][j][0], resM.Betas[k][j][0])
		}
	}
}

func Test_sparse01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sparse01. dense and sparse fits agree")

	rng := rand.New(rand.NewSource(11))
	n, p := 30, 10
	a := la.MatAlloc(n, p)
	var ri, rj []int
	var rx []float64
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			if rng.Float64() < 0.3 {
				v := rng.NormFloat64()
				a[i][j] = v
				ri = append(ri, i)
				rj = append(rj, j)
				rx = append(rx, v)
			}
		}
	}
	y := make([][]float64, n)
	for i := 0; i < n; i++ {
		y[i] = []float64{a[i][0] + 2*a[i][1] + 0.1*rng.NormFloat64()}
	}

	xd, _ := xmat.NewDense(a)
	xs, err := xmat.NewSparse(n, p, ri, rj, rx)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	opts := inp.NewOptions()
	opts.PathLength = 5
	opts.Tol = 1e-10
	mdl, _ := NewSlope(opts)
	resD, err := mdl.Path(xd, y, nil, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	resS, err := mdl.Path(xs, y, nil, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	chk.IntAssert(resD.NumSteps(), resS.NumSteps())
	for k := 0; k < resD.NumSteps(); k++ {
		chk.Scalar(tst, "beta0", 1e-4, resD.Beta0s[k][0], resS.Beta0s[k][0])
		for j := 0; j < p; j++ {
			chk.Scalar(tst, "beta", 1e-4, resD.Betas[k][j][0], resS.Betas[k][j][0])
		}
	}
}

func Test_multi01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("multi01. independent fits per response column")

	x := identity(4, 1)
	y := make([][]float64, 4)
	y1 := []float64{3, 1, 0.5, 0.2}
	y2 := []float64{0.2, 0.5, 1, 3}
	for i := 0; i < 4; i++ {
		y[i] = []float64{y1[i], y2[i]}
	}
	lam := []float64{1, 1, 1, 1}

	mdl, _ := NewSlope(rawOptions())
	res, err := mdl.Fit(x, y, 0.25, lam)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	got1 := []float64{res.Betas[0][0][0], res.Betas[0][1][0], res.Betas[0][2][0], res.Betas[0][3][0]}
	got2 := []float64{res.Betas[0][0][1], res.Betas[0][1][1], res.Betas[0][2][1], res.Betas[0][3][1]}
	chk.Vector(tst, "beta col 0", 1e-8, got1, []float64{2, 0, 0, 0})
	chk.Vector(tst, "beta col 1", 1e-8, got2, []float64{0, 0, 0, 2})
}

func Test_errors01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("errors01. shape and domain validation")

	x := identity(4, 1)
	y := column([]float64{1, 2, 3, 4})
	mdl, _ := NewSlope(rawOptions())

	// wrong lambda length
	if _, err := mdl.Fit(x, y, 1, []float64{1, 1}); err == nil {
		tst.Errorf("short lambda must fail\n")
	}

	// wrong response length
	if _, err := mdl.Fit(x, column([]float64{1, 2}), 1, nil); err == nil {
		tst.Errorf("short y must fail\n")
	}

	// negative alpha
	if _, err := mdl.Fit(x, y, -1, nil); err == nil {
		tst.Errorf("negative alpha must fail\n")
	}
	if _, err := mdl.Path(x, y, []float64{1, math.NaN()}, nil); err == nil {
		tst.Errorf("NaN alpha must fail\n")
	}

	// invalid options surface at construction
	bad := inp.NewOptions()
	bad.Loss = "tweedie"
	if _, err := NewSlope(bad); err == nil {
		tst.Errorf("unknown loss must fail\n")
	}
}
