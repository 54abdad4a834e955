// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package penalty

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_eval01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("eval01. penalty evaluation")

	pen, err := NewSortedL1([]float64{2, 1, 0.5})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	pen.SetAlpha(2)

	// sorted |β| = (3, 2, 1) => 2·(2·3 + 1·2 + 0.5·1) = 17
	res := pen.Eval([]float64{3, -1, 2})
	chk.Scalar(tst, "eval", 1e-15, res, 17)

	// all zeros
	chk.Scalar(tst, "eval(0)", 1e-15, pen.Eval([]float64{0, 0, 0}), 0)
}

func Test_prox01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("prox01. pool adjacent violators")

	pen, err := NewSortedL1([]float64{1.5, 1.0, 0.6, 0.3})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// sorted magnitudes (2.1, 2.0, 1.9, 0.1) shift to (0.6, 1.0, 1.3, -0.2):
	// the first three blocks merge to mean 29/30, the last clamps to zero
	v := []float64{2.1, -2.0, 1.9, 0.1}
	res := make([]float64, 4)
	pen.Prox(res, v, 1)
	d := 29.0 / 30.0
	chk.Vector(tst, "prox", 1e-14, res, []float64{d, -d, d, 0})
}

func Test_prox02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("prox02. idempotence on zeros")

	pen, err := NewSortedL1([]float64{2, 1, 0.5, 0.1})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	res := make([]float64, 4)
	for _, tau := range []float64{0, 0.5, 1, 10} {
		pen.Prox(res, []float64{0, 0, 0, 0}, tau)
		chk.Vector(tst, "prox(0)", 1e-15, res, nil)
	}
}

func Test_prox03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("prox03. sign and permutation equivariance")

	pen, err := NewSortedL1([]float64{1.2, 0.9, 0.4, 0.2})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	v := []float64{0.3, -1.7, 2.4, -0.8}
	res := make([]float64, 4)
	neg := make([]float64, 4)
	vm := make([]float64, 4)
	pen.Prox(res, v, 0.7)

	// prox(−v) = −prox(v)
	for i := range v {
		vm[i] = -v[i]
	}
	pen.Prox(neg, vm, 0.7)
	for i := range v {
		chk.Scalar(tst, "sign flip", 1e-15, neg[i], -res[i])
	}

	// permuting the input permutes the output
	perm := []int{2, 0, 3, 1}
	vp := make([]float64, 4)
	for i, j := range perm {
		vp[i] = v[j]
	}
	resp := make([]float64, 4)
	pen.Prox(resp, vp, 0.7)
	for i, j := range perm {
		chk.Scalar(tst, "permutation", 1e-15, resp[i], res[j])
	}
}

func Test_dualnorm01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("dualnorm01. dual norm and duality bound")

	pen, err := NewSortedL1([]float64{1, 0.5})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// cumsums (1, 2) over (1, 1.5) => max(1, 4/3)
	chk.Scalar(tst, "dualnorm", 1e-15, pen.DualNorm([]float64{1, 1}), 4.0/3.0)

	// |⟨β, g⟩| ≤ P(β)·max(1, dualNorm(g))
	betas := [][]float64{{1, 0}, {0.5, -0.5}, {2, 3}, {-1, 4}}
	grads := [][]float64{{1, 1}, {0.2, -0.9}, {-3, 0.1}}
	for _, beta := range betas {
		for _, g := range grads {
			dot := math.Abs(beta[0]*g[0] + beta[1]*g[1])
			bound := pen.Eval(beta) * math.Max(1, pen.DualNorm(g))
			if dot > bound+1e-12 {
				tst.Errorf("duality bound violated: %v > %v\n", dot, bound)
				return
			}
		}
	}

	// equality at an extremal β: g aligned with the λ ramp
	g := []float64{1, 0.5}
	beta := []float64{1, 1}
	dot := beta[0]*g[0] + beta[1]*g[1]
	chk.Scalar(tst, "extremal", 1e-15, dot, pen.Eval(beta)*math.Max(1, pen.DualNorm(g)))
}

func Test_lambda01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("lambda01. BH sequence")

	lam, err := LambdaBH(5, 0.1)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	ref := []float64{2.3263478740, 2.0537489106, 1.8807936082, 1.7506860713, 1.6448536270}
	chk.Vector(tst, "bh", 1e-8, lam, ref)

	// invalid quantiles
	if _, err := LambdaBH(5, 0); err == nil {
		tst.Errorf("q = 0 must fail\n")
	}
	if _, err := LambdaBH(5, 1); err == nil {
		tst.Errorf("q = 1 must fail\n")
	}
}

func Test_lambda02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("lambda02. OSCAR sequence and validation")

	lam, err := LambdaOSCAR(4, 0.2, 0.5)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "oscar", 1e-15, lam, []float64{0.5, 0.4, 0.3, 0.2})

	// user sequences must be validated
	if _, err := LambdaSequence("user", 3, 0.1, 1, []float64{1, 2, 3}); err == nil {
		tst.Errorf("increasing user lambda must fail\n")
	}
	if _, err := LambdaSequence("user", 3, 0.1, 1, []float64{1, 0.5, -0.1}); err == nil {
		tst.Errorf("negative user lambda must fail\n")
	}
	if _, err := LambdaSequence("user", 3, 0.1, 1, []float64{1, 0.5, math.NaN()}); err == nil {
		tst.Errorf("non-finite user lambda must fail\n")
	}
	if _, err := LambdaSequence("wrong", 3, 0.1, 1, nil); err == nil {
		tst.Errorf("unknown lambda type must fail\n")
	}
}
