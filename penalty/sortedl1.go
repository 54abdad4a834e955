// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package penalty implements the sorted ℓ₁ norm (the SLOPE penalty), its
// proximal operator and dual norm, and the λ-sequence generators
package penalty

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/floats"
)

// SortedL1 evaluates P(β) = α · Σⱼ λⱼ·|β|₍ⱼ₎ where |β|₍ⱼ₎ is the j-th largest
// absolute entry of β. λ is fixed at construction; α is settable because the
// regularization-path loop reuses one penalty across all path steps.
type SortedL1 struct {
	lam   []float64 // non-increasing, non-negative weights; length p
	alpha float64   // scale factor; default 1
}

// NewSortedL1 returns a sorted ℓ₁ norm with the given weights. The weights
// are validated (finite, non-negative, non-increasing) and copied.
func NewSortedL1(lam []float64) (o *SortedL1, err error) {
	err = CheckLambda(lam)
	if err != nil {
		return
	}
	o = new(SortedL1)
	o.lam = make([]float64, len(lam))
	copy(o.lam, lam)
	o.alpha = 1
	return
}

// SetAlpha sets the scale factor α
func (o *SortedL1) SetAlpha(alpha float64) {
	o.alpha = alpha
}

// Alpha returns the scale factor α
func (o *SortedL1) Alpha() float64 {
	return o.alpha
}

// Lambda returns a reference to the weight sequence. Callers must not modify
// the returned slice.
func (o *SortedL1) Lambda() []float64 {
	return o.lam
}

// Eval computes α · Σⱼ λⱼ·|β|₍ⱼ₎
func (o *SortedL1) Eval(beta []float64) (res float64) {
	p := len(beta)
	ab := make([]float64, p)
	for j := 0; j < p; j++ {
		ab[j] = math.Abs(beta[j])
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ab)))
	for j := 0; j < p; j++ {
		res += o.lam[j] * ab[j]
	}
	return res * o.alpha
}

// Prox solves argminₓ ½‖x − v‖² + τ·α·Σⱼ λⱼ·|x|₍ⱼ₎ and stores the result in
// res. It runs the stack-based pool-adjacent-violators algorithm on the
// shifted sorted magnitudes, then undoes the sort and reapplies signs.
func (o *SortedL1) Prox(res, v []float64, tau float64) {

	p := len(v)
	av := make([]float64, p)
	sgn := make([]float64, p)
	for i := 0; i < p; i++ {
		av[i] = math.Abs(v[i])
		sgn[i] = sign(v[i])
	}

	// sort magnitudes in descending order, remembering the permutation
	ord := make([]int, p)
	for i := range ord {
		ord[i] = i
	}
	sort.Slice(ord, func(a, b int) bool { return av[ord[a]] > av[ord[b]] })
	w := make([]float64, p)
	for i := 0; i < p; i++ {
		w[i] = av[ord[i]]
	}

	// pool adjacent violators on sᵢ = wᵢ − τ·α·λᵢ: merge blocks while the
	// running means are non-decreasing
	s := make([]float64, p)
	m := make([]float64, p)
	idxI := make([]int, p)
	idxJ := make([]int, p)
	k := 0
	for i := 0; i < p; i++ {
		idxI[k] = i
		idxJ[k] = i
		s[k] = w[i] - tau*o.alpha*o.lam[i]
		m[k] = s[k]
		for k > 0 && m[k-1] <= m[k] {
			k--
			idxJ[k] = i
			s[k] += s[k+1]
			m[k] = s[k] / float64(i-idxI[k]+1)
		}
		k++
	}
	for j := 0; j < k; j++ {
		d := math.Max(m[j], 0)
		for i := idxI[j]; i <= idxJ[j]; i++ {
			w[i] = d
		}
	}

	// undo sort, reapply signs
	for i := 0; i < p; i++ {
		res[ord[i]] = w[i]
	}
	for i := 0; i < p; i++ {
		res[i] *= sgn[i]
	}
}

// DualNorm computes the norm dual to α·λ-weighted sorted ℓ₁:
// maxₖ (Σ_{i≤k} |g|₍ᵢ₎) / (α·Σ_{i≤k} λᵢ). A gradient g is dual-feasible iff
// the result is at most one.
func (o *SortedL1) DualNorm(g []float64) (res float64) {
	p := len(g)
	ab := make([]float64, p)
	for i := 0; i < p; i++ {
		ab[i] = math.Abs(g[i])
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ab)))
	cumG := make([]float64, p)
	cumL := make([]float64, p)
	floats.CumSum(cumG, ab)
	floats.CumSum(cumL, o.lam)
	res = math.Inf(-1)
	for i := 0; i < p; i++ {
		den := o.alpha * cumL[i]
		var ratio float64
		if den > 0 {
			ratio = cumG[i] / den
		} else if cumG[i] > 0 {
			ratio = math.Inf(1)
		}
		if ratio > res {
			res = ratio
		}
	}
	return
}

// CheckLambda verifies that lam is a valid SLOPE weight sequence: non-empty,
// finite, non-negative, and non-increasing
func CheckLambda(lam []float64) (err error) {
	if len(lam) < 1 {
		return chk.Err(_sortedl1_err01)
	}
	for j, v := range lam {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return chk.Err(_sortedl1_err02, j, v)
		}
		if v < 0 {
			return chk.Err(_sortedl1_err03, j, v)
		}
		if j > 0 && v > lam[j-1] {
			return chk.Err(_sortedl1_err04, j)
		}
	}
	return
}

// sign returns -1, 0, or 1
func sign(x float64) float64 {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

// error messages
var (
	_sortedl1_err01 = "lambda sequence cannot be empty\n"
	_sortedl1_err02 = "lambda[%d] = %v is not finite\n"
	_sortedl1_err03 = "lambda[%d] = %v is negative\n"
	_sortedl1_err04 = "lambda sequence must be non-increasing; violation at position %d\n"
)
