// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package penalty

import (
	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/stat/distuv"
)

// LambdaBH generates the Benjamini-Hochberg weight sequence
// λⱼ = Φ⁻¹(1 − q·(j+1)/(2p)) for j = 0,…,p−1 with q ∈ (0,1)
func LambdaBH(p int, q float64) (lam []float64, err error) {
	if q <= 0 || q >= 1 {
		return nil, chk.Err(_lamseq_err01, q)
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	lam = make([]float64, p)
	for j := 0; j < p; j++ {
		lam[j] = normal.Quantile(1.0 - q*float64(j+1)/(2.0*float64(p)))
	}
	err = CheckLambda(lam)
	return
}

// LambdaOSCAR generates the two-parameter OSCAR weight sequence
// λⱼ = q·(1 + γ·(p−j−1)), a linearly decreasing ramp with intercept q and
// slope q·γ
func LambdaOSCAR(p int, q, gamma float64) (lam []float64, err error) {
	if q <= 0 {
		return nil, chk.Err(_lamseq_err02, q)
	}
	if gamma < 0 {
		return nil, chk.Err(_lamseq_err03, gamma)
	}
	lam = make([]float64, p)
	for j := 0; j < p; j++ {
		lam[j] = q * (1.0 + gamma*float64(p-j-1))
	}
	err = CheckLambda(lam)
	return
}

// LambdaSequence dispatches on the generator name: "bh", "oscar", or "user"
// (the latter returns the user sequence after validation)
func LambdaSequence(kind string, p int, q, gamma float64, user []float64) (lam []float64, err error) {
	switch kind {
	case "bh":
		return LambdaBH(p, q)
	case "oscar":
		return LambdaOSCAR(p, q, gamma)
	case "user":
		if len(user) != p {
			return nil, chk.Err(_lamseq_err04, len(user), p)
		}
		err = CheckLambda(user)
		if err != nil {
			return
		}
		lam = make([]float64, p)
		copy(lam, user)
		return
	}
	return nil, chk.Err(_lamseq_err05, kind)
}

// error messages
var (
	_lamseq_err01 = "q = %v must be strictly between 0 and 1\n"
	_lamseq_err02 = "oscar intercept parameter q = %v must be positive\n"
	_lamseq_err03 = "oscar slope parameter gamma = %v must be non-negative\n"
	_lamseq_err04 = "user lambda has length %d; expected %d\n"
	_lamseq_err05 = "unknown lambda type %q\n"
)
