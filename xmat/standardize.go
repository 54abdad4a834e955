// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xmat

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// CentersAndScales computes column centers and scales for the requested
// modes. centering is one of {"mean", "none", "manual"} and scaling one of
// {"sd", "l2", "none", "manual"}; with "manual", the corresponding vector
// must be supplied (length p, scales strictly positive).
func CentersAndScales(x Matrix, centering, scaling string, centers, scales []float64) (xc, xs []float64, err error) {

	n := x.Nrows()
	p := x.Ncols()
	ones := make([]float64, n)
	for i := 0; i < n; i++ {
		ones[i] = 1
	}

	xc = make([]float64, p)
	xs = make([]float64, p)

	switch centering {
	case "mean":
		for j := 0; j < p; j++ {
			xc[j] = x.ColDot(j, ones) / float64(n)
		}
	case "none":
		// zeros
	case "manual":
		if len(centers) != p {
			return nil, nil, chk.Err(_standardize_err01, len(centers), p)
		}
		copy(xc, centers)
	default:
		return nil, nil, chk.Err(_standardize_err02, centering)
	}

	switch scaling {
	case "sd":
		for j := 0; j < p; j++ {
			mean := x.ColDot(j, ones) / float64(n)
			ssq := x.ColSqDot(j, ones) / float64(n)
			v := ssq - mean*mean
			if v < 0 {
				v = 0
			}
			xs[j] = math.Sqrt(v)
			if xs[j] == 0 {
				// constant column; leave it unscaled
				xs[j] = 1
			}
		}
	case "l2":
		for j := 0; j < p; j++ {
			xs[j] = math.Sqrt(x.ColSqDot(j, ones))
			if xs[j] == 0 {
				xs[j] = 1
			}
		}
	case "none":
		for j := 0; j < p; j++ {
			xs[j] = 1
		}
	case "manual":
		if len(scales) != p {
			return nil, nil, chk.Err(_standardize_err03, len(scales), p)
		}
		copy(xs, scales)
	default:
		return nil, nil, chk.Err(_standardize_err04, scaling)
	}

	for j := 0; j < p; j++ {
		if !(xs[j] > 0) || math.IsInf(xs[j], 0) || math.IsNaN(xc[j]) || math.IsInf(xc[j], 0) {
			return nil, nil, chk.Err(_standardize_err05, j, xc[j], xs[j])
		}
	}
	return
}

// Trivial tells whether the centers/scales pair leaves columns unchanged, in
// which case the solver can skip the just-in-time transformation
func Trivial(xc, xs []float64) bool {
	for j := range xc {
		if xc[j] != 0 || xs[j] != 1 {
			return false
		}
	}
	return true
}

// RescaleCoefficients maps coefficients fitted on centered/scaled columns
// back to the original frame: βⱼ ← βⱼ/sⱼ and, when intercept is set,
// β₀ ← β₀ − Σⱼ cⱼ·βⱼ/sⱼ (otherwise β₀ is returned unchanged).
// The input slice is not modified.
func RescaleCoefficients(beta0 float64, beta, xc, xs []float64, intercept bool) (b0 float64, b []float64) {
	p := len(beta)
	b = make([]float64, p)
	b0 = beta0
	sum := 0.0
	for j := 0; j < p; j++ {
		b[j] = beta[j] / xs[j]
		sum += xc[j] * b[j]
	}
	if intercept {
		b0 -= sum
	}
	return
}

// error messages
var (
	_standardize_err01 = "manual centers have length %d; expected %d\n"
	_standardize_err02 = "unknown centering mode %q\n"
	_standardize_err03 = "manual scales have length %d; expected %d\n"
	_standardize_err04 = "unknown scaling mode %q\n"
	_standardize_err05 = "column %d has invalid center/scale pair (%g, %g)\n"
)
