// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loss

import "github.com/cpmech/gosl/la"

// Quadratic implements the Gaussian (least squares) loss
//  L(η, y) = ‖η − y‖² / (2n)
type Quadratic struct{}

// add to registry
func init() {
	allocators["quadratic"] = func() Model { return new(Quadratic) }
}

// Name returns the loss name
func (o *Quadratic) Name() string { return "quadratic" }

// Value computes ‖η − y‖²/(2n)
func (o *Quadratic) Value(eta, y []float64) (res float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		d := eta[i] - y[i]
		res += d * d
	}
	return res / (2.0 * float64(n))
}

// Dual computes (‖y‖² − ‖y − θ‖²) / (2n)
func (o *Quadratic) Dual(theta, y []float64) (res float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		d := y[i] - theta[i]
		res += y[i]*y[i] - d*d
	}
	return res / (2.0 * float64(n))
}

// Residual computes y − η
func (o *Quadratic) Residual(res, eta, y []float64) {
	la.VecAdd2(res, 1, y, -1, eta)
}

// UpdateWeightsAndWorkingResponse sets w ≡ 1 and z ≡ y
func (o *Quadratic) UpdateWeightsAndWorkingResponse(w, z, eta, y []float64) {
	la.VecFill(w, 1)
	la.VecCopy(z, 1, y)
}

// Predict returns the identity link mean, μ = η
func (o *Quadratic) Predict(res, eta []float64) {
	la.VecCopy(res, 1, eta)
}

// NullFit returns the mean of y
func (o *Quadratic) NullFit(y []float64) (res float64) {
	for _, v := range y {
		res += v
	}
	return res / float64(len(y))
}

// Deviance computes Σ(y − η)²
func (o *Quadratic) Deviance(eta, y []float64) (res float64) {
	for i := range y {
		d := y[i] - eta[i]
		res += d * d
	}
	return
}
