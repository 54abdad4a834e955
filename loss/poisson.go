// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loss

import "math"

// Poisson implements the poisson loss with the log link
//  L(η, y) = Σᵢ [exp(ηᵢ) − yᵢ·ηᵢ] / n
type Poisson struct{}

// add to registry
func init() {
	allocators["poisson"] = func() Model { return new(Poisson) }
}

// Name returns the loss name
func (o *Poisson) Name() string { return "poisson" }

// Value computes the averaged negative log-likelihood (up to the y! term)
func (o *Poisson) Value(eta, y []float64) (res float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		res += math.Exp(eta[i]) - y[i]*eta[i]
	}
	return res / float64(n)
}

// Dual computes the Fenchel dual at θ: with μ = y − θ (the implied mean),
// −Σᵢ [μᵢ·log(μᵢ) − μᵢ] / n
func (o *Poisson) Dual(theta, y []float64) (res float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		mu := math.Max(y[i]-theta[i], mMin)
		res -= mu*math.Log(mu) - mu
	}
	return res / float64(n)
}

// Residual computes y − exp(η)
func (o *Poisson) Residual(res, eta, y []float64) {
	for i := range y {
		res[i] = y[i] - math.Exp(eta[i])
	}
}

// UpdateWeightsAndWorkingResponse computes the IRLS weights w = μ and
// working response z = η + (y − μ)/μ with clamped means
func (o *Poisson) UpdateWeightsAndWorkingResponse(w, z, eta, y []float64) {
	for i := range y {
		mu := math.Max(math.Exp(eta[i]), mMin)
		w[i] = mu
		z[i] = eta[i] + (y[i]-mu)/mu
	}
}

// Predict returns the mean μ = exp(η)
func (o *Poisson) Predict(res, eta []float64) {
	for i := range eta {
		res[i] = math.Exp(eta[i])
	}
}

// NullFit returns log of the response mean
func (o *Poisson) NullFit(y []float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	return math.Log(math.Max(mean/float64(len(y)), mMin))
}

// Deviance computes 2·Σᵢ [yᵢ·log(yᵢ/μᵢ) − (yᵢ − μᵢ)] with 0·log(0) = 0
func (o *Poisson) Deviance(eta, y []float64) (res float64) {
	for i := range y {
		mu := math.Max(math.Exp(eta[i]), mMin)
		if y[i] > 0 {
			res += y[i]*math.Log(y[i]/mu) - (y[i] - mu)
		} else {
			res += mu
		}
	}
	return 2.0 * res
}
