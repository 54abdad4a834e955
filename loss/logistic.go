// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loss

import "math"

// Logistic implements the binomial loss for responses coded in {0,1}
//  L(η, y) = Σᵢ [log(1+exp(ηᵢ)) − yᵢ·ηᵢ] / n
type Logistic struct{}

// add to registry
func init() {
	allocators["logistic"] = func() Model { return new(Logistic) }
}

// Name returns the loss name
func (o *Logistic) Name() string { return "logistic" }

// Value computes the averaged negative log-likelihood
func (o *Logistic) Value(eta, y []float64) (res float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		res += log1pexp(eta[i]) - y[i]*eta[i]
	}
	return res / float64(n)
}

// Dual computes the Fenchel dual at θ: with q = y − θ (the implied
// probability), −Σᵢ [qᵢ·log(qᵢ) + (1−qᵢ)·log(1−qᵢ)] / n
func (o *Logistic) Dual(theta, y []float64) (res float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		q := clamp(y[i]-theta[i], pMin, 1.0-pMin)
		res -= q*math.Log(q) + (1.0-q)*math.Log(1.0-q)
	}
	return res / float64(n)
}

// Residual computes y − σ(η) where σ is the sigmoid
func (o *Logistic) Residual(res, eta, y []float64) {
	for i := range y {
		res[i] = y[i] - sigmoid(eta[i])
	}
}

// UpdateWeightsAndWorkingResponse computes the IRLS weights w = p(1−p) and
// working response z = η + (y − p)/w with clamped probabilities
func (o *Logistic) UpdateWeightsAndWorkingResponse(w, z, eta, y []float64) {
	for i := range y {
		p := clamp(sigmoid(eta[i]), pMin, 1.0-pMin)
		w[i] = p * (1.0 - p)
		z[i] = eta[i] + (y[i]-p)/w[i]
	}
}

// Predict returns the probability μ = σ(η)
func (o *Logistic) Predict(res, eta []float64) {
	for i := range eta {
		res[i] = sigmoid(eta[i])
	}
}

// NullFit returns logit of the response mean
func (o *Logistic) NullFit(y []float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean = clamp(mean/float64(len(y)), pMin, 1.0-pMin)
	return math.Log(mean / (1.0 - mean))
}

// Deviance computes 2·Σᵢ [log(1+exp(ηᵢ)) − yᵢ·ηᵢ]; the saturated
// log-likelihood is zero for responses in {0,1}
func (o *Logistic) Deviance(eta, y []float64) (res float64) {
	for i := range y {
		res += log1pexp(eta[i]) - y[i]*eta[i]
	}
	return 2.0 * res
}
