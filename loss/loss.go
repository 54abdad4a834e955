// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package loss implements the data-fitting part of the SLOPE objective as a
// closed family of models: quadratic, logistic, and poisson. Selection
// happens once at fit entry from a configuration string.
package loss

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Model defines the interface for loss families
type Model interface {
	Name() string                                          // loss name as used in configuration
	Value(eta, y []float64) float64                        // loss L(η, y), averaged over observations
	Dual(theta, y []float64) float64                       // Fenchel dual evaluated at the (scaled) dual point θ
	Residual(res, eta, y []float64)                        // generalized residual −n·∇L; e.g. y − η for quadratic
	UpdateWeightsAndWorkingResponse(w, z, eta, y []float64) // IRLS reweighting at the current linear predictor
	Predict(res, eta []float64)                            // mean response μ(η); inverse link
	NullFit(y []float64) float64                           // intercept of the null (intercept-only) model
	Deviance(eta, y []float64) float64                     // deviance; 2·(saturated − current) log-likelihood
}

// New returns a new loss model for the given family name
func New(name string) (Model, error) {
	allocator, ok := allocators[name]
	if !ok {
		if name == "multinomial" {
			return nil, chk.Err(_loss_err02, name)
		}
		return nil, chk.Err(_loss_err01, name)
	}
	return allocator(), nil
}

// allocators holds all available loss models; name => allocator
var allocators = map[string]func() Model{}

// constants shared by the loss models
const (
	pMin = 1e-5 // probability clamp for logistic weights and duals
	mMin = 1e-9 // mean clamp for poisson weights and duals
)

// clamp returns x limited to [lo, hi]
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// sigmoid computes 1/(1+exp(−x))
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// log1pexp computes log(1+exp(x)) without overflow
func log1pexp(x float64) float64 {
	if x > 33 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// error messages
var (
	_loss_err01 = "unknown loss family %q\n"
	_loss_err02 = "loss family %q is recognized but not available in this build\n"
)
