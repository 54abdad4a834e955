// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input options for SLOPE fits, including reading
// options from a JSON file
package inp

import (
	"encoding/json"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Options holds all data controlling one SLOPE fit. The struct is
// constructed once per fit and must not be mutated while the solver runs.
type Options struct {

	// model
	Intercept bool   `json:"intercept"` // fit an intercept per response column
	Loss      string `json:"loss"`      // loss family: "quadratic", "logistic", "poisson", "multinomial"

	// standardization
	Centering string    `json:"centering"` // column centering: "mean", "none", "manual"
	Scaling   string    `json:"scaling"`   // column scaling: "sd", "l2", "none", "manual"
	Centers   []float64 `json:"centers"`   // manual centers; used when Centering == "manual"
	Scales    []float64 `json:"scales"`    // manual scales; used when Scaling == "manual"

	// penalty
	LambdaType string  `json:"lambda_type"` // λ-generator: "bh", "user", "oscar"
	Q          float64 `json:"q"`           // BH quantile; in (0,1)
	Gamma      float64 `json:"gamma"`       // OSCAR slope parameter

	// path
	AlphaMinRatio float64 `json:"alpha_min_ratio"` // last/first α ratio; -1 => auto (1e-4 if n > p else 1e-2)
	PathLength    int     `json:"path_length"`     // number of α values on the automatic path
	MaxClusters   int     `json:"max_clusters"`    // stop the path when the non-zero cluster count exceeds this; -1 => unbounded
	TolDevChange  float64 `json:"tol_dev_change"`  // stop when the fractional deviance-ratio change drops below this
	TolDevRatio   float64 `json:"tol_dev_ratio"`   // stop when the deviance ratio exceeds this

	// solver
	Solver           string  `json:"solver"`             // inner strategy: "auto", "hybrid", "fista"
	Tol              float64 `json:"tol"`                // relative duality-gap tolerance
	MaxIt            int     `json:"max_it"`             // max inner iterations
	MaxItOuter       int     `json:"max_it_outer"`       // max IRLS outer iterations
	PgdFreq          int     `json:"pgd_freq"`           // run a PGD step every PgdFreq inner iterations; 1 => pure PGD
	LearningRateDecr float64 `json:"learning_rate_decr"` // line-search decay factor; in (0,1)
	UpdateClusters   bool    `json:"update_clusters"`    // reorder/merge clusters during CD sweeps
	PrintLevel       int     `json:"print_level"`        // verbosity: 0 (silent) to 3
}

// SetDefault sets default values
func (o *Options) SetDefault() {
	o.Intercept = true
	o.Loss = "quadratic"
	o.Centering = "mean"
	o.Scaling = "sd"
	o.LambdaType = "bh"
	o.Q = 0.1
	o.Gamma = 1.0
	o.AlphaMinRatio = -1
	o.PathLength = 100
	o.MaxClusters = -1
	o.TolDevChange = 1e-5
	o.TolDevRatio = 0.999
	o.Solver = "auto"
	o.Tol = 1e-6
	o.MaxIt = 10000
	o.MaxItOuter = 100
	o.PgdFreq = 10
	o.LearningRateDecr = 0.5
	o.UpdateClusters = true
	o.PrintLevel = 0
}

// NewOptions returns options with default values
func NewOptions() (o *Options) {
	o = new(Options)
	o.SetDefault()
	return
}

// Validate checks the closed option set. It returns an error describing the
// first violation found.
func (o *Options) Validate() (err error) {
	switch o.Loss {
	case "quadratic", "logistic", "poisson", "multinomial":
	default:
		return chk.Err(_options_err01, o.Loss)
	}
	switch o.Centering {
	case "mean", "none", "manual":
	default:
		return chk.Err(_options_err02, o.Centering)
	}
	switch o.Scaling {
	case "sd", "l2", "none", "manual":
	default:
		return chk.Err(_options_err03, o.Scaling)
	}
	switch o.LambdaType {
	case "bh", "user", "oscar":
	default:
		return chk.Err(_options_err04, o.LambdaType)
	}
	switch o.Solver {
	case "auto", "hybrid", "fista":
	default:
		return chk.Err(_options_err05, o.Solver)
	}
	if o.Q <= 0 || o.Q >= 1 {
		return chk.Err(_options_err06, o.Q)
	}
	if o.AlphaMinRatio != -1 && (o.AlphaMinRatio <= 0 || o.AlphaMinRatio > 1) {
		return chk.Err(_options_err07, o.AlphaMinRatio)
	}
	if o.PathLength < 1 {
		return chk.Err(_options_err08, o.PathLength)
	}
	if o.MaxClusters != -1 && o.MaxClusters < 1 {
		return chk.Err(_options_err09, o.MaxClusters)
	}
	if !(o.Tol > 0) || !(o.TolDevChange > 0) {
		return chk.Err(_options_err10, o.Tol, o.TolDevChange)
	}
	if o.TolDevRatio <= 0 || o.TolDevRatio >= 1 {
		return chk.Err(_options_err11, o.TolDevRatio)
	}
	if o.MaxIt < 1 || o.MaxItOuter < 1 || o.PgdFreq < 1 {
		return chk.Err(_options_err12, o.MaxIt, o.MaxItOuter, o.PgdFreq)
	}
	if o.LearningRateDecr <= 0 || o.LearningRateDecr >= 1 {
		return chk.Err(_options_err13, o.LearningRateDecr)
	}
	if o.PrintLevel < 0 || o.PrintLevel > 3 {
		return chk.Err(_options_err14, o.PrintLevel)
	}
	for j, v := range o.Centers {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return chk.Err(_options_err15, j, v)
		}
	}
	for j, v := range o.Scales {
		if !(v > 0) || math.IsInf(v, 0) {
			return chk.Err(_options_err16, j, v)
		}
	}
	return
}

// GetCopy returns a copy of the options with manual vectors duplicated
func (o *Options) GetCopy() (res *Options) {
	res = new(Options)
	*res = *o
	if o.Centers != nil {
		res.Centers = make([]float64, len(o.Centers))
		copy(res.Centers, o.Centers)
	}
	if o.Scales != nil {
		res.Scales = make([]float64, len(o.Scales))
		copy(res.Scales, o.Scales)
	}
	return
}

// FoldIndices holds one predefined cross-validation split
type FoldIndices struct {
	Train []int `json:"train"` // indices of training rows
	Test  []int `json:"test"`  // indices of test rows
}

// CvOptions holds data controlling one cross-validation run
type CvOptions struct {
	HyperParams map[string][]float64 `json:"hyperparams"` // grid; keys are "q" and "gamma"
	Metric      string               `json:"metric"`      // "mse", "mae", "accuracy", "auc", "deviance"
	NumFolds    int                  `json:"nfolds"`      // fold count when Folds is not given
	Folds       []*FoldIndices       `json:"folds"`       // predefined splits; overrides NumFolds
}

// SetDefault sets default values
func (o *CvOptions) SetDefault() {
	o.Metric = "mse"
	o.NumFolds = 10
}

// NewCvOptions returns cross-validation options with default values
func NewCvOptions() (o *CvOptions) {
	o = new(CvOptions)
	o.SetDefault()
	return
}

// Validate checks the cross-validation options
func (o *CvOptions) Validate() (err error) {
	switch o.Metric {
	case "mse", "mae", "accuracy", "auc", "deviance":
	default:
		return chk.Err(_options_err17, o.Metric)
	}
	for name := range o.HyperParams {
		if name != "q" && name != "gamma" {
			return chk.Err(_options_err18, name)
		}
	}
	if len(o.Folds) == 0 && o.NumFolds < 2 {
		return chk.Err(_options_err19, o.NumFolds)
	}
	return
}

// ReadOptions reads options from a JSON file. Defaults are applied first so
// that absent keys keep their default values.
func ReadOptions(filepath string) (o *Options, err error) {
	b, err := io.ReadFile(filepath)
	if err != nil {
		return nil, chk.Err(_options_err20, filepath)
	}
	o = NewOptions()
	err = json.Unmarshal(b, o)
	if err != nil {
		return nil, chk.Err(_options_err21, filepath, err)
	}
	err = o.Validate()
	if err != nil {
		return nil, err
	}
	return
}

// error messages
var (
	_options_err01 = "unknown loss %q\n"
	_options_err02 = "unknown centering mode %q\n"
	_options_err03 = "unknown scaling mode %q\n"
	_options_err04 = "unknown lambda type %q\n"
	_options_err05 = "unknown solver %q\n"
	_options_err06 = "q = %v must be strictly between 0 and 1\n"
	_options_err07 = "alpha_min_ratio = %v must be in (0,1] or -1 for automatic\n"
	_options_err08 = "path_length = %d must be positive\n"
	_options_err09 = "max_clusters = %d must be positive or -1 for unbounded\n"
	_options_err10 = "tolerances must be positive: tol = %v, tol_dev_change = %v\n"
	_options_err11 = "tol_dev_ratio = %v must be strictly between 0 and 1\n"
	_options_err12 = "iteration limits must be positive: max_it = %d, max_it_outer = %d, pgd_freq = %d\n"
	_options_err13 = "learning_rate_decr = %v must be strictly between 0 and 1\n"
	_options_err14 = "print_level = %d must be between 0 and 3\n"
	_options_err15 = "manual center %d = %v is not finite\n"
	_options_err16 = "manual scale %d = %v must be positive and finite\n"
	_options_err17 = "unknown metric %q\n"
	_options_err18 = "unknown hyperparameter %q\n"
	_options_err19 = "nfolds = %d must be at least 2\n"
	_options_err20 = "cannot read options file %q\n"
	_options_err21 = "cannot unmarshal options file %q\n%v"
)
