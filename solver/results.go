// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

// Results holds the output of a path fit. Entries are appended one path step
// at a time; a path truncated by a numerical issue keeps what has been
// accumulated and sets Truncated.
type Results struct {
	Alphas     []float64     // α values actually fitted; length K
	Lambda     []float64     // λ weights used
	Beta0s     [][]float64   // intercepts; [step][response]
	Betas      [][][]float64 // coefficients in the original data frame; [step][predictor][response]
	Passes     []int         // IRLS pass count per step, summed over responses
	Primals    [][]float64   // primal history per step (first response)
	Gaps       [][]float64   // duality-gap history per step (first response)
	DevRatios  []float64     // deviance ratio per step (first response)
	NumNonzero []int         // non-zero cluster count per step (first response)
	ItTotal    int           // total IRLS passes over the whole path
	Truncated  bool          // path stopped early on a numerical issue
	Clusters   []*Clusters   // final cluster structure per response
}

// NumSteps returns the number of path steps actually fitted
func (o *Results) NumSteps() int {
	return len(o.Alphas)
}
