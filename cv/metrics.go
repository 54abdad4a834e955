// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cv

import (
	"math"
	"sort"

	"github.com/jolars/sortedl1/loss"
)

// LossLike tells whether lower metric values are better
func LossLike(metric string) bool {
	switch metric {
	case "accuracy", "auc":
		return false
	}
	return true
}

// score evaluates one metric on held-out data given the linear predictor
func score(metric string, lossModel loss.Model, eta, y []float64) float64 {
	n := len(y)
	mu := make([]float64, n)
	lossModel.Predict(mu, eta)
	switch metric {
	case "mse":
		res := 0.0
		for i := 0; i < n; i++ {
			d := y[i] - mu[i]
			res += d * d
		}
		return res / float64(n)
	case "mae":
		res := 0.0
		for i := 0; i < n; i++ {
			res += math.Abs(y[i] - mu[i])
		}
		return res / float64(n)
	case "accuracy":
		hits := 0
		for i := 0; i < n; i++ {
			pred := 0.0
			if mu[i] > 0.5 {
				pred = 1
			}
			if pred == y[i] {
				hits++
			}
		}
		return float64(hits) / float64(n)
	case "auc":
		return auc(mu, y)
	case "deviance":
		return lossModel.Deviance(eta, y)
	}
	return math.NaN()
}

// auc computes the area under the ROC curve for binary labels via the
// rank-sum statistic, with average ranks over ties
func auc(score, y []float64) float64 {
	n := len(y)
	ord := make([]int, n)
	for i := range ord {
		ord[i] = i
	}
	sort.Slice(ord, func(a, b int) bool { return score[ord[a]] < score[ord[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && score[ord[j+1]] == score[ord[i]] {
			j++
		}
		r := 0.5 * float64(i+j) // zero-based average rank of the tie group
		for k := i; k <= j; k++ {
			ranks[ord[k]] = r + 1
		}
		i = j + 1
	}

	npos, rsum := 0.0, 0.0
	for i := 0; i < n; i++ {
		if y[i] > 0.5 {
			npos++
			rsum += ranks[i]
		}
	}
	nneg := float64(n) - npos
	if npos == 0 || nneg == 0 {
		return math.NaN()
	}
	return (rsum - npos*(npos+1)/2.0) / (npos * nneg)
}
