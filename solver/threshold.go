// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import "math"

// SlopeThreshold solves the single-cluster subproblem of a coordinate-descent
// sweep: given the unconstrained minimizer x = c_old − g/h of the local
// quadratic model and the per-position weight slice lam (already scaled by
// α/h), it returns the new signed magnitude of the cluster and its new
// 0-based position among the other clusters.
//
// Candidate ranks are scanned top-down. At rank r the cluster occupies the
// λ-positions after the r other clusters above it; the candidate magnitude is
// |x| minus the sum of those weights. The candidate is accepted when it lies
// strictly between the neighbouring magnitudes; a boundary hit merges into
// the neighbouring cluster, and a non-positive candidate lands in the zero
// cluster.
func SlopeThreshold(x float64, j int, lam []float64, cl *Clusters) (cNew float64, newPos int) {

	ax := math.Abs(x)
	sgn := signOf(x)
	size := cl.Size(j)

	start := 0            // first λ-position at the current candidate rank
	rank := 0             // candidate 0-based position among the other clusters
	hi := math.Inf(1)     // magnitude of the other cluster directly above

	for i := 0; i < cl.N(); i++ {
		if i == j {
			continue
		}
		mi := cl.Coeff(i)
		if mi == 0 {
			break
		}
		c := ax - sumRange(lam, start, size)
		if c >= hi {
			// pinned at the upper neighbour: merge into it
			return sgn * hi, rank - 1
		}
		if c > mi {
			return sgn * c, rank
		}
		hi = mi
		start += cl.Size(i)
		rank++
	}

	// below every non-zero cluster
	c := ax - sumRange(lam, start, size)
	if c >= hi {
		return sgn * hi, rank - 1
	}
	if c > 0 {
		return sgn * c, rank
	}
	return 0, rank
}

// sumRange sums lam[start : start+size]
func sumRange(lam []float64, start, size int) (res float64) {
	for i := start; i < start+size; i++ {
		res += lam[i]
	}
	return
}

// signOf returns -1, 0, or 1
func signOf(x float64) float64 {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}
