// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solver implements the hybrid coordinate-descent / proximal-gradient
// SLOPE solver: the cluster partition, the single-cluster threshold update,
// the CD and PGD steps, and the IRLS/path driver
package solver

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
)

// Clusters maintains the partition of coefficient indices induced by equal
// |βⱼ|, in strictly descending order of magnitude, with a dedicated terminal
// zero cluster holding all indices with βⱼ = 0. The layout is three parallel
// arrays: magnitudes, concatenated member indices, and cluster pointers.
type Clusters struct {
	c   []float64 // cluster magnitudes, strictly descending; last is 0 if any βⱼ = 0
	idx []int     // member indices, concatenated cluster by cluster
	ptr []int     // cluster delimiters in idx; length N()+1
}

// NewClusters builds the partition from a coefficient vector
func NewClusters(beta []float64) (o *Clusters) {
	o = new(Clusters)
	o.Rebuild(beta)
	return
}

// N returns the number of clusters, including the zero cluster when present
func (o *Clusters) N() int {
	return len(o.c)
}

// Size returns the number of members of cluster i
func (o *Clusters) Size(i int) int {
	return o.ptr[i+1] - o.ptr[i]
}

// Coeff returns the magnitude of cluster i
func (o *Clusters) Coeff(i int) float64 {
	return o.c[i]
}

// SetCoeff sets the magnitude of cluster i without reordering. The ordering
// invariant may go stale; callers that keep clusters exact use Update.
func (o *Clusters) SetCoeff(i int, m float64) {
	o.c[i] = m
}

// Members returns the member indices of cluster i. The returned slice is a
// view into internal storage and is invalidated by Update and Rebuild.
func (o *Clusters) Members(i int) []int {
	return o.idx[o.ptr[i]:o.ptr[i+1]]
}

// Rebuild recomputes the partition from a coefficient vector
func (o *Clusters) Rebuild(beta []float64) {

	p := len(beta)
	ord := make([]int, p)
	for j := range ord {
		ord[j] = j
	}
	sort.Slice(ord, func(a, b int) bool {
		aa, ab := math.Abs(beta[ord[a]]), math.Abs(beta[ord[b]])
		if aa != ab {
			return aa > ab
		}
		return ord[a] < ord[b]
	})

	o.c = o.c[:0]
	o.idx = o.idx[:0]
	o.ptr = o.ptr[:0]
	o.ptr = append(o.ptr, 0)
	for k := 0; k < p; k++ {
		m := math.Abs(beta[ord[k]])
		if k == 0 || m != o.c[len(o.c)-1] {
			o.c = append(o.c, m)
			o.ptr = append(o.ptr, o.ptr[len(o.ptr)-1])
		}
		o.idx = append(o.idx, ord[k])
		o.ptr[len(o.ptr)-1]++
	}
}

// Update changes the magnitude of the cluster at oldPos to cNew and moves it
// to position newPos among the remaining clusters. Equal magnitudes merge
// into the existing cluster; cNew = 0 merges into the terminal zero cluster,
// creating it if absent.
func (o *Clusters) Update(oldPos, newPos int, cNew float64) {

	// extract member block
	mem := make([]int, o.Size(oldPos))
	copy(mem, o.Members(oldPos))
	o.remove(oldPos)

	if cNew == 0 {
		k := o.N()
		if k > 0 && o.c[k-1] == 0 {
			// zero cluster is last, so appending keeps the layout
			o.idx = append(o.idx, mem...)
			o.ptr[k] += len(mem)
			return
		}
		o.insert(k, 0, mem)
		return
	}

	if newPos < o.N() && o.c[newPos] == cNew {
		o.merge(newPos, mem)
		return
	}
	o.insert(newPos, cNew, mem)
}

// remove deletes cluster i from the three arrays
func (o *Clusters) remove(i int) {
	lo, hi := o.ptr[i], o.ptr[i+1]
	sz := hi - lo
	o.idx = append(o.idx[:lo], o.idx[hi:]...)
	o.c = append(o.c[:i], o.c[i+1:]...)
	o.ptr = append(o.ptr[:i+1], o.ptr[i+2:]...)
	for k := i + 1; k < len(o.ptr); k++ {
		o.ptr[k] -= sz
	}
}

// insert places a new cluster with the given magnitude and members at
// position i
func (o *Clusters) insert(i int, m float64, mem []int) {
	at := o.ptr[i]
	o.idx = append(o.idx, mem...) // grow
	copy(o.idx[at+len(mem):], o.idx[at:])
	copy(o.idx[at:at+len(mem)], mem)
	o.c = append(o.c, 0)
	copy(o.c[i+1:], o.c[i:])
	o.c[i] = m
	o.ptr = append(o.ptr, 0)
	copy(o.ptr[i+1:], o.ptr[i:])
	for k := i + 1; k < len(o.ptr); k++ {
		o.ptr[k] += len(mem)
	}
}

// merge appends members to cluster i
func (o *Clusters) merge(i int, mem []int) {
	at := o.ptr[i+1]
	o.idx = append(o.idx, mem...) // grow
	copy(o.idx[at+len(mem):], o.idx[at:])
	copy(o.idx[at:at+len(mem)], mem)
	for k := i + 1; k < len(o.ptr); k++ {
		o.ptr[k] += len(mem)
	}
}

// NumNonzero returns the number of clusters with non-zero magnitude
func (o *Clusters) NumNonzero() (res int) {
	for _, m := range o.c {
		if m > 0 {
			res++
		}
	}
	return
}

// Check verifies the cluster invariant against a coefficient vector:
// strictly descending magnitudes, member indices forming a permutation of
// {0,…,p−1}, and every member matching |βⱼ|
func (o *Clusters) Check(beta []float64) (err error) {
	p := len(beta)
	if len(o.idx) != p {
		return chk.Err(_clusters_err01, len(o.idx), p)
	}
	seen := make([]bool, p)
	for i := 0; i < o.N(); i++ {
		if i > 0 && !(o.c[i] < o.c[i-1]) {
			return chk.Err(_clusters_err02, i, o.c[i-1], o.c[i])
		}
		for _, j := range o.Members(i) {
			if j < 0 || j >= p || seen[j] {
				return chk.Err(_clusters_err03, j)
			}
			seen[j] = true
			if math.Abs(beta[j]) != o.c[i] {
				return chk.Err(_clusters_err04, j, beta[j], o.c[i])
			}
		}
	}
	return
}

// error messages
var (
	_clusters_err01 = "clusters hold %d indices; expected %d\n"
	_clusters_err02 = "cluster magnitudes not strictly descending at %d: %v, %v\n"
	_clusters_err03 = "index %d repeated or out of range\n"
	_clusters_err04 = "member %d has |beta| = %v but cluster magnitude %v\n"
)
