// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xmat

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Sparse implements Matrix for column-compressed storage. It is built from
// triplet (COO) data and additionally keeps a la.CCMatrix so that whole-matrix
// products can go through the sparse kernels in gosl/la.
type Sparse struct {
	n, p int       // dimensions
	ptr  []int     // column pointers; len p+1
	row  []int     // row index per stored entry
	val  []float64 // value per stored entry

	// triplet data kept for row subsetting (cross-validation folds)
	ti []int
	tj []int
	tx []float64

	cc *la.CCMatrix // compressed form for MulVec / TrMulVecAdd
}

// NewSparse returns a sparse design matrix from triplet data. Duplicate
// (i,j) entries are summed.
func NewSparse(n, p int, rows, cols []int, vals []float64) (o *Sparse, err error) {
	if n < 1 || p < 1 {
		return nil, chk.Err(_sparse_err01, n, p)
	}
	if len(rows) != len(vals) || len(cols) != len(vals) {
		return nil, chk.Err(_sparse_err02, len(rows), len(cols), len(vals))
	}
	for k := range vals {
		if rows[k] < 0 || rows[k] >= n || cols[k] < 0 || cols[k] >= p {
			return nil, chk.Err(_sparse_err03, rows[k], cols[k], n, p)
		}
	}

	o = new(Sparse)
	o.n, o.p = n, p
	o.ti = append(o.ti, rows...)
	o.tj = append(o.tj, cols...)
	o.tx = append(o.tx, vals...)
	o.build()
	return
}

// build assembles the column-compressed arrays and the la.CCMatrix
func (o *Sparse) build() {

	// order entries by column, then row
	nnz := len(o.tx)
	ord := make([]int, nnz)
	for k := 0; k < nnz; k++ {
		ord[k] = k
	}
	sort.Slice(ord, func(a, b int) bool {
		ka, kb := ord[a], ord[b]
		if o.tj[ka] != o.tj[kb] {
			return o.tj[ka] < o.tj[kb]
		}
		return o.ti[ka] < o.ti[kb]
	})

	o.ptr = make([]int, o.p+1)
	o.row = make([]int, 0, nnz)
	o.val = make([]float64, 0, nnz)
	for _, k := range ord {
		o.row = append(o.row, o.ti[k])
		o.val = append(o.val, o.tx[k])
		o.ptr[o.tj[k]+1]++
	}
	for j := 0; j < o.p; j++ {
		o.ptr[j+1] += o.ptr[j]
	}

	// merge duplicates within each column
	o.mergeDuplicates()

	if len(o.val) == 0 {
		// all-zero matrix: keep one explicit zero so the compressed form and
		// the column pointers stay valid
		o.row = []int{0}
		o.val = []float64{0}
		for j := 0; j < o.p; j++ {
			o.ptr[j+1] = 1
		}
	}

	// compressed form for whole-matrix products
	t := new(la.Triplet)
	t.Init(o.n, o.p, len(o.val))
	for j := 0; j < o.p; j++ {
		for k := o.ptr[j]; k < o.ptr[j+1]; k++ {
			t.Put(o.row[k], j, o.val[k])
		}
	}
	o.cc = t.ToMatrix(nil)
}

// mergeDuplicates sums repeated (i,j) entries in place
func (o *Sparse) mergeDuplicates() {
	newRow := make([]int, 0, len(o.row))
	newVal := make([]float64, 0, len(o.val))
	newPtr := make([]int, o.p+1)
	for j := 0; j < o.p; j++ {
		start := len(newRow)
		for k := o.ptr[j]; k < o.ptr[j+1]; k++ {
			m := len(newRow)
			if m > start && newRow[m-1] == o.row[k] {
				newVal[m-1] += o.val[k]
			} else {
				newRow = append(newRow, o.row[k])
				newVal = append(newVal, o.val[k])
			}
		}
		newPtr[j+1] = len(newRow)
	}
	o.row, o.val, o.ptr = newRow, newVal, newPtr
}

// Nrows returns the number of rows
func (o *Sparse) Nrows() int { return o.n }

// Ncols returns the number of columns
func (o *Sparse) Ncols() int { return o.p }

// ColDot returns xⱼ · v
func (o *Sparse) ColDot(j int, v []float64) (res float64) {
	for k := o.ptr[j]; k < o.ptr[j+1]; k++ {
		res += o.val[k] * v[o.row[k]]
	}
	return
}

// ColDot2 returns Σᵢ x[i][j]·u[i]·v[i]
func (o *Sparse) ColDot2(j int, u, v []float64) (res float64) {
	for k := o.ptr[j]; k < o.ptr[j+1]; k++ {
		i := o.row[k]
		res += o.val[k] * u[i] * v[i]
	}
	return
}

// ColSqDot returns Σᵢ x[i][j]²·v[i]
func (o *Sparse) ColSqDot(j int, v []float64) (res float64) {
	for k := o.ptr[j]; k < o.ptr[j+1]; k++ {
		res += o.val[k] * o.val[k] * v[o.row[k]]
	}
	return
}

// ColAxpy adds a·xⱼ to res
func (o *Sparse) ColAxpy(j int, a float64, res []float64) {
	for k := o.ptr[j]; k < o.ptr[j+1]; k++ {
		res[o.row[k]] += a * o.val[k]
	}
}

// MulVec computes res = X·b
func (o *Sparse) MulVec(res []float64, b []float64) {
	la.VecFill(res, 0)
	la.SpMatVecMulAdd(res, 1, o.cc, b)
}

// TrMulVecAdd adds a·Xᵀ·v to res
func (o *Sparse) TrMulVecAdd(res []float64, a float64, v []float64) {
	la.SpMatTrVecMulAdd(res, a, o.cc, v)
}

// Rows returns a new sparse matrix holding the given subset of rows, in order
func (o *Sparse) Rows(idx []int) (res *Sparse) {
	newpos := make([]int, o.n)
	for i := range newpos {
		newpos[i] = -1
	}
	for k, i := range idx {
		newpos[i] = k
	}
	var ri, rj []int
	var rx []float64
	for k := range o.tx {
		if newpos[o.ti[k]] >= 0 {
			ri = append(ri, newpos[o.ti[k]])
			rj = append(rj, o.tj[k])
			rx = append(rx, o.tx[k])
		}
	}
	res = new(Sparse)
	res.n, res.p = len(idx), o.p
	res.ti, res.tj, res.tx = ri, rj, rx
	res.build()
	return
}

// SubRows returns the subset of rows given by idx as a Matrix
func (o *Sparse) SubRows(idx []int) Matrix {
	return o.Rows(idx)
}

// error messages
var (
	_sparse_err01 = "invalid sparse matrix dimensions: %d × %d\n"
	_sparse_err02 = "triplet slices have inconsistent lengths: %d, %d, %d\n"
	_sparse_err03 = "triplet entry (%d,%d) outside %d × %d matrix\n"
)
