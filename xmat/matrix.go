// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package xmat implements storage for design matrices (dense and sparse) and
// the column operations required by the SLOPE solver
package xmat

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Matrix defines the operations the solver needs from a design matrix. Both
// dense and sparse storage implement this interface; the solver never touches
// entries directly.
type Matrix interface {
	Nrows() int                                     // number of rows (observations)
	Ncols() int                                     // number of columns (predictors)
	ColDot(j int, v []float64) (res float64)        // returns xⱼ · v
	ColDot2(j int, u, v []float64) (res float64)    // returns Σᵢ x[i][j]·u[i]·v[i]
	ColSqDot(j int, v []float64) (res float64)      // returns Σᵢ x[i][j]²·v[i]
	ColAxpy(j int, a float64, res []float64)        // res += a · xⱼ
	MulVec(res []float64, b []float64)              // res = X·b
	TrMulVecAdd(res []float64, a float64, v []float64) // res += a · Xᵀ·v
}

// Subsettable is a design matrix that can hand out row subsets;
// cross-validation uses it to carve train and test folds
type Subsettable interface {
	Matrix
	SubRows(idx []int) Matrix // returns the subset of rows given by idx, in order
}

// Dense implements Matrix for dense row-major storage
type Dense struct {
	n, p int         // dimensions
	a    [][]float64 // [n][p] values
}

// NewDense returns a dense design matrix wrapping a. The slice is shared, not
// copied; callers must not modify it during a fit.
func NewDense(a [][]float64) (o *Dense, err error) {
	n := len(a)
	if n < 1 {
		return nil, chk.Err(_matrix_err01)
	}
	p := len(a[0])
	for i := 1; i < n; i++ {
		if len(a[i]) != p {
			return nil, chk.Err(_matrix_err02, i, len(a[i]), p)
		}
	}
	o = new(Dense)
	o.n, o.p = n, p
	o.a = a
	return
}

// Nrows returns the number of rows
func (o *Dense) Nrows() int { return o.n }

// Ncols returns the number of columns
func (o *Dense) Ncols() int { return o.p }

// ColDot returns xⱼ · v
func (o *Dense) ColDot(j int, v []float64) (res float64) {
	for i := 0; i < o.n; i++ {
		res += o.a[i][j] * v[i]
	}
	return
}

// ColDot2 returns Σᵢ x[i][j]·u[i]·v[i]
func (o *Dense) ColDot2(j int, u, v []float64) (res float64) {
	for i := 0; i < o.n; i++ {
		res += o.a[i][j] * u[i] * v[i]
	}
	return
}

// ColSqDot returns Σᵢ x[i][j]²·v[i]
func (o *Dense) ColSqDot(j int, v []float64) (res float64) {
	for i := 0; i < o.n; i++ {
		res += o.a[i][j] * o.a[i][j] * v[i]
	}
	return
}

// ColAxpy adds a·xⱼ to res
func (o *Dense) ColAxpy(j int, a float64, res []float64) {
	for i := 0; i < o.n; i++ {
		res[i] += a * o.a[i][j]
	}
}

// MulVec computes res = X·b
func (o *Dense) MulVec(res []float64, b []float64) {
	la.MatVecMul(res, 1, o.a, b)
}

// TrMulVecAdd adds a·Xᵀ·v to res
func (o *Dense) TrMulVecAdd(res []float64, a float64, v []float64) {
	la.MatTrVecMulAdd(res, a, o.a, v)
}

// Rows returns a new dense matrix holding the given subset of rows, in order.
// Rows are shared with the parent matrix.
func (o *Dense) Rows(idx []int) (res *Dense) {
	res = new(Dense)
	res.n, res.p = len(idx), o.p
	res.a = make([][]float64, len(idx))
	for k, i := range idx {
		res.a[k] = o.a[i]
	}
	return
}

// SubRows returns the subset of rows given by idx as a Matrix
func (o *Dense) SubRows(idx []int) Matrix {
	return o.Rows(idx)
}

// error messages
var (
	_matrix_err01 = "design matrix must have at least one row\n"
	_matrix_err02 = "row %d has %d entries; expected %d\n"
)
