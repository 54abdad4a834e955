// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package cv implements k-fold cross-validation of SLOPE fits over a
// hyperparameter grid. Tasks are independent (fold × combination) pairs and
// run as a fork-join over goroutines; each task owns a private model clone
// and writes into its own row of the result tensor.
package cv

import (
	"math"
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
	"gonum.org/v1/gonum/stat"

	"github.com/jolars/sortedl1/inp"
	"github.com/jolars/sortedl1/loss"
	"github.com/jolars/sortedl1/solver"
	"github.com/jolars/sortedl1/xmat"
)

// Result holds the output of a cross-validation run
type Result struct {
	BestScore      float64              // best mean score over the whole grid
	BestCombo      int                  // index of the best hyperparameter combination
	BestAlphaIndex int                  // index of the best α within the best combination
	Metric         string               // metric the scores refer to
	Scores         [][][]float64        // raw scores; [combo][fold][alpha]
	Means          [][]float64          // fold means; [combo][alpha]
	StdErrs        [][]float64          // fold standard errors; [combo][alpha]
	Alphas         [][]float64          // α grid per combination
	Params         []map[string]float64 // hyperparameter values per combination
}

// Run cross-validates a SLOPE model. Empty alphas means "generate the grid
// per combination from the full data"; empty lam means "generate from the
// configured λ type". Folds come from cvo.Folds when given, otherwise rows
// are assigned round-robin to cvo.NumFolds folds.
func Run(opts *inp.Options, cvo *inp.CvOptions, x xmat.Subsettable, y [][]float64, alphas, lam []float64) (res *Result, err error) {

	err = opts.Validate()
	if err != nil {
		return
	}
	err = cvo.Validate()
	if err != nil {
		return
	}
	n := x.Nrows()
	if len(y) != n {
		return nil, chk.Err(_cv_err01, len(y), n)
	}

	folds, err := makeFolds(cvo, n)
	if err != nil {
		return
	}
	nfolds := len(folds)

	// expand the hyperparameter grid; absent lists fall back to the values
	// in opts so that a plain CV over folds is one combination
	qs := cvo.HyperParams["q"]
	if len(qs) == 0 {
		qs = []float64{opts.Q}
	}
	gammas := cvo.HyperParams["gamma"]
	if len(gammas) == 0 {
		gammas = []float64{opts.Gamma}
	}
	ncombo := len(qs) * len(gammas)

	res = new(Result)
	res.Metric = cvo.Metric
	res.Scores = make([][][]float64, ncombo)
	res.Means = make([][]float64, ncombo)
	res.StdErrs = make([][]float64, ncombo)
	res.Alphas = make([][]float64, ncombo)
	res.Params = make([]map[string]float64, ncombo)

	// fix the α grid per combination up front so that score vectors align
	// across folds
	comboOpts := make([]*inp.Options, ncombo)
	ci := 0
	for _, q := range qs {
		for _, gamma := range gammas {
			co := opts.GetCopy()
			co.Q = q
			co.Gamma = gamma
			comboOpts[ci] = co
			res.Params[ci] = map[string]float64{"q": q, "gamma": gamma}
			if len(alphas) > 0 {
				res.Alphas[ci] = append([]float64{}, alphas...)
			} else {
				mdl, e := solver.NewSlope(co)
				if e != nil {
					return nil, e
				}
				res.Alphas[ci], e = mdl.AlphaSequence(x, y, lam)
				if e != nil {
					return nil, e
				}
			}
			res.Scores[ci] = make([][]float64, nfolds)
			ci++
		}
	}

	// fork-join over (combination, fold) tasks
	var wg sync.WaitGroup
	errs := make([]error, ncombo*nfolds)
	for ci := 0; ci < ncombo; ci++ {
		for fi := 0; fi < nfolds; fi++ {
			wg.Add(1)
			go func(ci, fi int) {
				defer wg.Done()
				scores, e := runFold(comboOpts[ci], cvo.Metric, x, y, res.Alphas[ci], lam, folds[fi])
				res.Scores[ci][fi] = scores
				errs[ci*nfolds+fi] = e
			}(ci, fi)
		}
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}

	// reduce across folds and locate the best (combination, α) pair
	minimize := LossLike(cvo.Metric)
	res.BestScore = math.Inf(1)
	if !minimize {
		res.BestScore = math.Inf(-1)
	}
	tmp := make([]float64, nfolds)
	for ci := 0; ci < ncombo; ci++ {
		nalpha := len(res.Alphas[ci])
		res.Means[ci] = make([]float64, nalpha)
		res.StdErrs[ci] = make([]float64, nalpha)
		for k := 0; k < nalpha; k++ {
			for fi := 0; fi < nfolds; fi++ {
				tmp[fi] = res.Scores[ci][fi][k]
			}
			mean := stat.Mean(tmp, nil)
			res.Means[ci][k] = mean
			res.StdErrs[ci][k] = stat.StdDev(tmp, nil) / math.Sqrt(float64(nfolds))
			better := mean < res.BestScore
			if !minimize {
				better = mean > res.BestScore
			}
			if better {
				res.BestScore = mean
				res.BestCombo = ci
				res.BestAlphaIndex = k
			}
		}
	}
	return
}

// runFold fits the path on the train split and scores every α on the test
// split. Steps missing after a truncated path score as the worst value.
func runFold(opts *inp.Options, metric string, x xmat.Subsettable, y [][]float64, alphas, lam []float64, fold *inp.FoldIndices) (scores []float64, err error) {

	mdl, err := solver.NewSlope(opts)
	if err != nil {
		return
	}
	lossModel, err := loss.New(opts.Loss)
	if err != nil {
		return
	}

	xtr := x.SubRows(fold.Train)
	ytr := subsetRows(y, fold.Train)
	fit, err := mdl.Path(xtr, ytr, alphas, lam)
	if err != nil {
		return
	}

	xte := x.SubRows(fold.Test)
	nte := len(fold.Test)
	m := len(y[0])
	eta := make([]float64, nte)
	b := make([]float64, x.Ncols())
	ycol := make([]float64, nte)

	worst := math.Inf(1)
	if !LossLike(metric) {
		worst = math.Inf(-1)
	}
	scores = make([]float64, len(alphas))
	for k := range scores {
		scores[k] = worst
	}

	for k := 0; k < fit.NumSteps(); k++ {
		total := 0.0
		for r := 0; r < m; r++ {
			for j := range b {
				b[j] = fit.Betas[k][j][r]
			}
			xte.MulVec(eta, b)
			for i := 0; i < nte; i++ {
				eta[i] += fit.Beta0s[k][r]
			}
			for i, row := range fold.Test {
				ycol[i] = y[row][r]
			}
			total += score(metric, lossModel, eta, ycol)
		}
		scores[k] = total / float64(m)
	}
	return
}

// makeFolds returns the predefined splits or builds a deterministic
// round-robin assignment of rows to folds
func makeFolds(cvo *inp.CvOptions, n int) (folds []*inp.FoldIndices, err error) {

	if len(cvo.Folds) > 0 {
		for fi, f := range cvo.Folds {
			if len(f.Test) == 0 || len(f.Train) == 0 {
				return nil, chk.Err(_cv_err02, fi)
			}
			for _, i := range append(append([]int{}, f.Train...), f.Test...) {
				if i < 0 || i >= n {
					return nil, chk.Err(_cv_err03, i, fi, n)
				}
			}
		}
		return cvo.Folds, nil
	}

	k := cvo.NumFolds
	if k > n {
		return nil, chk.Err(_cv_err04, k, n)
	}
	folds = make([]*inp.FoldIndices, k)
	all := utl.IntRange(n)
	for fi := 0; fi < k; fi++ {
		f := new(inp.FoldIndices)
		for _, i := range all {
			if i%k == fi {
				f.Test = append(f.Test, i)
			} else {
				f.Train = append(f.Train, i)
			}
		}
		folds[fi] = f
	}
	return
}

// subsetRows extracts a row subset of a response matrix
func subsetRows(y [][]float64, idx []int) (res [][]float64) {
	res = make([][]float64, len(idx))
	for k, i := range idx {
		res[k] = y[i]
	}
	return
}

// error messages
var (
	_cv_err01 = "y has %d rows but x has %d\n"
	_cv_err02 = "fold %d has an empty train or test split\n"
	_cv_err03 = "index %d in fold %d is outside the %d observations\n"
	_cv_err04 = "nfolds = %d exceeds the number of observations (%d)\n"
)
