// Copyright 2024 The Sortedl1 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// sortedl1 fits SLOPE regularization paths from a problem file given as a
// JSON document holding the design matrix, the responses, and the options
package main

import (
	"encoding/json"
	"flag"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/jolars/sortedl1/inp"
	"github.com/jolars/sortedl1/solver"
	"github.com/jolars/sortedl1/xmat"
)

// problem holds the content of a problem (.json) file
type problem struct {
	X       [][]float64  `json:"x"`       // design matrix; n × p
	Y       [][]float64  `json:"y"`       // responses; n × m
	Alpha   []float64    `json:"alpha"`   // α sequence; empty => automatic
	Lambda  []float64    `json:"lambda"`  // λ weights; empty => from options
	Options *inp.Options `json:"options"` // fit options; absent keys keep defaults
}

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("ERROR: %v\n", err)
		}
	}()

	// input data
	fnProblem := flag.String("file", "problem.json", "problem file")
	verbose := flag.Bool("verbose", false, "print path summary per step")
	flag.Parse()

	// read problem
	b, err := io.ReadFile(*fnProblem)
	if err != nil {
		chk.Panic("cannot read problem file %q", *fnProblem)
	}
	prob := new(problem)
	prob.Options = inp.NewOptions()
	err = json.Unmarshal(b, prob)
	if err != nil {
		chk.Panic("cannot unmarshal problem file %q:\n%v", *fnProblem, err)
	}
	if *verbose && prob.Options.PrintLevel == 0 {
		prob.Options.PrintLevel = 1
	}

	// assemble model
	x, err := xmat.NewDense(prob.X)
	if err != nil {
		chk.Panic("invalid design matrix:\n%v", err)
	}
	mdl, err := solver.NewSlope(prob.Options)
	if err != nil {
		chk.Panic("invalid options:\n%v", err)
	}

	// fit path
	res, err := mdl.Path(x, prob.Y, prob.Alpha, prob.Lambda)
	if err != nil {
		chk.Panic("fit failed:\n%v", err)
	}

	// print summary
	io.Pf("%8s%14s%12s%10s%10s\n", "step", "alpha", "dev.ratio", "nonzero", "passes")
	for k := 0; k < res.NumSteps(); k++ {
		io.Pf("%8d%14.6g%12.4f%10d%10d\n", k, res.Alphas[k], res.DevRatios[k], res.NumNonzero[k], res.Passes[k])
	}
	if res.Truncated {
		io.Pfyel("path truncated after %d steps due to a numerical issue\n", res.NumSteps())
	}
	io.Pf("total passes = %d\n", res.ItTotal)
}
