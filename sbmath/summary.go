// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sbmath computes summary statistics over repeated sysbench
// measurements.
package sbmath

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/mathx"
	"github.com/aclements/go-moremath/stats"
)

// A Summary summarizes the observations of one metric at one thread
// count.
type Summary struct {
	// N is the number of observations.
	N int

	// Mean is the arithmetic mean of the observations.
	Mean float64

	// Min and Max bound the observations.
	Min, Max float64

	// StdDev is the sample standard deviation, or 0 if there are
	// fewer than two observations.
	StdDev float64
}

// Summarize computes a Summary of values. values is not modified.
// The Summary of an empty slice has N == 0 and NaN statistics.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Min: nan, Max: nan, StdDev: nan}
	}
	s := Summary{N: len(values), Mean: Mean(values)}
	s.Min, s.Max = stats.Bounds(values)
	if len(values) >= 2 {
		s.StdDev = stats.StdDev(values)
	}
	return s
}

// Mean returns the arithmetic mean of values, or NaN if values is
// empty. It is the sum of values in order divided by their count.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stats.Sample{Xs: values}.Sum() / float64(len(values))
}

// PctRangeString returns the largest deviation of Min or Max from
// Mean, as a percentage of Mean. It returns "" if the range cannot be
// expressed as a percentage.
func (s Summary) PctRangeString() string {
	if s.N == 0 {
		return ""
	}
	csign := mathx.Sign(s.Mean)
	if csign == 0 {
		if s.Min == 0 && s.Max == 0 {
			return "0%"
		}
		return ""
	}
	if csign != mathx.Sign(s.Min) || csign != mathx.Sign(s.Max) {
		return "?"
	}
	v := math.Max(s.Max/s.Mean-1, 1-s.Min/s.Mean)
	return fmt.Sprintf("%.0f%%", 100*v)
}

// String formats s as "mean ±range".
func (s Summary) String() string {
	if r := s.PctRangeString(); r != "" {
		return fmt.Sprintf("%v ±%s", s.Mean, r)
	}
	return fmt.Sprint(s.Mean)
}
