// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sbstat summarizes aggregated sysbench results as tables of
// per-thread-count statistics and formats them as text, CSV or HTML.
package sbstat

import (
	"fmt"

	"code.cloudfoundry.org/bytefmt"

	"github.com/perfkit/sbperf/sbfmt"
	"github.com/perfkit/sbperf/sbmath"
	"github.com/perfkit/sbperf/sbunit"
)

// A Table summarizes one test mode of one configuration. It has a row
// per metric and a column per thread count.
type Table struct {
	Config    string
	Mode      sbfmt.TestMode
	ModeLabel string
	BlockSize int64
	TotalSize string

	// Threads lists the thread counts of the columns, ascending.
	Threads []int
	Rows    []*Row
}

// Title returns a one-line description of t.
func (t *Table) Title() string {
	return fmt.Sprintf("%s: %s (block size %s, total size %s)",
		t.Config, t.ModeLabel, bytefmt.ByteSize(uint64(t.BlockSize)), t.TotalSize)
}

// A Row holds the statistics of one metric across thread counts.
type Row struct {
	Metric sbfmt.Metric
	Label  string

	// Cells has one entry per Table.Threads.
	Cells []Cell

	// Unit and Scaler are used to display the cells. Unit may
	// differ from the metric's recording unit; Factor converts a
	// recorded value into Unit.
	Unit   string
	Factor float64
	Scaler sbunit.Scaler
}

// A Cell is the summary of the observations at one thread count.
type Cell struct {
	sbmath.Summary
	OK bool // there were observations
}

// Format formats the mean of c and its range using the row's scale.
func (r *Row) Format(c Cell) string {
	if !c.OK {
		return ""
	}
	s := r.Scaler.FormatUnit(c.Mean*r.Factor, r.Unit)
	if rng := c.PctRangeString(); rng != "" && c.N > 1 {
		s += " ±" + rng
	}
	return s
}

// displayUnit returns the unit values of m are displayed in, and the
// factor converting recorded values into it. Latencies are recorded
// in milliseconds but displayed in seconds so that SI prefixes apply.
func displayUnit(m sbfmt.Metric) (string, float64) {
	if m.Unit() == "ms" {
		return "s", 1e-3
	}
	return m.Unit(), 1
}

// Tables builds the tables of every configuration and test mode in
// results, ordered by configuration name and then by test mode. Rows
// without any observations are omitted.
func Tables(results sbfmt.Results, labels *sbfmt.Labels) []*Table {
	var tables []*Table
	for _, config := range results.ConfigNames() {
		mr := results[config]
		for _, mode := range mr.Modes() {
			tables = append(tables, newTable(config, mode, mr[mode], labels))
		}
	}
	return tables
}

func newTable(config string, mode sbfmt.TestMode, b *sbfmt.Bucket, labels *sbfmt.Labels) *Table {
	t := &Table{
		Config:    config,
		Mode:      mode,
		ModeLabel: labels.Test(mode),
		BlockSize: b.BlockSize,
		TotalSize: b.TotalSize,
		Threads:   b.Threads(),
	}
	for _, m := range sbfmt.Metrics {
		unit, factor := displayUnit(m)
		row := &Row{Metric: m, Label: labels.Metric(m), Unit: unit, Factor: factor}
		var means []float64
		for _, threads := range t.Threads {
			s, ok := b.Summary(m, threads)
			row.Cells = append(row.Cells, Cell{s, ok})
			if ok {
				means = append(means, s.Mean*factor)
			}
		}
		if len(means) == 0 {
			continue
		}
		row.Scaler = sbunit.CommonScale(means, m.Class())
		t.Rows = append(t.Rows, row)
	}
	return t
}
