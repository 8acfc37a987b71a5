// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbfmt

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/perfkit/sbperf/sbmath"
)

// Results maps a configuration name to the results collected for that
// configuration.
type Results map[string]ModeResults

// Config returns the ModeResults of the named configuration, creating
// an empty one if needed.
func (r Results) Config(name string) ModeResults {
	mr, ok := r[name]
	if !ok {
		mr = make(ModeResults)
		r[name] = mr
	}
	return mr
}

// ConfigNames returns the configuration names in r in sorted order.
func (r Results) ConfigNames() []string {
	names := lo.Keys(r)
	sort.Strings(names)
	return names
}

// Finalize computes the averages of every bucket in r.
func (r Results) Finalize() {
	for _, mr := range r {
		for _, b := range mr {
			b.Finalize()
		}
	}
}

// ModeResults maps a test mode to its bucket within one configuration.
type ModeResults map[TestMode]*Bucket

// Modes returns the test modes in mr. Known modes come first, in the
// order of TestModes, followed by any others in sorted order.
func (mr ModeResults) Modes() []TestMode {
	var modes []TestMode
	for _, mode := range TestModes {
		if _, ok := mr[mode]; ok {
			modes = append(modes, mode)
		}
	}
	var extra []TestMode
	for mode := range mr {
		if _, ok := testModeLabels[mode]; !ok {
			extra = append(extra, mode)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(modes, extra...)
}

// A Bucket holds every observation of one test mode within one
// configuration.
type Bucket struct {
	// BlockSize is the --file-block-size of every contributing run.
	BlockSize int64 `json:"block_size"`

	// TotalSize is the --file-total-size of every contributing
	// run, exactly as given on the command line (e.g., "4G").
	TotalSize string `json:"total_size"`

	// Results holds the raw observations of each metric. Every
	// Metric has an entry, even if nothing was recorded for it.
	Results map[Metric]Observations `json:"results"`

	// Averages holds, for each metric, the mean observation at
	// each thread count in ascending thread order. It is nil
	// until Finalize is called.
	Averages map[Metric][]Average `json:"averages,omitempty"`
}

// NewBucket returns an empty Bucket for runs with the given block and
// total sizes.
func NewBucket(blockSize int64, totalSize string) *Bucket {
	b := &Bucket{
		BlockSize: blockSize,
		TotalSize: totalSize,
		Results:   make(map[Metric]Observations, numMetrics),
	}
	for _, m := range Metrics {
		b.Results[m] = make(Observations)
	}
	return b
}

// Add appends value to the observations of m at threads.
func (b *Bucket) Add(m Metric, threads int, value float64) {
	obs := b.Results[m]
	obs[threads] = append(obs[threads], value)
}

// Finalize computes b.Averages from b.Results. Observations are not
// modified.
func (b *Bucket) Finalize() {
	b.Averages = make(map[Metric][]Average, len(b.Results))
	for m, obs := range b.Results {
		avgs := make([]Average, 0, len(obs))
		for _, threads := range obs.Threads() {
			avgs = append(avgs, Average{threads, sbmath.Mean(obs[threads])})
		}
		b.Averages[m] = avgs
	}
}

// Threads returns the thread counts observed for any metric in b, in
// ascending order.
func (b *Bucket) Threads() []int {
	seen := make(map[int]bool)
	for _, obs := range b.Results {
		for threads := range obs {
			seen[threads] = true
		}
	}
	threads := lo.Keys(seen)
	sort.Ints(threads)
	return threads
}

// Summary summarizes the observations of m at threads. ok is false if
// nothing was recorded.
func (b *Bucket) Summary(m Metric, threads int) (s sbmath.Summary, ok bool) {
	values := b.Results[m][threads]
	if len(values) == 0 {
		return s, false
	}
	return sbmath.Summarize(values), true
}

// Observations maps a thread count to the values observed at that
// thread count, in the order they were read.
type Observations map[int][]float64

// Threads returns the thread counts in o in ascending order.
func (o Observations) Threads() []int {
	threads := lo.Keys(o)
	sort.Ints(threads)
	return threads
}

// An Average is the mean of the observations of a metric at one
// thread count. It is encoded in JSON as a [threads, mean] pair.
type Average struct {
	Threads int
	Mean    float64
}

func (a Average) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{a.Threads, a.Mean})
}

func (a *Average) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("average must be a [threads, mean] pair, got %d elements", len(pair))
	}
	a.Threads, a.Mean = int(pair[0]), pair[1]
	return nil
}
