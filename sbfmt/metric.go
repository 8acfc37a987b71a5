// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbfmt

import (
	"fmt"

	"github.com/perfkit/sbperf/sbunit"
)

// A Metric is one kind of measurement extracted from a sysbench fileio
// report.
//
// The set of metrics and their order are fixed; Metrics lists them in
// presentation order.
type Metric int

const (
	NRead Metric = iota
	NWrite
	NOther
	NTotal
	ReadBytes
	WriteBytes
	TotalBytes
	Throughput
	IOPS
	TotalNumEvents
	ReqMin
	ReqAvg
	ReqMax
	Req95p
	// Derived metrics.
	NReadPerSec
	NWritePerSec

	numMetrics
)

type metricInfo struct {
	key, label string
	unit       string
	class      sbunit.Class
}

var metricInfos = [numMetrics]metricInfo{
	NRead:          {"nread", "Number of reads", "", sbunit.Decimal},
	NWrite:         {"nwrite", "Number of writes", "", sbunit.Decimal},
	NOther:         {"nother", "Number of other operations", "", sbunit.Decimal},
	NTotal:         {"ntotal", "Total number of operations", "", sbunit.Decimal},
	ReadBytes:      {"readb", "Bytes read", "B", sbunit.Binary},
	WriteBytes:     {"writeb", "Bytes written", "B", sbunit.Binary},
	TotalBytes:     {"totalb", "Total bytes", "B", sbunit.Binary},
	Throughput:     {"throughput", "Throughput", "B/s", sbunit.Binary},
	IOPS:           {"iops", "IOPS", "req/s", sbunit.Decimal},
	TotalNumEvents: {"total_num_events", "Total number of events", "", sbunit.Decimal},
	ReqMin:         {"req_min", "Min. latency", "ms", sbunit.Decimal},
	ReqAvg:         {"req_avg", "Avg. latency", "ms", sbunit.Decimal},
	ReqMax:         {"req_max", "Max. latency", "ms", sbunit.Decimal},
	Req95p:         {"req_95p", "95th percentile latency", "ms", sbunit.Decimal},
	NReadPerSec:    {"nreadps", "Reads/s", "", sbunit.Decimal},
	NWritePerSec:   {"nwriteps", "Writes/s", "", sbunit.Decimal},
}

// Metrics lists every Metric in presentation order.
var Metrics = func() []Metric {
	ms := make([]Metric, numMetrics)
	for i := range ms {
		ms[i] = Metric(i)
	}
	return ms
}()

var metricsByKey = func() map[string]Metric {
	m := make(map[string]Metric, numMetrics)
	for _, metric := range Metrics {
		m[metric.Key()] = metric
	}
	return m
}()

func (m Metric) valid() bool {
	return 0 <= m && m < numMetrics
}

// Key returns the stable identifier of m, such as "nread".
func (m Metric) Key() string {
	if !m.valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricInfos[m].key
}

// Label returns the default human-readable description of m.
func (m Metric) Label() string {
	if !m.valid() {
		return m.Key()
	}
	return metricInfos[m].label
}

// Unit returns the unit values of m are recorded in, or "" for plain
// counts and rates.
func (m Metric) Unit() string {
	if !m.valid() {
		return ""
	}
	return metricInfos[m].unit
}

// Class returns the class of unit prefixes used to format values of m.
func (m Metric) Class() sbunit.Class {
	if !m.valid() {
		return sbunit.Decimal
	}
	return metricInfos[m].class
}

func (m Metric) String() string {
	return m.Key()
}

// MarshalText encodes m as its key. This makes Metric usable as a
// JSON object key.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("invalid metric %d", int(m))
	}
	return []byte(m.Key()), nil
}

// UnmarshalText decodes a metric key.
func (m *Metric) UnmarshalText(text []byte) error {
	metric, ok := ParseMetric(string(text))
	if !ok {
		return fmt.Errorf("unknown metric %q", text)
	}
	*m = metric
	return nil
}

// ParseMetric returns the Metric with the given key.
func ParseMetric(key string) (Metric, bool) {
	m, ok := metricsByKey[key]
	return m, ok
}

// A TestMode is the value of sysbench's --file-test-mode option, such
// as "rndrd".
type TestMode string

// TestModes lists the test modes sysbench knows about, in
// presentation order. Reports may name other modes; those are
// accepted as-is.
var TestModes = []TestMode{"seqwr", "seqrewr", "seqrd", "rndrd", "rndwr", "rndrw"}

var testModeLabels = map[TestMode]string{
	"seqwr":   "Sequential writes",
	"seqrewr": "Sequential rewrites",
	"seqrd":   "Sequential reads",
	"rndrd":   "Random reads",
	"rndwr":   "Random writes",
	"rndrw":   "Random reads/writes",
}

// Label returns the default human-readable description of m. Unknown
// modes are labeled with their own name.
func (m TestMode) Label() string {
	if l, ok := testModeLabels[m]; ok {
		return l
	}
	return string(m)
}

// Labels holds the presentation labels that accompany results.
//
// The zero value is not useful; use DefaultLabels.
type Labels struct {
	Metrics map[Metric]string
	Tests   map[TestMode]string
}

// DefaultLabels returns a fresh copy of the built-in labels.
func DefaultLabels() *Labels {
	l := &Labels{
		Metrics: make(map[Metric]string, numMetrics),
		Tests:   make(map[TestMode]string, len(testModeLabels)),
	}
	for _, m := range Metrics {
		l.Metrics[m] = m.Label()
	}
	for mode, label := range testModeLabels {
		l.Tests[mode] = label
	}
	return l
}

// Metric returns the label of m.
func (l *Labels) Metric(m Metric) string {
	if s, ok := l.Metrics[m]; ok {
		return s
	}
	return m.Label()
}

// Test returns the label of mode.
func (l *Labels) Test(mode TestMode) string {
	if s, ok := l.Tests[mode]; ok {
		return s
	}
	return mode.Label()
}

// Override replaces labels using keyed string maps, as read from a
// configuration file. It reports an error for unknown metric keys.
func (l *Labels) Override(metrics, tests map[string]string) error {
	for key, label := range metrics {
		m, ok := ParseMetric(key)
		if !ok {
			return fmt.Errorf("unknown metric %q", key)
		}
		l.Metrics[m] = label
	}
	for mode, label := range tests {
		l.Tests[TestMode(mode)] = label
	}
	return nil
}
