// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbfmt

import (
	"bytes"
	"encoding/json"
	"io"
)

// WriteJS writes results and labels as a JavaScript file defining the
// TESTS, METRICS and results globals:
//
//	TESTS = {"rndrd": "Random reads", ...};
//	METRICS = {
//	  "nread": "Number of reads",
//	  ...
//	};
//	results = {"config": {"rndrd": {"block_size": ..., ...}}};
//
// METRICS lists the metrics in presentation order. results must have
// been finalized for the averages to be present.
func WriteJS(w io.Writer, results Results, labels *Labels) error {
	var buf bytes.Buffer
	tests, err := json.MarshalIndent(labels.Tests, "", "  ")
	if err != nil {
		return err
	}
	buf.WriteString("TESTS = ")
	buf.Write(tests)
	buf.WriteString(";\nMETRICS = {\n")
	for i, m := range Metrics {
		if i > 0 {
			buf.WriteByte('\n')
		}
		key, _ := json.Marshal(m.Key())
		label, err := json.Marshal(labels.Metric(m))
		if err != nil {
			return err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(label)
		buf.WriteByte(',')
	}
	buf.WriteString("\n};\nresults = ")
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	buf.Write(data)
	buf.WriteString(";")
	_, err = w.Write(buf.Bytes())
	return err
}

// A Document is the JSON encoding of a set of results together with
// their labels.
type Document struct {
	Tests   map[TestMode]string `json:"tests"`
	Metrics []MetricLabel       `json:"metrics"`
	Results Results             `json:"results"`
}

// A MetricLabel pairs a metric key with its label.
type MetricLabel struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// NewDocument returns the Document for results and labels.
func NewDocument(results Results, labels *Labels) *Document {
	doc := &Document{Tests: labels.Tests, Results: results}
	for _, m := range Metrics {
		doc.Metrics = append(doc.Metrics, MetricLabel{m.Key(), labels.Metric(m)})
	}
	return doc
}

// WriteJSON writes results and labels as a single indented JSON
// Document.
func WriteJSON(w io.Writer, results Results, labels *Labels) error {
	data, err := json.MarshalIndent(NewDocument(results, labels), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
