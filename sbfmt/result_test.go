// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbfmt

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFinalize(t *testing.T) {
	b := NewBucket(16384, "4G")
	for _, v := range []struct {
		threads int
		value   float64
	}{{8, 4}, {1, 10}, {8, 6}, {1, 20}, {1, 30}, {4, 7}} {
		b.Add(IOPS, v.threads, v.value)
	}
	b.Finalize()

	want := []Average{{1, 20}, {4, 7}, {8, 5}}
	if diff := cmp.Diff(want, b.Averages[IOPS]); diff != "" {
		t.Errorf("averages (-want +got):\n%s", diff)
	}
	// Finalize must not disturb the raw observations.
	if diff := cmp.Diff([]float64{10, 20, 30}, b.Results[IOPS][1]); diff != "" {
		t.Errorf("observations (-want +got):\n%s", diff)
	}
	// Metrics with no observations have empty averages.
	if got := b.Averages[ReqMin]; got == nil || len(got) != 0 {
		t.Errorf("req_min averages = %#v, want empty", got)
	}
	if len(b.Averages) != len(Metrics) {
		t.Errorf("got %d averaged metrics, want %d", len(b.Averages), len(Metrics))
	}
	if diff := cmp.Diff([]int{1, 4, 8}, b.Threads()); diff != "" {
		t.Errorf("threads (-want +got):\n%s", diff)
	}
	s, ok := b.Summary(IOPS, 1)
	if !ok || s.N != 3 || s.Min != 10 || s.Max != 30 || s.Mean != 20 {
		t.Errorf("Summary(iops, 1) = %+v, %v", s, ok)
	}
	if _, ok := b.Summary(IOPS, 2); ok {
		t.Error("Summary(iops, 2) reported observations")
	}
}

func TestFinalizeExactMean(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3}
	b := NewBucket(16384, "4G")
	sum := 0.0
	for _, v := range values {
		b.Add(ReqAvg, 2, v)
		sum += v
	}
	b.Finalize()

	want := []Average{{2, sum / float64(len(values))}}
	if got := b.Averages[ReqAvg]; !cmp.Equal(want, got) {
		t.Errorf("averages = %v, want %v", got, want)
	}
	if want[0].Mean == 0.2 {
		t.Fatalf("sum over count of %v is exactly 0.2; pick values that round", values)
	}
}

func TestResultsFinalize(t *testing.T) {
	results := make(Results)
	b := NewBucket(4096, "1G")
	b.Add(NRead, 2, 3)
	results.Config("x")["rndrd"] = b
	results.Finalize()
	if diff := cmp.Diff([]Average{{2, 3}}, results["x"]["rndrd"].Averages[NRead]); diff != "" {
		t.Errorf("averages (-want +got):\n%s", diff)
	}
}

func TestModeOrder(t *testing.T) {
	mr := ModeResults{"rndrw": nil, "zzz": nil, "seqwr": nil, "aaa": nil, "rndrd": nil}
	want := []TestMode{"seqwr", "rndrd", "rndrw", "aaa", "zzz"}
	if diff := cmp.Diff(want, mr.Modes()); diff != "" {
		t.Errorf("modes (-want +got):\n%s", diff)
	}
}

func TestAverageJSON(t *testing.T) {
	data, err := json.Marshal([]Average{{1, 2.5}, {16, 100}})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "[[1,2.5],[16,100]]"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	var back []Average
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Average{{1, 2.5}, {16, 100}}, back); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
	if err := json.Unmarshal([]byte("[[1,2,3]]"), &back); err == nil {
		t.Error("decoding a triple succeeded")
	}
}

func TestMetric(t *testing.T) {
	if len(Metrics) != 16 {
		t.Fatalf("got %d metrics, want 16", len(Metrics))
	}
	for _, m := range Metrics {
		back, ok := ParseMetric(m.Key())
		if !ok || back != m {
			t.Errorf("ParseMetric(%q) = %v, %v", m.Key(), back, ok)
		}
	}
	if Metrics[0] != NRead || Metrics[len(Metrics)-1] != NWritePerSec {
		t.Errorf("metrics out of order: %v", Metrics)
	}
	if got := Req95p.Label(); got != "95th percentile latency" {
		t.Errorf("Req95p.Label() = %q", got)
	}
	if _, ok := ParseMetric("bogus"); ok {
		t.Error("ParseMetric(bogus) succeeded")
	}
	if _, err := Metric(99).MarshalText(); err == nil {
		t.Error("MarshalText of an invalid metric succeeded")
	}
}

func TestLabels(t *testing.T) {
	l := DefaultLabels()
	if got := l.Test("rndrw"); got != "Random reads/writes" {
		t.Errorf("Test(rndrw) = %q", got)
	}
	if got := l.Test("custom"); got != "custom" {
		t.Errorf("Test(custom) = %q", got)
	}
	if err := l.Override(map[string]string{"iops": "Requests/s"}, map[string]string{"custom": "Custom mode"}); err != nil {
		t.Fatal(err)
	}
	if got := l.Metric(IOPS); got != "Requests/s" {
		t.Errorf("Metric(iops) = %q after override", got)
	}
	if got := l.Test("custom"); got != "Custom mode" {
		t.Errorf("Test(custom) = %q after override", got)
	}
	if err := l.Override(map[string]string{"bogus": "x"}, nil); err == nil {
		t.Error("overriding an unknown metric succeeded")
	}
	if got := DefaultLabels().Metric(IOPS); got != "IOPS" {
		t.Errorf("DefaultLabels shares state: Metric(iops) = %q", got)
	}
}
