// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/perfkit/sbperf/internal/diff"
	"github.com/perfkit/sbperf/sbfmt"
	"github.com/perfkit/sbperf/storage/db"
)

// run runs sbstat in the testdata directory and returns its exit
// status, standard output and standard error.
func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	if err := os.Chdir("testdata"); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir("..")

	t.Logf("sbstat %s", strings.Join(args, " "))
	var stdout, stderr bytes.Buffer
	code := sbstatMain(&stdout, &stderr, args)
	return code, stdout.String(), stderr.String()
}

func golden(t *testing.T, name string, wantCode int, args ...string) {
	t.Helper()
	code, stdout, stderr := run(t, args...)
	if code != wantCode {
		t.Errorf("exit status %d, want %d; stderr:\n%s", code, wantCode, stderr)
	}
	compare(t, name, "stdout", stdout)
	compare(t, name, "stderr", stderr)
}

func compare(t *testing.T, name, sub, got string) {
	t.Helper()
	want, err := os.ReadFile(filepath.Join("testdata", name+"."+sub))
	if err != nil {
		if !os.IsNotExist(err) {
			t.Fatal(err)
		}
		// Treat a missing file as empty.
		want = nil
	}
	if d := diff.Diff(string(want), got); d != "" {
		t.Errorf("%s %s differs:\n%s", name, sub, d)
		gotPath := filepath.Join("testdata", name+".got-"+sub)
		if err := os.WriteFile(gotPath, []byte(got), 0666); err != nil {
			t.Fatalf("error writing %s: %s", gotPath, err)
		}
	}
}

func TestCSV(t *testing.T) {
	golden(t, "seqwrCSV", 0, "-o", "-", "-format", "csv", "hdd/seqwr.log")
}

func TestNoFiles(t *testing.T) {
	code, stdout, stderr := run(t, "-o", "-")
	if code != exitUsage {
		t.Errorf("exit status %d, want %d", code, exitUsage)
	}
	if stdout != "" {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if !strings.HasPrefix(stderr, "sbstat: no input files\nUsage: sbstat [flags] file...\n") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestNoConfig(t *testing.T) {
	// The configuration name is checked before any file is read,
	// so the readable file is not processed either.
	golden(t, "noConfig", exitNoConfig, "-o", "-", "hdd/seqwr.log", "seqwr.log")
}

func TestNoConfigCurrentDir(t *testing.T) {
	// A file in the current directory has no configuration name,
	// even when written with a leading "./".
	code, stdout, stderr := run(t, "-o", "-", "./seqwr.log")
	if code != exitNoConfig {
		t.Errorf("exit status %d, want %d", code, exitNoConfig)
	}
	if stdout != "" {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if want := "sbstat: ./seqwr.log needs to be in a directory named after the config name\n"; stderr != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}
}

func TestLabels(t *testing.T) {
	code, stdout, stderr := run(t, "-o", "-", "-format", "csv", "-labels", "fast=ssd/rndrd.log", "hdd/seqwr.log")
	if code != 0 {
		t.Fatalf("exit status %d; stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "\nfast,rndrd,iops,1,") || !strings.Contains(stdout, "\nhdd,seqwr,") {
		t.Errorf("output lacks fast and hdd rows:\n%s", stdout)
	}
	if strings.Contains(stdout, "\nssd,") {
		t.Errorf("labeled file also reported under its directory:\n%s", stdout)
	}

	// Without -labels, "fast=ssd/rndrd.log" is a path in directory
	// "fast=ssd", which does not exist.
	if code, _, _ := run(t, "-o", "-", "fast=ssd/rndrd.log"); code != exitFailure {
		t.Errorf("without -labels: exit status %d, want %d", code, exitFailure)
	}
}

func TestBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-format", "xml", "hdd/seqwr.log"},
		{"-db", "results.db", "hdd/seqwr.log"},
		{"-gcs", "s3://bucket", "hdd/seqwr.log"},
		{"-nosuchflag", "hdd/seqwr.log"},
		{"-config", "missing.yaml", "hdd/seqwr.log"},
	} {
		if code, _, _ := run(t, args...); code != exitUsage {
			t.Errorf("sbstat %s: exit status %d, want %d", strings.Join(args, " "), code, exitUsage)
		}
	}
}

func TestParseError(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.js")
	code, _, stderr := run(t, "-o", out, "ssd/rndrd.log", "hdd/rndrd-bad.log")
	if code != exitFailure {
		t.Errorf("exit status %d, want %d", code, exitFailure)
	}
	if !strings.HasPrefix(stderr, "sbstat: hdd/rndrd-bad.log:2: ") || !strings.Contains(stderr, "did not match") {
		t.Errorf("stderr:\n%s", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output written after parse error: %v", err)
	}
}

// readJS splits a results.js file into its TESTS, METRICS and results
// definitions and decodes results.
func readJS(t *testing.T, path string) (sbfmt.Results, string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	js := string(data)
	_, after, ok := strings.Cut(js, "\nresults = ")
	if !ok || !strings.HasPrefix(js, "TESTS = {") {
		t.Fatalf("malformed results.js:\n%s", js)
	}
	var results sbfmt.Results
	if err := json.Unmarshal([]byte(strings.TrimSuffix(after, ";")), &results); err != nil {
		t.Fatal(err)
	}
	return results, js
}

func TestJS(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.js")
	if code, _, stderr := run(t, "-o", out, "ssd/rndrd.log", "hdd/seqwr.log"); code != 0 {
		t.Fatalf("exit status %d; stderr:\n%s", code, stderr)
	}
	results, js := readJS(t, out)
	for _, want := range []string{
		`"rndrd": "Random reads"`,
		"METRICS = {\n  \"nread\": \"Number of reads\",\n  \"nwrite\": \"Number of writes\",",
		"  \"nwriteps\": \"Writes/s\",\n};\n",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("results.js missing %q", want)
		}
	}

	if diff := cmp.Diff([]string{"hdd", "ssd"}, results.ConfigNames()); diff != "" {
		t.Errorf("configs (-want +got):\n%s", diff)
	}
	b := results["ssd"]["rndrd"]
	if b == nil {
		t.Fatal("no ssd rndrd results")
	}
	if b.BlockSize != 16384 || b.TotalSize != "4G" {
		t.Errorf("sizes = %d, %q; want 16384, \"4G\"", b.BlockSize, b.TotalSize)
	}
	wantIOPS := []sbfmt.Average{{Threads: 1, Mean: 333.33}, {Threads: 4, Mean: 666.67}}
	if diff := cmp.Diff(wantIOPS, b.Averages[sbfmt.IOPS]); diff != "" {
		t.Errorf("iops averages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{500}, b.Results[sbfmt.NReadPerSec][4]); diff != "" {
		t.Errorf("nreadps at 4 threads (-want +got):\n%s", diff)
	}
	if got := results["hdd"]["seqwr"].Averages[sbfmt.NWritePerSec]; len(got) != 1 || got[0].Mean != 4096 {
		t.Errorf("hdd seqwr nwriteps averages = %v, want [[1, 4096]]", got)
	}
}

func TestFormatFromExt(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.json")
	if code, _, stderr := run(t, "-o", out, "ssd/rndrd.log"); code != 0 {
		t.Fatalf("exit status %d; stderr:\n%s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc sbfmt.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Metrics) != len(sbfmt.Metrics) || doc.Metrics[0].Key != "nread" {
		t.Errorf("metrics = %v", doc.Metrics)
	}
	if _, ok := doc.Results["ssd"]["rndrd"]; !ok {
		t.Errorf("no ssd rndrd results in %s", data)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "sbstat.yaml")
	err := os.WriteFile(cfg, []byte(`
labels:
  metrics:
    iops: "Requests per second"
output:
  path: "-"
  format: text
`), 0666)
	if err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t, "-config", cfg, "ssd/rndrd.log")
	if code != 0 {
		t.Fatalf("exit status %d; stderr:\n%s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "ssd: Random reads (block size 16K, total size 4G)\n") {
		t.Errorf("stdout:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Requests per second") {
		t.Errorf("configured label missing from:\n%s", stdout)
	}

	// Flags override the file.
	code, stdout, _ = run(t, "-config", cfg, "-format", "csv", "ssd/rndrd.log")
	if code != 0 {
		t.Fatalf("exit status %d", code)
	}
	if !strings.HasPrefix(stdout, "config,mode,metric,") {
		t.Errorf("stdout:\n%s", stdout)
	}
}

func TestHTML(t *testing.T) {
	code, stdout, _ := run(t, "-o", "-", "-format", "html", "ssd/rndrd.log")
	if code != 0 {
		t.Fatalf("exit status %d", code)
	}
	if !strings.HasPrefix(stdout, "<!doctype html>") || !strings.HasSuffix(stdout, "</html>\n") {
		t.Errorf("not a standalone page:\n%s", stdout)
	}
	if !strings.Contains(stdout, "<caption>ssd: Random reads (block size 16K, total size 4G)</caption>") {
		t.Errorf("missing table caption:\n%s", stdout)
	}
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := run(t, "-o", filepath.Join(dir, "results.js"), "-svg", filepath.Join(dir, "svg"), "-v", "ssd/rndrd.log")
	if code != 0 {
		t.Fatalf("exit status %d; stderr:\n%s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "svg", "rndrd-iops.svg")); err != nil {
		t.Error(err)
	}
	for _, want := range []string{
		"sbstat: read ssd/rndrd.log (config ssd)\n",
		"sbstat: wrote 16 charts\n",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestDB(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "results.db")
	code, _, stderr := run(t, "-o", "-", "-format", "csv", "-db", "sqlite3:"+dsn, "ssd/rndrd.log")
	if code != 0 {
		t.Fatalf("exit status %d; stderr:\n%s", code, stderr)
	}
	if want := "sbstat: results stored as upload 1\n"; stderr != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}

	d, err := db.OpenSQL("sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	results, err := d.LoadResults(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	got := results["ssd"]["rndrd"].Results[sbfmt.NRead]
	if diff := cmp.Diff(sbfmt.Observations{1: {10000}, 4: {20000}}, got); diff != "" {
		t.Errorf("stored nread (-want +got):\n%s", diff)
	}
}

func TestDBVerbose(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "results.db")
	for i := 0; i < 4; i++ {
		if code, _, stderr := run(t, "-o", "-", "-format", "csv", "-db", "sqlite3:"+dsn, "hdd/seqwr.log"); code != 0 {
			t.Fatalf("run %d: exit status %d; stderr:\n%s", i, code, stderr)
		}
	}
	code, _, stderr := run(t, "-v", "-o", "-", "-format", "csv", "-db", "sqlite3:"+dsn, "hdd/seqwr.log")
	if code != 0 {
		t.Fatalf("exit status %d; stderr:\n%s", code, stderr)
	}
	want := "sbstat: read hdd/seqwr.log (config hdd)\n" +
		"sbstat: results stored as upload 5\n" +
		"sbstat: database holds 5 uploads; most recent: 5 4 3\n"
	if stderr != want {
		t.Errorf("stderr:\n%s\nwant:\n%s", stderr, want)
	}
}
