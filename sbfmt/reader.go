// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbfmt

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/perfkit/sbperf/sbunit"
)

// A Reader reads sysbench fileio reports.
//
// A report is scanned line by line. An invocation line (the sysbench
// command line ending in "run") selects the test mode, thread count
// and bucket that subsequent measurement lines are recorded into.
// Lines before the first invocation line are ignored.
//
// To construct a new Reader, either call NewReader, or call Reset on
// a zeroed Reader.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     int // 1-based number of the current line

	results ModeResults
	st      scanState
}

// scanState is the state carried from one line of a report to the
// next.
type scanState struct {
	mode      TestMode // "" until the first invocation line
	threads   int
	blockSize int64
	totalSize string
	bucket    *Bucket

	// perReqStats is set inside a per-request statistics section.
	perReqStats bool

	// nread and nwrite are the operation counts from the last
	// "Operations performed" line of this report. The derived
	// per-second rates computed from "total time" depend on them,
	// so that line must come first.
	nread, nwrite float64
	haveOps       bool
}

// NewReader constructs a reader to parse a sysbench report from r.
// fileName is used in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input. All scan
// state is discarded.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	r.s = bufio.NewScanner(ior)
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.fileName = fileName
	r.line = 0
	r.results = nil
	r.st = scanState{}
}

// ReadInto reads the whole report and records every observation in it
// into results, creating buckets for test modes results does not have
// yet.
//
// Parsing is strict: the first line that does not have the expected
// shape stops the read and is reported as a *SyntaxError,
// *ConsistencyError or *UnknownStatError. Observations recorded
// before the error remain in results.
func (r *Reader) ReadInto(results ModeResults) error {
	r.results = results
	defer func() { r.results = nil }()

	for r.s.Scan() {
		r.line++
		line := strings.TrimSuffix(r.s.Text(), "\r")
		if err := r.parseLine(line); err != nil {
			return err
		}
	}
	if err := r.s.Err(); err != nil {
		return fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
	}
	return nil
}

// A lineHandler handles the lines its match function accepts. A nil
// handle ignores the line.
type lineHandler struct {
	match  func(r *Reader, line string) bool
	handle func(r *Reader, line string) error
}

// lineHandlers are tried in order; the first match handles the line.
var lineHandlers = []lineHandler{
	{match: hasSuffix("run"), handle: (*Reader).parseInvocation},
	{match: func(r *Reader, line string) bool { return r.st.mode == "" }},
	{match: hasPrefix("Operations performed"), handle: (*Reader).parseOperations},
	{match: hasPrefix("Read "), handle: (*Reader).parseTransferred},
	{match: hasSuffix("executed"), handle: (*Reader).parseExecuted},
	{match: hasPrefix("    total time:"), handle: (*Reader).parseTotalTime},
	{match: hasPrefix("    total number of events:"), handle: (*Reader).parseTotalEvents},
	{match: isLine("    per-request statistics:", "    response time:"), handle: (*Reader).openRequestStats},
	{match: isLine(""), handle: (*Reader).closeRequestStats},
	{match: func(r *Reader, line string) bool { return r.st.perReqStats && strings.Contains(line, ":") },
		handle: (*Reader).parseRequestStat},
}

func hasPrefix(prefix string) func(*Reader, string) bool {
	return func(_ *Reader, line string) bool { return strings.HasPrefix(line, prefix) }
}

func hasSuffix(suffix string) func(*Reader, string) bool {
	return func(_ *Reader, line string) bool { return strings.HasSuffix(line, suffix) }
}

func isLine(lines ...string) func(*Reader, string) bool {
	return func(_ *Reader, line string) bool {
		for _, l := range lines {
			if line == l {
				return true
			}
		}
		return false
	}
}

func (r *Reader) parseLine(line string) error {
	for _, h := range lineHandlers {
		if !h.match(r, line) {
			continue
		}
		if h.handle == nil {
			return nil
		}
		return h.handle(r, line)
	}
	// Ignore the line.
	return nil
}

func (r *Reader) record(m Metric, value float64) {
	r.st.bucket.Add(m, r.st.threads, value)
}

// parseInvocation parses a sysbench command line such as
//
//	sysbench --num-threads=4 --test=fileio --file-total-size=4G --file-test-mode=rndrd --file-block-size=16384 run
//
// and activates the bucket of its test mode.
func (r *Reader) parseInvocation(line string) error {
	args := make(map[string]string)
	for _, f := range strings.Fields(line) {
		if key, val, ok := strings.Cut(f, "="); ok {
			args[strings.TrimLeft(key, "-")] = val
		}
	}
	arg := func(keys ...string) (string, error) {
		for _, key := range keys {
			if v, ok := args[key]; ok {
				return v, nil
			}
		}
		return "", r.newSyntaxError(line, "missing --"+keys[0]+" argument", nil)
	}

	threadsStr, err := arg("num-threads", "threads")
	if err != nil {
		return err
	}
	threads, err := strconv.Atoi(threadsStr)
	if err != nil || threads <= 0 {
		return r.newSyntaxError(line, fmt.Sprintf("thread count %q is not a positive integer", threadsStr), err)
	}
	blockStr, err := arg("file-block-size")
	if err != nil {
		return err
	}
	blockSize, err := strconv.ParseInt(blockStr, 10, 64)
	if err != nil {
		return r.newSyntaxError(line, fmt.Sprintf("bad block size %q", blockStr), err)
	}
	totalSize, err := arg("file-total-size")
	if err != nil {
		return err
	}
	mode, err := arg("file-test-mode")
	if err != nil {
		return err
	}

	st := &r.st
	st.mode, st.threads, st.blockSize, st.totalSize = TestMode(mode), threads, blockSize, totalSize
	b, ok := r.results[st.mode]
	if !ok {
		b = NewBucket(blockSize, totalSize)
		r.results[st.mode] = b
	} else {
		if b.BlockSize != blockSize {
			return r.newConsistencyError("file-block-size", strconv.FormatInt(b.BlockSize, 10), blockStr)
		}
		if b.TotalSize != totalSize {
			return r.newConsistencyError("file-total-size", b.TotalSize, totalSize)
		}
	}
	st.bucket = b
	return nil
}

var (
	operationsRE = regexp.MustCompile(`^Operations performed:\s*(\d+) [Rr]eads?, (\d+) [Ww]rites?, (\d+)\s*Other = (\d+) Total`)
	transferRE   = regexp.MustCompile(`^Read ([0-9.]+\w?b)\s*Written ([0-9.]+\w?b)\s*Total transferred ([0-9.]+\w?b)\s*\(([0-9.]+\w?b)/sec\)`)
)

// match matches re against the trimmed line and returns the
// submatches, or a *SyntaxError if it does not match.
func (r *Reader) match(re *regexp.Regexp, line string) ([]string, error) {
	m := re.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, &SyntaxError{
			FileName: r.fileName,
			Line:     r.line,
			Text:     strings.TrimSpace(line),
			Pattern:  re.String(),
		}
	}
	return m[1:], nil
}

// parseOperations parses a line such as
//
//	Operations performed:  100 Reads, 50 Writes, 2 Other = 152 Total
func (r *Reader) parseOperations(line string) error {
	m, err := r.match(operationsRE, line)
	if err != nil {
		return err
	}
	var vals [4]float64
	for i, s := range m {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return r.newSyntaxError(line, "parsing operation count", err)
		}
		vals[i] = float64(n)
	}
	r.record(NRead, vals[0])
	r.record(NWrite, vals[1])
	r.record(NOther, vals[2])
	r.record(NTotal, vals[3])
	r.st.nread, r.st.nwrite, r.st.haveOps = vals[0], vals[1], true
	return nil
}

// parseTransferred parses a line such as
//
//	Read 1.00Mb  Written 2.00Mb  Total transferred 3.00Mb  (1.50Mb/sec)
func (r *Reader) parseTransferred(line string) error {
	m, err := r.match(transferRE, line)
	if err != nil {
		return err
	}
	var vals [4]float64
	for i, s := range m {
		vals[i], err = sbunit.ParseSize(s)
		if err != nil {
			return r.newSyntaxError(line, "parsing size", err)
		}
	}
	r.record(ReadBytes, vals[0])
	r.record(WriteBytes, vals[1])
	r.record(TotalBytes, vals[2])
	r.record(Throughput, vals[3])
	return nil
}

// parseExecuted parses a line such as
//
//	  332.87 Requests/sec executed
func (r *Reader) parseExecuted(line string) error {
	f := strings.Fields(line)
	iops, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return r.newSyntaxError(line, "parsing request rate", err)
	}
	r.record(IOPS, iops)
	return nil
}

// parseTotalTime parses the "total time" line of the execution
// summary and records the read and write rates derived from it and
// the preceding "Operations performed" line.
func (r *Reader) parseTotalTime(line string) error {
	ms, err := sbunit.ParseDuration(lastField(line))
	if err != nil {
		return r.newSyntaxError(line, "parsing total time", err)
	}
	if !r.st.haveOps {
		return r.newSyntaxError(line, "total time before any \"Operations performed\" line", nil)
	}
	secs := ms / 1000
	if secs == 0 {
		return r.newSyntaxError(line, "total time is zero", nil)
	}
	r.record(NReadPerSec, r.st.nread/secs)
	r.record(NWritePerSec, r.st.nwrite/secs)
	return nil
}

func (r *Reader) parseTotalEvents(line string) error {
	f := lastField(line)
	n, err := strconv.ParseInt(f, 10, 64)
	if err != nil {
		return r.newSyntaxError(line, "parsing number of events", err)
	}
	r.record(TotalNumEvents, float64(n))
	return nil
}

var requestStats = map[string]Metric{
	"min":                    ReqMin,
	"avg":                    ReqAvg,
	"max":                    ReqMax,
	"approx.  95 percentile": Req95p,
}

// parseRequestStat parses one "label: duration" line of a
// per-request statistics section.
func (r *Reader) parseRequestStat(line string) error {
	if strings.Count(line, ":") != 1 {
		return r.newSyntaxError(line, "expected a single \"label: value\" pair", nil)
	}
	stat, value, _ := strings.Cut(line, ":")
	stat = strings.TrimSpace(stat)
	ms, err := sbunit.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return r.newSyntaxError(line, "parsing "+stat, err)
	}
	m, ok := requestStats[stat]
	if !ok {
		return &UnknownStatError{FileName: r.fileName, Line: r.line, Stat: stat}
	}
	r.record(m, ms)
	return nil
}

func (r *Reader) openRequestStats(string) error {
	r.st.perReqStats = true
	return nil
}

func (r *Reader) closeRequestStats(string) error {
	r.st.perReqStats = false
	return nil
}

func lastField(line string) string {
	f := strings.Fields(line)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

// A SyntaxError reports a line of a report that does not have the
// expected shape.
type SyntaxError struct {
	FileName string
	Line     int

	// Text is the offending line.
	Text string

	// Pattern is the expected shape of the line, if the line was
	// matched against a regular expression.
	Pattern string

	// Msg describes the problem if Pattern is empty.
	Msg string

	// Err is the underlying conversion error, if any.
	Err error
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("%s:%d: %q did not match %q", e.FileName, e.Line, e.Text, e.Pattern)
	}
	msg := e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s:%d: %s: %q", e.FileName, e.Line, msg, e.Text)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func (r *Reader) newSyntaxError(line, msg string, err error) *SyntaxError {
	return &SyntaxError{FileName: r.fileName, Line: r.line, Text: strings.TrimSpace(line), Msg: msg, Err: err}
}

// A ConsistencyError reports a run whose block size or total size
// differs from earlier runs of the same test mode in the same
// configuration.
type ConsistencyError struct {
	FileName string
	Line     int
	Mode     TestMode

	// Option is the sysbench option that differs, such as
	// "file-block-size".
	Option string

	// Have is the value recorded by earlier runs, Got the value
	// of this run.
	Have, Got string
}

func (e *ConsistencyError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s:%d: %s run has --%s=%s, but earlier runs have %s", e.FileName, e.Line, e.Mode, e.Option, e.Got, e.Have)
}

func (r *Reader) newConsistencyError(option, have, got string) *ConsistencyError {
	return &ConsistencyError{r.fileName, r.line, r.st.mode, option, have, got}
}

// An UnknownStatError reports an unrecognized statistic in a
// per-request statistics section.
type UnknownStatError struct {
	FileName string
	Line     int
	Stat     string
}

func (e *UnknownStatError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *UnknownStatError) Error() string {
	return fmt.Sprintf("%s:%d: unknown per-request statistic %q", e.FileName, e.Line, e.Stat)
}
