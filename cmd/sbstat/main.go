// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Sbstat aggregates sysbench fileio reports.
//
// Usage:
//
//	sbstat [flags] file...
//
// Each input file holds the output of one or more sysbench fileio runs,
// each preceded by the command line that started it, as in
//
//	+ sysbench --num-threads=4 --test=fileio --file-total-size=4G --file-test-mode=rndrd --file-block-size=16384 run
//
// The name of the directory containing a file is its configuration
// name, so that results of different machines or file systems can be
// kept apart:
//
//	sbstat ssd/*.log hdd/*.log
//
// Sbstat groups the runs by configuration and test mode, averages every
// metric per thread count and writes the result to results.js, which
// defines the TESTS, METRICS and results JavaScript globals.
//
// # Options
//
// The -o flag names the output file; "-" is standard output. The -format
// flag selects the output format: js (the default), json, text, csv or
// html. If -format is not given, it is derived from the extension of
// the output file.
//
// The -png and -svg flags name directories to write a chart of every
// metric into. The -db flag stores the results in a SQL database given
// as driver:dsn, where driver is sqlite3 or mysql; with -v it also
// lists the most recent uploads. The -gcs flag uploads the output file
// and charts below a gs://bucket/prefix URL.
//
// The -labels flag allows arguments of the form config=file, which read
// file under the given configuration name instead of its directory's.
//
// The -config flag names a YAML file that may override the metric and
// test mode labels and set any of the output options:
//
//	labels:
//	  metrics:
//	    iops: "Requests/s"
//	  tests:
//	    rndrd: "4K random reads"
//	output:
//	  path: results.json
//	  db: sqlite3:results.db
//
// Flags given on the command line take precedence over the file.
//
// # Exit status
//
// Sbstat exits with status 1 if no input files are given or the flags
// are invalid, and with status 2 if a file's configuration name cannot
// be determined. In both cases nothing is read or written. It exits
// with status 3 if reading the reports or writing any output fails.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"

	"github.com/perfkit/sbperf/internal/config"
	"github.com/perfkit/sbperf/sbchart"
	"github.com/perfkit/sbperf/sbfmt"
	"github.com/perfkit/sbperf/sbstat"
	"github.com/perfkit/sbperf/storage/db"
	_ "github.com/perfkit/sbperf/storage/db/sqlite3"
	"github.com/perfkit/sbperf/storage/gcs"
)

var exit = os.Exit // replaced during testing

const (
	exitUsage    = 1
	exitNoConfig = 2
	exitFailure  = 3
)

func main() {
	exit(sbstatMain(os.Stdout, os.Stderr, os.Args[1:]))
}

type options struct {
	config.Output
	labels  bool
	verbose bool
}

// formats maps output format names to their writers.
var formats = map[string]func(w io.Writer, results sbfmt.Results, labels *sbfmt.Labels) error{
	"js":   sbfmt.WriteJS,
	"json": sbfmt.WriteJSON,
	"text": func(w io.Writer, results sbfmt.Results, labels *sbfmt.Labels) error {
		return sbstat.FormatText(w, sbstat.Tables(results, labels))
	},
	"csv": func(w io.Writer, results sbfmt.Results, labels *sbfmt.Labels) error {
		return sbstat.FormatCSV(w, sbstat.Tables(results, labels))
	},
	"html": func(w io.Writer, results sbfmt.Results, labels *sbfmt.Labels) error {
		var buf bytes.Buffer
		buf.WriteString(sbstat.HTMLHeader)
		if err := sbstat.FormatHTML(&buf, sbstat.Tables(results, labels)); err != nil {
			return err
		}
		buf.WriteString(sbstat.HTMLFooter)
		_, err := w.Write(buf.Bytes())
		return err
	},
}

var extFormats = map[string]string{
	".js":   "js",
	".json": "json",
	".txt":  "text",
	".csv":  "csv",
	".html": "html",
}

func sbstatMain(stdout, stderr io.Writer, args []string) int {
	logger := log.New(stderr, "sbstat: ", 0)

	fs := flag.NewFlagSet("sbstat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: sbstat [flags] file...\n")
		fs.PrintDefaults()
	}
	var opts options
	var configFile string
	fs.StringVar(&configFile, "config", "", "read labels and output options from YAML `file`")
	fs.StringVar(&opts.Path, "o", "results.js", "write results to `file` (- for standard output)")
	fs.StringVar(&opts.Format, "format", "", "output `format`: js, json, text, csv or html (default from -o)")
	fs.StringVar(&opts.PNG, "png", "", "write PNG charts to `dir`")
	fs.StringVar(&opts.SVG, "svg", "", "write SVG charts to `dir`")
	fs.StringVar(&opts.DB, "db", "", "store results in the database `driver:dsn`")
	fs.StringVar(&opts.GCS, "gcs", "", "upload output below `gs://bucket/prefix`")
	fs.StringVar(&opts.GCSCredentials, "gcs-credentials", "", "authenticate to Cloud Storage with key `file`")
	fs.BoolVar(&opts.labels, "labels", false, "accept config=file arguments naming the configuration of file")
	fs.BoolVar(&opts.verbose, "v", false, "print verbose log messages")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	labels := sbfmt.DefaultLabels()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			logger.Print(err)
			return exitUsage
		}
		if err := c.ApplyLabels(labels); err != nil {
			logger.Printf("%s: %v", configFile, err)
			return exitUsage
		}
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		mergeOutput(&opts.Output, c.Output, set)
	}

	if fs.NArg() == 0 {
		logger.Print("no input files")
		fs.Usage()
		return exitUsage
	}
	if opts.Format == "" {
		opts.Format = "js"
		if f, ok := extFormats[filepath.Ext(opts.Path)]; ok && opts.Path != "-" {
			opts.Format = f
		}
	}
	write, ok := formats[opts.Format]
	if !ok {
		logger.Printf("unknown format %q", opts.Format)
		return exitUsage
	}
	var driver, dsn string
	if opts.DB != "" {
		if driver, dsn, ok = strings.Cut(opts.DB, ":"); !ok || driver == "" {
			logger.Printf("bad -db %q: want driver:dsn", opts.DB)
			return exitUsage
		}
	}
	var loc gcs.Location
	if opts.GCS != "" {
		var err error
		if loc, err = gcs.ParseURL(opts.GCS); err != nil {
			logger.Print(err)
			return exitUsage
		}
	}

	files := &sbfmt.Files{Paths: fs.Args(), AllowLabels: opts.labels}
	if _, err := files.Configs(); err != nil {
		logger.Print(err)
		if errors.Is(err, sbfmt.ErrNoConfig) {
			return exitNoConfig
		}
		return exitUsage
	}
	if opts.verbose {
		files.Progress = func(path, config string) {
			logger.Printf("read %s (config %s)", path, config)
		}
	}

	results := make(sbfmt.Results)
	if err := files.ReadInto(results); err != nil {
		logger.Print(err)
		return exitFailure
	}
	results.Finalize()

	var outputs []string
	if opts.Path == "-" {
		if err := write(stdout, results, labels); err != nil {
			logger.Print(err)
			return exitFailure
		}
	} else {
		var buf bytes.Buffer
		if err := write(&buf, results, labels); err != nil {
			logger.Print(err)
			return exitFailure
		}
		if err := os.WriteFile(opts.Path, buf.Bytes(), 0666); err != nil {
			logger.Print(err)
			return exitFailure
		}
		outputs = append(outputs, opts.Path)
		if opts.verbose {
			logger.Printf("wrote %s", opts.Path)
		}
	}

	if opts.PNG != "" || opts.SVG != "" {
		charts, err := sbchart.Chart(results, labels, opts.PNG, opts.SVG)
		if err != nil {
			logger.Printf("writing charts: %v", err)
			return exitFailure
		}
		outputs = append(outputs, charts...)
		if opts.verbose {
			logger.Printf("wrote %d charts", len(charts))
		}
	}

	ctx := context.Background()
	if driver != "" {
		if err := store(ctx, driver, dsn, results, logger, opts.verbose); err != nil {
			logger.Printf("storing results: %v", err)
			return exitFailure
		}
	}
	if opts.GCS != "" {
		if err := upload(ctx, loc, opts.GCSCredentials, outputs, logger, opts.verbose); err != nil {
			logger.Printf("uploading to %s: %v", loc, err)
			return exitFailure
		}
	}
	return 0
}

// mergeOutput fills in the options of o that were not set on the
// command line from the configuration file.
func mergeOutput(o *config.Output, file config.Output, set map[string]bool) {
	for _, f := range []struct {
		flag     string
		dst      *string
		fromFile string
	}{
		{"o", &o.Path, file.Path},
		{"format", &o.Format, file.Format},
		{"png", &o.PNG, file.PNG},
		{"svg", &o.SVG, file.SVG},
		{"db", &o.DB, file.DB},
		{"gcs", &o.GCS, file.GCS},
		{"gcs-credentials", &o.GCSCredentials, file.GCSCredentials},
	} {
		if !set[f.flag] && f.fromFile != "" {
			*f.dst = f.fromFile
		}
	}
}

// recentUploads is the number of upload IDs listed by -v -db.
const recentUploads = 3

// store saves results as a new upload in the database and logs its
// ID. In verbose mode it also reports what the database now holds.
func store(ctx context.Context, driver, dsn string, results sbfmt.Results, logger *log.Logger, verbose bool) error {
	d, err := db.OpenSQL(driver, dsn)
	if err != nil {
		return err
	}
	defer d.Close()
	u, err := d.NewUpload(ctx)
	if err != nil {
		return err
	}
	if err := u.InsertResults(ctx, results); err != nil {
		return err
	}
	logger.Printf("results stored as upload %s", u.ID)
	if !verbose {
		return nil
	}
	n, err := d.CountUploads()
	if err != nil {
		return err
	}
	ids, err := d.ListUploads(ctx, recentUploads)
	if err != nil {
		return err
	}
	logger.Printf("database holds %d uploads; most recent: %s", n, strings.Join(ids, " "))
	return nil
}

// upload copies the output files to Cloud Storage.
func upload(ctx context.Context, loc gcs.Location, credentials string, paths []string, logger *log.Logger, verbose bool) error {
	if len(paths) == 0 {
		return errors.New("no output files to upload")
	}
	creds, err := gcs.Credentials(ctx, credentials)
	if err != nil {
		return err
	}
	u, err := gcs.NewUploader(ctx, loc, creds)
	if err != nil {
		return err
	}
	defer u.Close()
	for _, path := range paths {
		url, err := u.UploadFile(ctx, path)
		if err != nil {
			return err
		}
		if verbose {
			logger.Printf("uploaded %s", url)
		}
	}
	return nil
}
