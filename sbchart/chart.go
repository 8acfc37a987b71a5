// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sbchart draws line charts of sysbench metrics against thread
// count, with one line per configuration.
package sbchart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/perfkit/sbperf/sbfmt"
)

const (
	width  = 16 * vg.Centimeter
	height = 10 * vg.Centimeter
	dpi    = 150
)

// Plot returns a chart of metric m for test mode across every
// configuration in results. Each point is the mean of the
// observations at one thread count. Plot returns nil if no
// configuration has observations of m in mode.
func Plot(results sbfmt.Results, labels *sbfmt.Labels, mode sbfmt.TestMode, m sbfmt.Metric) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = labels.Test(mode) + ": " + labels.Metric(m)
	pl.X.Label.Text = "threads"
	pl.Y.Label.Text = labels.Metric(m)
	if u := m.Unit(); u != "" {
		pl.Y.Label.Text += " (" + u + ")"
	}
	pl.Legend.Top = true

	var ticks threadTicks
	n := 0
	for _, config := range results.ConfigNames() {
		b, ok := results[config][mode]
		if !ok {
			continue
		}
		var pts plotter.XYs
		for _, threads := range b.Threads() {
			s, ok := b.Summary(m, threads)
			if !ok {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(threads), Y: s.Mean})
			ticks = ticks.add(threads)
		}
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("%s %s %s: %w", config, mode, m, err)
		}
		line.Color = plotutil.Color(n)
		points.Color = plotutil.Color(n)
		points.Shape = plotutil.Shape(n)
		pl.Add(line, points)
		pl.Legend.Add(config, line, points)
		n++
	}
	if n == 0 {
		return nil, nil
	}
	pl.X.Tick.Marker = ticks
	pl.Add(plotter.NewGrid())
	if pl.Y.Min > 0 {
		pl.Y.Min = 0
	}
	return pl, nil
}

// threadTicks places a labeled tick at every observed thread count.
type threadTicks []int

func (t threadTicks) add(threads int) threadTicks {
	for _, x := range t {
		if x == threads {
			return t
		}
	}
	return append(t, threads)
}

func (t threadTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, len(t))
	for _, x := range t {
		ticks = append(ticks, plot.Tick{Value: float64(x), Label: strconv.Itoa(x)})
	}
	return ticks
}

// Chart writes a chart for every test mode and metric with
// observations in results. PNG files are written to pngDir and SVG
// files to svgDir; an empty directory disables that format. Files are
// named mode-metric.png (or .svg). Chart returns the paths written.
func Chart(results sbfmt.Results, labels *sbfmt.Labels, pngDir, svgDir string) ([]string, error) {
	for _, dir := range []string{pngDir, svgDir} {
		if dir != "" {
			if err := os.MkdirAll(dir, 0777); err != nil {
				return nil, err
			}
		}
	}

	var written []string
	do := func(dir, name string, can vg.CanvasWriterTo, pl *plot.Plot) error {
		file := filepath.Join(dir, name)
		f, err := os.Create(file)
		if err != nil {
			return err
		}
		pl.Draw(draw.New(can))
		if _, err := can.WriteTo(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, file)
		return nil
	}

	for _, mode := range modes(results) {
		for _, m := range sbfmt.Metrics {
			pl, err := Plot(results, labels, mode, m)
			if err != nil {
				return written, err
			}
			if pl == nil {
				continue
			}
			name := string(mode) + "-" + m.Key()
			if pngDir != "" {
				can := vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height),
					vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
				if err := do(pngDir, name+".png", can, pl); err != nil {
					return written, err
				}
			}
			if svgDir != "" {
				if err := do(svgDir, name+".svg", vgsvg.New(width, height), pl); err != nil {
					return written, err
				}
			}
		}
	}
	return written, nil
}

// modes returns the test modes present in any configuration of
// results, in presentation order.
func modes(results sbfmt.Results) []sbfmt.TestMode {
	all := make(sbfmt.ModeResults)
	for _, mr := range results {
		for mode, b := range mr {
			all[mode] = b
		}
	}
	return all.Modes()
}
