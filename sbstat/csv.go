// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbstat

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/perfkit/sbperf/sbunit"
)

// FormatCSV writes tables to w in CSV form, one record per
// configuration, test mode, metric and thread count. Values are in
// the metric's recording unit and are not scaled.
func FormatCSV(w io.Writer, tables []*Table) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"config", "mode", "metric", "threads", "n", "mean", "min", "max", "stddev"})
	strof := func(x float64) string {
		return sbunit.NoOpScaler.Format(x)
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			for i, c := range row.Cells {
				if !c.OK {
					continue
				}
				cw.Write([]string{
					t.Config,
					string(t.Mode),
					row.Metric.Key(),
					strconv.Itoa(t.Threads[i]),
					strconv.Itoa(c.N),
					strof(c.Mean),
					strof(c.Min),
					strof(c.Max),
					strof(c.StdDev),
				})
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
