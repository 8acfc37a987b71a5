// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbstat

import (
	"fmt"
	"io"
	"strconv"

	"github.com/perfkit/sbperf/internal/texttab"
)

// FormatText writes a fixed-width text formatting of tables to w.
func FormatText(w io.Writer, tables []*Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprintf(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", t.Title()); err != nil {
			return err
		}
		var tab texttab.Table
		tab.Row().Cell(`metric \ threads`)
		for _, threads := range t.Threads {
			tab.Cell(strconv.Itoa(threads), texttab.LeftMargin("  "), texttab.Right)
		}
		for _, row := range t.Rows {
			tab.Row().Cell(row.Label)
			for _, c := range row.Cells {
				tab.Cell(row.Format(c), texttab.LeftMargin("  "), texttab.Right)
			}
		}
		if err := tab.Format(w); err != nil {
			return err
		}
	}
	return nil
}
