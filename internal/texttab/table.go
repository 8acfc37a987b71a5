// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out fixed-width text tables.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Many of its methods return the Table so callers can easily chain
// them to build up many cells at once.
type Table struct {
	rows   [][]textCell
	curCol int
}

type textCell struct {
	value      string
	leftMargin string
	alignment  align
	set        bool
}

// A CellOption changes how a cell is laid out.
type CellOption func(c *textCell)

// LeftMargin sets the string printed before the cell, in place of the
// default single space.
func LeftMargin(x string) CellOption {
	return func(c *textCell) {
		c.leftMargin = x
	}
}

var (
	Left   CellOption = func(c *textCell) { c.alignment = alignLeft }
	Center CellOption = func(c *textCell) { c.alignment = alignCenter }
	Right  CellOption = func(c *textCell) { c.alignment = alignRight }
)

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

func (a align) lpad(s string, w int) string {
	switch a {
	default:
		return s
	case alignCenter:
		l := (w - utf8.RuneCountInString(s)) / 2
		return fmt.Sprintf("%*s%s", l, "", s)
	case alignRight:
		return fmt.Sprintf("%*s", w, s)
	}
}

// Row starts a new row in table t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	t.curCol = 0
	return t
}

// Col skips to column "col" in the current row. Columns are numbered
// starting at 0.
func (t *Table) Col(col int) *Table {
	if col < t.curCol {
		panic(fmt.Sprintf("cannot move from column %d to earlier column %d", t.curCol, col))
	}
	t.curCol = col
	return t
}

// Cell adds a cell at the current row and column and advances to the
// next column.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	row := &t.rows[len(t.rows)-1]
	for len(*row) <= t.curCol {
		*row = append(*row, textCell{})
	}
	c := textCell{value: value, leftMargin: " ", set: true}
	if t.curCol == 0 || value == "" {
		// The left-most column and empty cells default to no
		// left margin.
		c.leftMargin = ""
	}
	for _, o := range opts {
		o(&c)
	}
	(*row)[t.curCol] = c
	t.curCol++
	return t
}

// Format lays out table t and writes it to w.
func (t *Table) Format(w io.Writer) error {
	// Compute the widest margin and value of each column.
	var margins, widths []int
	for _, row := range t.rows {
		for col, c := range row {
			for len(widths) <= col {
				margins, widths = append(margins, 0), append(widths, 0)
			}
			margins[col] = max(margins[col], utf8.RuneCountInString(c.leftMargin))
			widths[col] = max(widths[col], utf8.RuneCountInString(c.value))
		}
	}

	var buf strings.Builder
	for _, row := range t.rows {
		// Pending padding is only written when a later cell in
		// the row is printed, to avoid trailing spaces.
		pad := 0
		for col, c := range row {
			if strings.TrimSpace(c.value) == "" && strings.TrimSpace(c.leftMargin) == "" {
				pad += margins[col] + widths[col]
				continue
			}
			fmt.Fprintf(&buf, "%*s%*s", pad, "", margins[col], c.leftMargin)
			s := c.alignment.lpad(c.value, widths[col])
			buf.WriteString(s)
			pad = widths[col] - utf8.RuneCountInString(s)
		}
		buf.WriteByte('\n')
	}
	_, err := io.WriteString(w, buf.String())
	return err
}
