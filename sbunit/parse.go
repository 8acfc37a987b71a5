// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sbunit converts the size and duration literals printed by
// sysbench into base units and formats numbers in those units.
package sbunit

import (
	"fmt"
	"strconv"
	"strings"
)

// A Class specifies what class of unit prefixes are in use.
type Class int

const (
	// Decimal indicates values of a given unit should be scaled
	// by powers of 1000, using SI prefixes such as "k" and "M".
	Decimal Class = iota
	// Binary indicates values of a given unit should be scaled by
	// powers of 1024, using IEC prefixes such as "Ki" and "Mi".
	Binary
)

func (c Class) String() string {
	switch c {
	case Decimal:
		return "Decimal"
	case Binary:
		return "Binary"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// magnitudes maps the magnitude letter of a size literal to its
// multiplier.
var magnitudes = map[byte]float64{
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
}

// A LiteralError records a size or duration literal that could not be
// converted.
type LiteralError struct {
	Literal string
	Msg     string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("bad literal %q: %s", e.Literal, e.Msg)
}

// ParseSize converts a size literal such as "1.42Mb" or "512b" into a
// number of bytes.
//
// The literal is a decimal number, an optional upper case magnitude
// letter (K, M, G or T, each a power of 1024), and a single trailing
// unit character. Without a magnitude letter the number must be an
// integer byte count.
func ParseSize(s string) (float64, error) {
	if len(s) < 2 {
		return 0, &LiteralError{s, "too short for a size"}
	}
	if m := s[len(s)-2]; 'A' <= m && m <= 'Z' {
		factor, ok := magnitudes[m]
		if !ok {
			return 0, &LiteralError{s, fmt.Sprintf("unknown magnitude %q", m)}
		}
		val, err := strconv.ParseFloat(s[:len(s)-2], 64)
		if err != nil {
			return 0, &LiteralError{s, numErr(err)}
		}
		return val * factor, nil
	}
	val, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil {
		return 0, &LiteralError{s, numErr(err)}
	}
	return float64(val), nil
}

// ParseDuration converts a duration literal such as "1.42s" or
// "0.03ms" into milliseconds.
func ParseDuration(s string) (float64, error) {
	var num string
	factor := 1.0
	switch {
	case strings.HasSuffix(s, "ms"):
		num = s[:len(s)-2]
	case strings.HasSuffix(s, "s"):
		num, factor = s[:len(s)-1], 1000
	default:
		return 0, &LiteralError{s, "missing s or ms suffix"}
	}
	val, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, &LiteralError{s, numErr(err)}
	}
	return val * factor, nil
}

func numErr(err error) string {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err.Error()
	}
	return err.Error()
}
