// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbunit

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler represents a scaling factor for a number and
// its scientific representation.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Unscaled value of 1 Prefix (e.g., 1 k => 1000)
	Prefix string  // Unit prefix ("k", "M", "Ki", etc)
}

// Format formats val and appends the unit prefix according to the
// given scale. For example, with a Decimal scale chosen for 1572864,
// Format(1572864) returns "1.573M".
func (s Scaler) Format(val float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, val/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Prefix...)
	return string(buf)
}

// FormatUnit is like Format, but also appends unit, separated from
// the number by a space unless the unit is empty.
func (s Scaler) FormatUnit(val float64, unit string) string {
	out := s.Format(val)
	if unit == "" {
		return out
	}
	if s.Prefix == "" {
		return out + " " + unit
	}
	return out + unit
}

// NoOpScaler is a Scaler that formats numbers with the smallest
// number of digits necessary to capture the exact value, and no
// prefix. It is used for machine-readable output such as CSV.
var NoOpScaler = Scaler{-1, 1, ""}

type factor struct {
	factor float64
	prefix string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

var siFactors = mkFactors(10, 3, 12, []string{"T", "G", "M", "k", "", "m", "µ", "n"})
var iecFactors = mkFactors(2, 10, 40, []string{"Ti", "Gi", "Mi", "Ki", ""})
var sigfigs, sigfigsBase = mkSigfigs()

// mkFactors builds the scale factors base^exp, base^(exp-step), ...
// for each prefix.
func mkFactors(base, step, exp int, prefixes []string) []factor {
	var factors []factor
	for _, p := range prefixes {
		f := math.Pow(float64(base), float64(exp))
		// Multiplying by a power of two is exact.
		t100, t10, t1 := 99.995*f, 9.9995*f, .99995*f
		if base == 10 {
			// Derive decimal thresholds from the printed
			// representation so they match how Format rounds.
			t100, _ = strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
			t10, _ = strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
			t1, _ = strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		}
		factors = append(factors, factor{f, p, t100, t10, t1})
		exp -= step
	}
	return factors
}

func mkSigfigs() ([]float64, int) {
	var sigfigs []float64
	// Print up to 10 digits after the decimal place.
	for exp := -1; exp > -9; exp-- {
		thresh, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		sigfigs = append(sigfigs, thresh)
	}
	// sigfigs[0] is the threshold for 3 digits after the decimal.
	return sigfigs, 3
}

// Scale formats val using at least three significant digits,
// appending an SI or binary prefix. See Scaler.Format for details.
func Scale(val float64, cls Class) string {
	return CommonScale([]float64{val}, cls).Format(val)
}

// CommonScale returns a common Scaler to apply to all values in vals.
// This scale will show at least three significant digits for every
// value.
func CommonScale(vals []float64, cls Class) Scaler {
	// The common scale is determined by the non-zero value
	// closest to zero.
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if v != 0 && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, ""}
	}

	var factors []factor
	switch cls {
	default:
		panic(fmt.Sprintf("bad Class %v", cls))
	case Decimal:
		factors = siFactors
	case Binary:
		factors = iecFactors
	}

	for _, factor := range factors {
		switch {
		case min >= factor.t100:
			return Scaler{1, factor.factor, factor.prefix}
		case min >= factor.t10:
			return Scaler{2, factor.factor, factor.prefix}
		case min >= factor.t1:
			return Scaler{3, factor.factor, factor.prefix}
		}
	}

	// The value is less than the smallest factor. Print it using
	// the smallest factor and more precision to achieve the
	// desired sigfigs.
	factor := factors[len(factors)-1]
	val := min / factor.factor
	for i, thresh := range sigfigs {
		if val >= thresh || i == len(sigfigs)-1 {
			return Scaler{i + sigfigsBase, factor.factor, factor.prefix}
		}
	}

	panic("not reachable")
}
