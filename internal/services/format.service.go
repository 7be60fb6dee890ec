package services

import (
	"math"
	"strconv"
)

// Unit selects whether a quantity is counted in bytes or bits
type Unit int

const (
	Bytes Unit = iota
	Bits
)

// Decimal byte thresholds
const (
	OneKB = 1000
	OneMB = 1000 * OneKB
	TenMB = 10 * OneMB
	OneGB = 1000 * OneMB
	TenGB = 10 * OneGB
	OneTB = 1000 * OneGB
	TenTB = 10 * OneTB
)

// Binary byte thresholds
const (
	OneKiB = 1024
	OneMiB = 1024 * OneKiB
	TenMiB = 10 * OneMiB
	OneGiB = 1024 * OneMiB
	TenGiB = 10 * OneGiB
	OneTiB = 1024 * OneGiB
	TenTiB = 10 * OneTiB
)

// roundMaxFloor is the axis maximum below which RoundMax stops halving
const roundMaxFloor = 20000

// tier renders every quantity below upper as quantity/divisor.
// Precise tiers honour the caller's precision, the others never show decimals.
type tier struct {
	upper   float64
	divisor float64
	prefix  string
	precise bool
}

type unitFamily struct {
	kilo  float64
	infix string
	tiers []tier
}

var decimalFamily = unitFamily{
	kilo:  OneKB,
	tiers: []tier{
		{OneMB, OneKB, "K", false},
		{TenMB, OneMB, "M", true},
		{OneGB, OneMB, "M", false},
		{TenGB, OneGB, "G", true},
		{OneTB, OneGB, "G", false},
		{TenTB, OneTB, "T", true},
		{math.Inf(1), OneTB, "T", false},
	},
}

var binaryFamily = unitFamily{
	kilo:  OneKiB,
	infix: "i",
	tiers: []tier{
		{OneMiB, OneKiB, "K", false},
		{TenMiB, OneMiB, "M", true},
		{OneGiB, OneMiB, "M", false},
		{TenGiB, OneGiB, "G", true},
		{OneTiB, OneGiB, "G", false},
		{TenTiB, OneTiB, "T", true},
		{math.Inf(1), OneTiB, "T", false},
	},
}

// FormatDecimal renders a byte count with K/M/G/T prefixes (base 1000).
// Values under ten of a unit keep one decimal unless imprecise is set.
// Negative and non-finite counts are clamped to zero.
func FormatDecimal(bytes float64, unit Unit, imprecise bool) string {
	return decimalFamily.format(bytes, unit, imprecise)
}

// FormatBinary renders a byte count with Ki/Mi/Gi/Ti prefixes (base 1024)
func FormatBinary(bytes float64, unit Unit, imprecise bool) string {
	return binaryFamily.format(bytes, unit, imprecise)
}

// GBytesToHumanString formats a quantity given in decimal gigabytes
func GBytesToHumanString(gb float64) string {
	return FormatDecimal(gb*OneGB, Bytes, false)
}

func (f unitFamily) format(quantity float64, unit Unit, imprecise bool) string {
	suffix := "B"
	if unit == Bits {
		quantity *= 8
		suffix = "b"
	}
	suffix = f.infix + suffix

	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity < 1 {
		return "0 K" + suffix
	}
	if quantity < f.kilo {
		return "< 1 K" + suffix
	}

	precision := 1
	if imprecise {
		precision = 0
	}

	for _, t := range f.tiers {
		if quantity >= t.upper {
			continue
		}
		digits := 0
		if t.precise {
			digits = precision
		}
		value := roundHalfAway(quantity/t.divisor, digits)
		return strconv.FormatFloat(value, 'f', digits, 64) + " " + t.prefix + suffix
	}

	// unreachable: the last tier is unbounded
	return "0 K" + suffix
}

// roundHalfAway rounds to the given number of decimals, ties away from zero
func roundHalfAway(value float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(value*scale) / scale
}

// RoundMax returns a chart axis maximum for bytes: the next power of ten,
// halved while it stays above twice the input and above 20000.
// Non-positive and non-finite inputs yield 0.
func RoundMax(bytes float64) float64 {
	if math.IsNaN(bytes) || math.IsInf(bytes, 0) || bytes <= 0 {
		return 0
	}

	result := math.Pow(10, math.Ceil(math.Log10(bytes)))
	if result < bytes {
		result *= 10
	}
	for result/2 > bytes && result > roundMaxFloor {
		result /= 2
	}
	return result
}
