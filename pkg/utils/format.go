// Package utils provides shared formatting and retry helpers.
package utils

import (
	"fmt"
	"strings"
)

// FormatPrice renders a price with precision adapted to its magnitude,
// so sub-unit quotes keep enough decimals to stay readable.
func FormatPrice(price float64) string {
	abs := price
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1000:
		return groupThousands(fmt.Sprintf("%.2f", price))
	case abs >= 1:
		return fmt.Sprintf("%.2f", price)
	case abs >= 0.01:
		return fmt.Sprintf("%.4f", price)
	case abs == 0:
		return "0.00"
	default:
		return fmt.Sprintf("%.8f", price)
	}
}

// FormatRatio renders a [0,1] ratio as a whole percentage.
func FormatRatio(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// FormatPercent formats a percentage value with an explicit sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// groupThousands inserts comma separators into the integer part of a
// formatted number, preserving any sign and decimals.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart := s
	decPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
		decPart = s[dot:]
	}

	n := len(intPart)
	if n <= 3 {
		return sign + intPart + decPart
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + decPart
}
