package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reCurrencyMarker = regexp.MustCompile(`(?i)₹|rs\.|rs|inr`)
	reMoneyNoise     = regexp.MustCompile(`[^0-9.\-]`)
	reAnyDigit       = regexp.MustCompile(`[0-9]`)
)

// CleanMoney normalizes a monetary string to a number. Currency markers
// (₹, Rs., Rs, INR), grouping commas and whitespace are stripped, then any
// remaining character that is not a digit, dot or minus. A string that
// leaves no digits behind reports ok=false, never zero.
func CleanMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = reCurrencyMarker.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = reMoneyNoise.ReplaceAllString(s, "")
	if !reAnyDigit.MatchString(s) {
		return 0, false
	}
	if strings.Contains(s, ".") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}
