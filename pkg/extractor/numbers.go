package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalPattern = regexp.MustCompile(`\d+\.?\d*`)
	integerPattern = regexp.MustCompile(`\d+`)
)

// ParseNumber parses locale-formatted engagement counts. 万 multiplies the
// leading decimal number by 10^4, 亿 by 10^8; otherwise the first integer run
// is used. Missing or unparseable input yields 0. Never fails.
func ParseNumber(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	switch {
	case strings.Contains(text, "万"):
		if m := decimalPattern.FindString(text); m != "" {
			f, err := strconv.ParseFloat(m, 64)
			if err == nil {
				return int(f * 10_000)
			}
		}
		return 0
	case strings.Contains(text, "亿"):
		if m := decimalPattern.FindString(text); m != "" {
			f, err := strconv.ParseFloat(m, 64)
			if err == nil {
				return int(f * 100_000_000)
			}
		}
		return 0
	default:
		if m := integerPattern.FindString(text); m != "" {
			n, err := strconv.Atoi(m)
			if err == nil {
				return n
			}
		}
		return 0
	}
}
