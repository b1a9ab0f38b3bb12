package duration

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	daysPerMonth = 30
	daysPerYear  = 365
)

// Strips combining marks so "días" and "año" match their plain tokens.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Days converts a free-text duration ("15 días", "2 meses", "1 año") into a
// number of days. A month counts as 30 days and a year as 365; these constants
// are load-bearing because stored cutoff dates were computed with them.
// Unrecognized text yields 0.
func Days(text string) int {
	folded, _, err := transform.String(foldAccents, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)

	switch {
	case strings.Contains(folded, "dia"):
		return firstInt(folded, 0)
	case strings.Contains(folded, "mes"):
		return firstInt(folded, 1) * daysPerMonth
	case strings.Contains(folded, "ano"):
		return firstInt(folded, 1) * daysPerYear
	}
	return 0
}

// firstInt extracts the first run of digits in s, or fallback when none exists.
func firstInt(s string, fallback int) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(s[start:i])
			if err != nil {
				return fallback
			}
			return n
		}
	}
	if start >= 0 {
		n, err := strconv.Atoi(s[start:])
		if err != nil {
			return fallback
		}
		return n
	}
	return fallback
}
