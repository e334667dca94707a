// Package feetext interprets free-form Arabic fee notes into structured
// fee descriptors. All functions are pure: every input string maps to a
// well-formed result, nothing ever errors.
package feetext

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// numberWords maps Arabic number words (with common synonyms) to digit
// forms. Substitution runs longest-word-first so compound forms like
// "ثلاثين" are never clipped by their shorter stems.
var numberWords = map[string]string{
	"واحد":   "1",
	"اثنين":  "2",
	"اثنان":  "2",
	"إثنين":  "2",
	"ثلاثة":  "3",
	"ثلاث":   "3",
	"أربعة":  "4",
	"اربعة":  "4",
	"أربع":   "4",
	"خمسة":   "5",
	"خمس":    "5",
	"ستة":    "6",
	"سبعة":   "7",
	"ثمانية": "8",
	"تسعة":   "9",
	"عشرة":   "10",
	"عشره":   "10",
	"عشرين":  "20",
	"عشرون":  "20",
	"ثلاثين": "30",
	"ثلاثون": "30",
	"أربعين": "40",
	"اربعين": "40",
	"أربعون": "40",
	"خمسين":  "50",
	"خمسون":  "50",
	"ستين":   "60",
	"ستون":   "60",
	"سبعين":  "70",
	"سبعون":  "70",
	"ثمانين": "80",
	"ثمانون": "80",
	"تسعين":  "90",
	"تسعون":  "90",
	"مئة":    "100",
	"مائة":   "100",
	"مئه":    "100",
	"ألف":    "1000",
}

// wordOrder holds number words sorted longest-first for substitution.
var wordOrder = func() []string {
	words := make([]string, 0, len(numberWords))
	for w := range numberWords {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}()

// indicDigits converts Arabic-Indic and Extended Arabic-Indic digits to
// their ASCII equivalents.
var indicDigits = runes.Map(func(r rune) rune {
	switch {
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	}
	return r
})

// Normalize prepares a fee note for numeric extraction: trims whitespace,
// maps Arabic-Indic digits to ASCII, and substitutes number words with
// their digit forms.
func Normalize(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(indicDigits, s); err == nil {
		s = out
	}
	for _, w := range wordOrder {
		s = strings.ReplaceAll(s, w, numberWords[w])
	}
	return s
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// extractNumbers returns every run of digits in the normalized text as a
// float, in left-to-right order of appearance.
func extractNumbers(normalized string) []float64 {
	matches := digitRun.FindAllString(normalized, -1)
	if len(matches) == 0 {
		return nil
	}
	nums := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		nums = append(nums, v)
	}
	return nums
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
