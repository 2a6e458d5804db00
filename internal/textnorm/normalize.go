// Package textnorm folds case and diacritics so Portuguese variants compare equal.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text and strips accents ("Informática" -> "informatica").
// It never fails: invalid UTF-8 is repaired and, if folding errors, the
// lower-cased input is returned.
func Normalize(text string) string {
	lowered := strings.ToLower(strings.ToValidUTF8(text, ""))

	folder := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// NormalizeAll normalizes every phrase, dropping the ones that fold to nothing.
func NormalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := strings.TrimSpace(Normalize(p)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ContainsAny returns the first phrase, in list order, found inside haystack.
// Both sides are expected to be normalized already.
func ContainsAny(haystack string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if strings.Contains(haystack, p) {
			return p, true
		}
	}
	return "", false
}
