package nfe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds OCR text for label matching: compatibility forms are decomposed
// (full-width digits become ASCII), diacritics are dropped and the result is lower-cased.
// Digit positions are preserved so candidates can be read from the folded text.
func Normalize(text string) string {
	return strings.ToLower(FoldAccents(text))
}

// FoldAccents is Normalize without the lower-casing, for text whose case should survive
// (company names scraped from registry pages).
func FoldAccents(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// OnlyDigits drops every non-digit character.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
