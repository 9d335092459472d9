package fieldmap

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// normalizeText lowercases, folds compatibility forms and accents, replaces
// punctuation with spaces and collapses whitespace.
func normalizeText(s string) string {
	folded, _, err := transform.String(foldAccents(), s)
	if err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// A transform.Transformer carries state, so each call gets a fresh chain.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
