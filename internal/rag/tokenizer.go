package rag

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks so "Gödel" and "Godel" tokenize
// identically. Course descriptions quote names and titles with accents.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// tokenize lowercases, folds diacritics, and splits on anything that is
// not a letter or digit. Both the corpus and queries go through it so
// BM25 term matching stays consistent.
func tokenize(text string) []string {
	folded, _, err := transform.String(foldDiacritics, text)
	if err == nil {
		text = folded
	}
	text = strings.ToLower(text)

	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
