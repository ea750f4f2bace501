package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of value. Folding is stricter than
// lowercasing: "Straße" and "STRASSE" fold to the same string.
func Fold(value string) string {
	return cases.Fold().String(value)
}

// Tokens folds value and splits it on every rune that is not a letter or
// digit. Empty tokens are dropped; order and duplicates are kept.
func Tokens(value string) []string {
	folded := Fold(value)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Slugify replaces every rune that is not a letter or digit with an
// underscore, producing the filesystem-safe form the download collaborator
// embeds in asset identifiers. Case is preserved.
func Slugify(label string) string {
	label = strings.TrimSpace(label)
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// Jaccard returns |a ∩ b| / |a ∪ b| over the distinct tokens of a and b.
// Two empty inputs score 0.
func Jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}
