// Package textutil provides the text normalization shared by the asset
// catalog and the slug matcher.
//
// The primary use cases are:
//   - Slugifying window labels the way the download collaborator names files
//   - Case-folding and tokenizing labels and slugs for comparison
//   - Scoring token overlap between a label and a candidate slug
//
// Tokenization folds case with golang.org/x/text/cases and splits on every
// rune that is not a letter or digit, so "Intro: Part 2" and "intro_part_2"
// produce the same tokens.
package textutil
