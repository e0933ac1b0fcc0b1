package indexer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Preprocess normalizes page text for chunking: NFC normalization (Bengali vowel signs
// extracted from PDFs are often decomposed), line endings unified, runs of blanks within a
// line collapsed to one space, and any run of blank lines reduced to a single paragraph break.
func Preprocess(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = collapseSpaces(line)
		if line == "" {
			blank = true
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		}
		blank = false
		b.WriteString(line)
	}
	return b.String()
}

// collapseSpaces trims s and replaces each run of whitespace with a single space.
func collapseSpaces(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	wasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
