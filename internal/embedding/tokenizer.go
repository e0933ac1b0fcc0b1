package embedding

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer produces the input_ids and attention_mask tensors for a transformer encoder.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

// MPNet vocabulary layout used by all-mpnet-base-v2.
const (
	mpnetBOS       = 0 // <s>
	mpnetPad       = 1 // <pad>
	mpnetEOS       = 2 // </s>
	mpnetFirstWord = 5
	mpnetVocabSize = 30527

	// defaultMaxTokens is the model's max_seq_length.
	defaultMaxTokens = 384
)

// HashTokenizer maps each word to a stable ID inside the MPNet vocabulary without a
// vocabulary file. Text is NFC-normalized first so decomposed Bengali vowel signs from
// PDF extraction hash to the same ID as their composed form.
type HashTokenizer struct{}

// Tokenize returns <s> word... </s> followed by <pad> up to maxTokens. Words beyond
// the window are dropped; </s> is always kept.
func (HashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	if maxTokens < 2 {
		maxTokens = defaultMaxTokens
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = mpnetPad
	}

	inputIDs[0] = mpnetBOS
	attentionMask[0] = 1
	pos := 1
	for _, word := range SplitWords(norm.NFC.String(text)) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = wordID(word)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = mpnetEOS
	attentionMask[pos] = 1
	return inputIDs, attentionMask
}

func wordID(word string) int64 {
	span := mpnetVocabSize - mpnetFirstWord
	h := HashString(strings.ToLower(word)) % span
	if h < 0 {
		h += span
	}
	return int64(mpnetFirstWord + h)
}

// SplitWords splits text into words on whitespace and punctuation, including the
// Bengali danda and double danda. Zero-width joiners stay inside words since they
// select conjunct forms.
func SplitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '।', '॥':
			return true
		case '\u200c', '\u200d':
			return false
		}
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
