// Package indexer splits documents into segments and builds, persists and queries the
// segment vector index.
package indexer

import (
	"fmt"
	"unicode"

	"github.com/google/uuid"
	"github.com/hyperjump/banglaqa/internal/models"
)

// Chunker splits text into overlapping character windows that end on natural boundaries
// where possible.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters). A
// non-positive size falls back to 1000; an overlap outside [0, size) falls back to size/5.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Size returns the maximum segment length in characters.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the number of characters shared by consecutive segments of a page.
func (c *Chunker) Overlap() int { return c.chunkOverlap }

// Split preprocesses and splits each page of doc. Segments keep their page number and are
// indexed in document order. An empty document yields an empty slice.
func (c *Chunker) Split(doc *models.Document) []*models.Segment {
	segments := make([]*models.Segment, 0)
	if doc == nil {
		return segments
	}
	for _, page := range doc.Pages {
		for _, piece := range c.SplitText(Preprocess(page.Text)) {
			segments = append(segments, &models.Segment{
				ID:         fmt.Sprintf("%s_%s", doc.ID, uuid.NewString()),
				DocumentID: doc.ID,
				Source:     doc.Source,
				Page:       page.Number,
				Index:      len(segments),
				Content:    piece,
			})
		}
	}
	return segments
}

// SplitText splits text into windows of at most chunkSize characters. Consecutive windows
// share exactly chunkOverlap characters. A window prefers to end after a paragraph break,
// then after a sentence terminator, then at any whitespace, searching back no further than
// half the window; otherwise it is cut at full length.
func (c *Chunker) SplitText(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 || isBlank(runes) {
		return nil
	}
	var pieces []string
	start := 0
	for {
		end := start + c.chunkSize
		if end >= n {
			pieces = append(pieces, string(runes[start:n]))
			return pieces
		}
		cut := c.findCut(runes, start, end)
		pieces = append(pieces, string(runes[start:cut]))
		start = cut - c.chunkOverlap
	}
}

// findCut returns the exclusive end of the window starting at start. The result lies in
// [lo, end] with lo > start+chunkOverlap, so the next window always advances.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	lo := start + c.chunkSize/2
	if floor := start + c.chunkOverlap + 1; lo < floor {
		lo = floor
	}
	for cut := end; cut >= lo; cut-- {
		if cut-2 >= start && runes[cut-2] == '\n' && runes[cut-1] == '\n' {
			return cut
		}
	}
	for cut := end; cut >= lo; cut-- {
		if cut-2 >= start && isSentenceEnd(runes[cut-2]) && unicode.IsSpace(runes[cut-1]) {
			return cut
		}
	}
	for cut := end; cut >= lo; cut-- {
		if unicode.IsSpace(runes[cut-1]) || unicode.IsSpace(runes[cut]) {
			return cut
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '।', '॥':
		return true
	}
	return false
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
