// Package models defines core data structures for documents, segments, and the vector index.
package models

import "time"

// Page is the raw text of a single page of a source document.
type Page struct {
	Number int    `json:"number"` // 1-based
	Text   string `json:"text"`
}

// Document is an ordered sequence of pages extracted from a source file.
// It is immutable once loaded and discarded after ingestion.
type Document struct {
	ID      string    `json:"id"`
	Source  string    `json:"source"`
	Pages   []Page    `json:"pages"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// IsEmpty reports whether the document has no pages with text.
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, p := range d.Pages {
		if p.Text != "" {
			return false
		}
	}
	return true
}

// Segment is a bounded, overlapping slice of a page's text; the unit of embedding and retrieval.
type Segment struct {
	ID         string `json:"id" db:"id"`
	DocumentID string `json:"document_id" db:"document_id"`
	Source     string `json:"source" db:"source"`
	Page       int    `json:"page" db:"page"`
	Index      int    `json:"index" db:"chunk_index"`
	Content    string `json:"content" db:"content"`
}
