package models

import "strings"

const (
	DefaultTopK = 4
	MaxTopK     = 20
)

// RetrievalQuery is one question routed through retrieval.
type RetrievalQuery struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate trims the question and normalizes TopK.
// Returns ErrEmptyQuestion if nothing but whitespace remains.
func (q *RetrievalQuery) Validate() error {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return ErrEmptyQuestion
	}
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	return nil
}
