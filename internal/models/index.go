package models

import (
	"fmt"
	"time"
)

// EmbeddingSpace identifies the provider, model, and dimensionality that produced a set of vectors.
// Vectors from different spaces must never be mixed in one index.
type EmbeddingSpace struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// String returns "provider/model (N dims)".
func (s EmbeddingSpace) String() string {
	return fmt.Sprintf("%s/%s (%d dims)", s.Provider, s.Model, s.Dimensions)
}

// IndexEntry pairs a segment with its vector.
type IndexEntry struct {
	Segment *Segment
	Vector  []float32
}

// ScoredSegment is a single retrieval hit.
type ScoredSegment struct {
	Segment *Segment `json:"segment"`
	Score   float64  `json:"score"`
}

// Manifest describes a persisted index: which space its vectors live in and which
// source file it was built from.
type Manifest struct {
	Space         EmbeddingSpace `json:"space"`
	Source        string         `json:"source"`
	SourceSize    int64          `json:"source_size"`
	SourceModTime int64          `json:"source_mtime"` // UnixNano
	ChunkSize     int            `json:"chunk_size"`
	ChunkOverlap  int            `json:"chunk_overlap"`
	Segments      int            `json:"segments"`
	BuildID       string         `json:"build_id"`
	CreatedAt     time.Time      `json:"created_at"`
}

// MatchesSource reports whether the manifest was built from the file at source with the
// given size and modification time.
func (m *Manifest) MatchesSource(source string, size int64, modTime time.Time) bool {
	return m.Source == source && m.SourceSize == size && m.SourceModTime == modTime.UnixNano()
}
