package indexer

import (
	"context"

	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/internal/vector"
)

// Index is a queryable segment index. A nil *Index behaves as an empty index.
type Index struct {
	manifest models.Manifest
	segments map[string]*models.Segment
	vectors  vector.VectorIndex
}

// Manifest returns the index manifest.
func (ix *Index) Manifest() models.Manifest {
	if ix == nil {
		return models.Manifest{}
	}
	return ix.manifest
}

// Size returns the number of indexed segments.
func (ix *Index) Size() int {
	if ix == nil || ix.vectors == nil {
		return 0
	}
	return ix.vectors.Size()
}

// Query returns up to k segments most similar to query, most similar first; equal scores
// keep insertion order. space must be the space the query vector was produced in.
func (ix *Index) Query(ctx context.Context, space models.EmbeddingSpace, query []float32, k int) ([]models.ScoredSegment, error) {
	results := make([]models.ScoredSegment, 0)
	if ix.Size() == 0 {
		return results, nil
	}
	if space != ix.manifest.Space {
		return nil, models.Wrap(models.ErrProviderMismatch, nil,
			"query embedded with %s, index built with %s", space, ix.manifest.Space)
	}
	if len(query) != ix.manifest.Space.Dimensions {
		return nil, models.Wrap(models.ErrDimensionMismatch, nil,
			"query has %d dimensions, index has %d", len(query), ix.manifest.Space.Dimensions)
	}
	if k <= 0 {
		return results, nil
	}
	hits, err := ix.vectors.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	for _, hit := range hits {
		seg, ok := ix.segments[hit.ID]
		if !ok {
			continue
		}
		results = append(results, models.ScoredSegment{Segment: seg, Score: hit.Score})
	}
	return results, nil
}

// Close releases the vector index.
func (ix *Index) Close() error {
	if ix == nil || ix.vectors == nil {
		return nil
	}
	return ix.vectors.Close()
}
