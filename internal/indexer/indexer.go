package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/banglaqa/internal/embedding"
	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/internal/storage"
	"github.com/hyperjump/banglaqa/internal/vector"
	"go.uber.org/zap"
)

const (
	segmentsFile = "segments.db"
	vectorsFile  = "vectors.db"
)

// ProgressFunc is called after each embedded batch with the number of segments done so far.
type ProgressFunc func(done, total int)

// Indexer builds and loads the persisted segment index in one directory.
type Indexer struct {
	dir          string
	embedder     embedding.Embedder
	batchSize    int
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
	progress     ProgressFunc
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build and load events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithProgress sets a callback invoked after each embedded batch.
func WithProgress(fn ProgressFunc) IndexerOption {
	return func(idx *Indexer) { idx.progress = fn }
}

// WithBatchSize sets how many segments are sent to the embedder per call.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// WithChunking records the chunker settings in the manifest so a settings change can be detected.
func WithChunking(c *Chunker) IndexerOption {
	return func(idx *Indexer) {
		idx.chunkSize = c.Size()
		idx.chunkOverlap = c.Overlap()
	}
}

// NewIndexer creates an indexer that persists to dir and embeds with embedder.
func NewIndexer(dir string, embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		dir:       dir,
		embedder:  embedder,
		batchSize: 100,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Dir returns the index directory.
func (idx *Indexer) Dir() string {
	return idx.dir
}

// DiskUsage returns the bytes used by the persisted index.
func (idx *Indexer) DiskUsage() (int64, error) {
	return storage.DiskUsageBytes(idx.dir)
}

// Build embeds segments, persists them with their vectors and returns the queryable index.
// The manifest is written last; an interrupted build leaves no loadable index. With no
// segments nothing is persisted and an empty index is returned.
func (idx *Indexer) Build(ctx context.Context, doc *models.Document, segments []*models.Segment) (*Index, error) {
	space := idx.embedder.Space()
	manifest := models.Manifest{
		Space:        space,
		ChunkSize:    idx.chunkSize,
		ChunkOverlap: idx.chunkOverlap,
		BuildID:      uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
	}
	if doc != nil {
		manifest.Source = doc.Source
		manifest.SourceSize = doc.Size
		manifest.SourceModTime = doc.ModTime.UnixNano()
	}
	if len(segments) == 0 {
		idx.logger.Warn("no segments to index, document has no extractable text",
			zap.String("source", manifest.Source))
		return &Index{manifest: manifest, segments: map[string]*models.Segment{}}, nil
	}

	start := time.Now()
	entries, err := idx.embedSegments(ctx, segments)
	if err != nil {
		return nil, models.Wrap(models.ErrIndexBuild, err, "embedding %d segments", len(segments))
	}

	mem, err := vector.NewMemoryIndex(space.Dimensions)
	if err != nil {
		return nil, models.Wrap(models.ErrIndexBuild, err, "create vector index for %s", space)
	}
	ids := make([]string, len(entries))
	vectors := make([][]float32, len(entries))
	byID := make(map[string]*models.Segment, len(entries))
	for i, e := range entries {
		ids[i] = e.Segment.ID
		vectors[i] = e.Vector
		byID[e.Segment.ID] = e.Segment
	}
	if err := mem.Add(ctx, ids, vectors); err != nil {
		return nil, models.Wrap(models.ErrIndexBuild, err, "add vectors")
	}
	manifest.Segments = len(segments)

	if err := idx.persist(ctx, segments, mem, &manifest); err != nil {
		return nil, models.Wrap(models.ErrIndexBuild, err, "persist index to %s", idx.dir)
	}
	idx.logger.Info("index built",
		zap.Int("segments", len(segments)),
		zap.Stringer("space", space),
		zap.String("dir", idx.dir),
		zap.Duration("took", time.Since(start)))
	return &Index{manifest: manifest, segments: byID, vectors: mem}, nil
}

// embedSegments pairs every segment with its vector, in segment order.
func (idx *Indexer) embedSegments(ctx context.Context, segments []*models.Segment) ([]models.IndexEntry, error) {
	dims := idx.embedder.Space().Dimensions
	total := len(segments)
	entries := make([]models.IndexEntry, 0, total)
	for start := 0; start < total; start += idx.batchSize {
		end := start + idx.batchSize
		if end > total {
			end = total
		}
		texts := make([]string, 0, end-start)
		for _, seg := range segments[start:end] {
			texts = append(texts, seg.Content)
		}
		batch, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, errors.New("embedder returned a different number of vectors than inputs")
		}
		for i, v := range batch {
			if len(v) != dims {
				return nil, models.Wrap(models.ErrDimensionMismatch, nil,
					"segment %s embedded to %d dimensions, expected %d", segments[start+i].ID, len(v), dims)
			}
		}
		for i, v := range batch {
			entries = append(entries, models.IndexEntry{Segment: segments[start+i], Vector: v})
		}
		idx.logger.Debug("embedded batch", zap.Int("done", end), zap.Int("total", total))
		if idx.progress != nil {
			idx.progress(end, total)
		}
	}
	return entries, nil
}

func (idx *Indexer) persist(ctx context.Context, segments []*models.Segment, mem *vector.MemoryIndex, manifest *models.Manifest) error {
	store, err := openSegmentStore(filepath.Join(idx.dir, segmentsFile), false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ReplaceSegments(ctx, segments); err != nil {
		return err
	}
	if err := mem.Save(filepath.Join(idx.dir, vectorsFile)); err != nil {
		return err
	}
	return store.PutManifest(ctx, manifest)
}

// openSegmentStore opens the segment database. A read-only store requires the
// database to exist and leaves the index directory untouched.
func openSegmentStore(path string, readOnly bool) (storage.Storage, error) {
	if readOnly {
		return storage.NewReadOnlySQLiteStorage(path)
	}
	return storage.NewSQLiteStorage(path)
}

// Inspect reads the manifest and counts the stored segments without loading vectors.
// It returns a nil manifest when no complete index exists.
func (idx *Indexer) Inspect(ctx context.Context) (*models.Manifest, int64, error) {
	segPath := filepath.Join(idx.dir, segmentsFile)
	if _, err := os.Stat(segPath); err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, models.Wrap(models.ErrIndexLoad, err, "stat %s", segPath)
	}
	store, err := openSegmentStore(segPath, true)
	if err != nil {
		return nil, 0, models.Wrap(models.ErrIndexLoad, err, "open %s", segPath)
	}
	defer store.Close()

	manifest, err := store.GetManifest(ctx)
	if err != nil {
		return nil, 0, models.Wrap(models.ErrIndexLoad, err, "read manifest")
	}
	count, err := store.CountSegments(ctx)
	if err != nil {
		return nil, 0, models.Wrap(models.ErrIndexLoad, err, "count segments")
	}
	return manifest, count, nil
}

// Load opens the persisted index read-only. It returns nil without error when no complete
// index exists (missing directory, database or manifest). Loading never writes to the
// index directory.
func (idx *Indexer) Load(ctx context.Context) (*Index, error) {
	segPath := filepath.Join(idx.dir, segmentsFile)
	vecPath := filepath.Join(idx.dir, vectorsFile)
	if _, err := os.Stat(segPath); err != nil {
		if os.IsNotExist(err) {
			idx.logger.Debug("no persisted index", zap.String("dir", idx.dir))
			return nil, nil
		}
		return nil, models.Wrap(models.ErrIndexLoad, err, "stat %s", segPath)
	}

	store, err := openSegmentStore(segPath, true)
	if err != nil {
		return nil, models.Wrap(models.ErrIndexLoad, err, "open %s", segPath)
	}
	defer store.Close()

	manifest, err := store.GetManifest(ctx)
	if err != nil {
		return nil, models.Wrap(models.ErrIndexLoad, err, "read manifest")
	}
	if manifest == nil {
		idx.logger.Warn("index has no manifest, treating as absent", zap.String("dir", idx.dir))
		return nil, nil
	}
	segments, err := store.ListSegments(ctx)
	if err != nil {
		return nil, models.Wrap(models.ErrIndexLoad, err, "read segments")
	}
	if _, err := os.Stat(vecPath); err != nil {
		return nil, models.Wrap(models.ErrIndexLoad, err, "vector store missing")
	}
	mem, err := vector.NewMemoryIndex(manifest.Space.Dimensions)
	if err != nil {
		return nil, models.Wrap(models.ErrIndexLoad, err, "manifest space %s", manifest.Space)
	}
	if err := mem.Load(vecPath); err != nil {
		return nil, models.Wrap(models.ErrIndexLoad, err, "read vectors")
	}
	if mem.Size() != len(segments) || len(segments) != manifest.Segments {
		return nil, models.Wrap(models.ErrIndexLoad, nil,
			"index is inconsistent: manifest lists %d segments, found %d segments and %d vectors",
			manifest.Segments, len(segments), mem.Size())
	}
	byID := make(map[string]*models.Segment, len(segments))
	for _, seg := range segments {
		byID[seg.ID] = seg
	}
	idx.logger.Info("index loaded",
		zap.Int("segments", len(segments)),
		zap.Stringer("space", manifest.Space),
		zap.String("build_id", manifest.BuildID))
	return &Index{manifest: *manifest, segments: byID, vectors: mem}, nil
}
