package vector

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/banglaqa/internal/models"
	"go.etcd.io/bbolt"
)

var (
	bucketVectors = []byte("vectors")
	bucketIDs     = []byte("ids")
	bucketMeta    = []byte("meta")
	keyDimensions = []byte("dimensions")
)

// MemoryIndex is an in-memory vector index using brute-force inner product search.
// Insertion order is kept and persisted, so equal scores rank identically before and after
// a Save/Load round trip.
type MemoryIndex struct {
	dimensions int
	ids        []string
	positions  map[string]int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		ids:        make([]string, 0),
		positions:  make(map[string]int),
		vectors:    make([][]float32, 0),
	}, nil
}

// Dimensions returns the vector length every entry must have.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add appends vectors with the given IDs. The batch is rejected as a whole when any
// vector has the wrong length or any ID is already present.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != m.dimensions {
			return models.Wrap(models.ErrDimensionMismatch, nil,
				"vector for %s has %d dimensions, expected %d", id, len(vectors[i]), m.dimensions)
		}
		if _, ok := m.positions[id]; ok || seen[id] {
			return fmt.Errorf("duplicate vector id: %s", id)
		}
		seen[id] = true
	}
	for i, id := range ids {
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.positions[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns the top-k vectors by inner product (assumes normalized vectors = cosine similarity).
// Equal scores keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, models.Wrap(models.ErrDimensionMismatch, nil,
			"query has %d dimensions, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	scores := make([]*VectorResult, len(m.ids))
	for i, vec := range m.vectors {
		scores[i] = &VectorResult{ID: m.ids[i], Score: InnerProduct(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Save persists the index to a bbolt file at path, replacing any previous file.
// Keys are big-endian sequence numbers so iteration restores insertion order.
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous index file: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		dim := make([]byte, 4)
		binary.BigEndian.PutUint32(dim, uint32(m.dimensions))
		if err := meta.Put(keyDimensions, dim); err != nil {
			return fmt.Errorf("write dimensions: %w", err)
		}
		ids, err := tx.CreateBucket(bucketIDs)
		if err != nil {
			return err
		}
		vecs, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		for i, id := range m.ids {
			key := sequenceKey(uint64(i))
			if err := ids.Put(key, []byte(id)); err != nil {
				return fmt.Errorf("write id: %w", err)
			}
			if err := vecs.Put(key, float32SliceToBytes(m.vectors[i])); err != nil {
				return fmt.Errorf("write vector: %w", err)
			}
		}
		return nil
	})
}

// Load reads the index from path and replaces the in-memory contents. Dimensions must match.
// If the file does not exist, no error is returned, no file is created and the index is unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat index file: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer db.Close()

	var ids []string
	var vectors [][]float32
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		idBucket := tx.Bucket(bucketIDs)
		vecBucket := tx.Bucket(bucketVectors)
		if meta == nil || idBucket == nil || vecBucket == nil {
			return fmt.Errorf("index file %s is missing buckets", path)
		}
		dim := meta.Get(keyDimensions)
		if len(dim) != 4 {
			return fmt.Errorf("read dimensions: malformed value")
		}
		if got := int(binary.BigEndian.Uint32(dim)); got != m.dimensions {
			return models.Wrap(models.ErrDimensionMismatch, nil,
				"file has %d dimensions, index expects %d", got, m.dimensions)
		}
		return idBucket.ForEach(func(k, v []byte) error {
			raw := vecBucket.Get(k)
			if len(raw) != m.dimensions*4 {
				return fmt.Errorf("read vector %s: got %d bytes", v, len(raw))
			}
			ids = append(ids, string(v))
			vectors = append(vectors, bytesToFloat32Slice(raw))
			return nil
		})
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = ids
	m.vectors = vectors
	m.positions = make(map[string]int, len(ids))
	for i, id := range ids {
		m.positions[id] = i
	}
	return nil
}

func sequenceKey(n uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, n)
	return key
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
