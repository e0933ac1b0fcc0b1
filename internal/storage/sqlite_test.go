package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/banglaqa/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "index", "segments.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSegments() []*models.Segment {
	return []*models.Segment{
		{ID: "doc_1", DocumentID: "doc", Source: "/tmp/FAQ.pdf", Page: 1, Index: 0, Content: "বাংলাদেশের রাজধানী ঢাকা।"},
		{ID: "doc_2", DocumentID: "doc", Source: "/tmp/FAQ.pdf", Page: 1, Index: 1, Content: "ঢাকা একটি বড় শহর।"},
		{ID: "doc_3", DocumentID: "doc", Source: "/tmp/FAQ.pdf", Page: 2, Index: 2, Content: "পদ্মা একটি নদী।"},
	}
}

func TestSQLiteStorage_Segments(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.ReplaceSegments(ctx, testSegments()); err != nil {
		t.Fatal(err)
	}
	n, err := store.CountSegments(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountSegments = %d, %v", n, err)
	}

	list, err := store.ListSegments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range testSegments() {
		if *list[i] != *want {
			t.Errorf("segment %d: got %+v, want %+v", i, list[i], want)
		}
	}
}

func TestSQLiteStorage_ReplaceSegmentsClearsManifest(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.ReplaceSegments(ctx, testSegments()); err != nil {
		t.Fatal(err)
	}
	if err := store.PutManifest(ctx, &models.Manifest{Segments: 3}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceSegments(ctx, testSegments()[:1]); err != nil {
		t.Fatal(err)
	}
	m, err := store.GetManifest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Errorf("manifest should be cleared, got %+v", m)
	}
	if n, _ := store.CountSegments(ctx); n != 1 {
		t.Errorf("CountSegments = %d, want 1", n)
	}
}

func TestSQLiteStorage_Manifest(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	m, err := store.GetManifest(ctx)
	if err != nil || m != nil {
		t.Fatalf("empty store: manifest=%v err=%v", m, err)
	}

	want := &models.Manifest{
		Space:         models.EmbeddingSpace{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536},
		Source:        "/tmp/FAQ.pdf",
		SourceSize:    2048,
		SourceModTime: 1700000000000000000,
		ChunkSize:     1000,
		ChunkOverlap:  200,
		Segments:      3,
		BuildID:       "build-1",
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := store.PutManifest(ctx, want); err != nil {
		t.Fatal(err)
	}
	want.BuildID = "build-2"
	if err := store.PutManifest(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetManifest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Space != want.Space || got.BuildID != "build-2" || got.SourceModTime != want.SourceModTime {
		t.Errorf("manifest round trip: %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created_at = %v", got.CreatedAt)
	}
}

func TestReadOnlySQLiteStorage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segments.db")
	ctx := context.Background()

	if _, err := NewReadOnlySQLiteStorage(path); err == nil {
		t.Fatal("expected error for missing database")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("read-only open must not create %s", path)
	}

	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceSegments(ctx, testSegments()); err != nil {
		t.Fatal(err)
	}
	if err := store.PutManifest(ctx, &models.Manifest{Segments: 3}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	before := dirEntries(t, dir)

	var ro Storage
	ro, err = NewReadOnlySQLiteStorage(path)
	if err != nil {
		t.Fatalf("NewReadOnlySQLiteStorage: %v", err)
	}
	if n, err := ro.CountSegments(ctx); err != nil || n != 3 {
		t.Errorf("CountSegments = %d, %v", n, err)
	}
	if m, err := ro.GetManifest(ctx); err != nil || m == nil || m.Segments != 3 {
		t.Errorf("GetManifest = %+v, %v", m, err)
	}
	if err := ro.PutManifest(ctx, &models.Manifest{Segments: 1}); err == nil {
		t.Error("expected write to fail on read-only storage")
	}
	if err := ro.Close(); err != nil {
		t.Fatal(err)
	}

	if after := dirEntries(t, dir); !equalStrings(before, after) {
		t.Errorf("read-only open changed the directory: before %v, after %v", before, after)
	}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
