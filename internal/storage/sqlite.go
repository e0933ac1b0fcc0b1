package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/banglaqa/internal/models"
)

const manifestKey = "manifest"

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// NewReadOnlySQLiteStorage opens an existing database at dbPath without modifying it.
// No schema is created and no journal or shared-memory files are written; every
// write through the returned storage fails.
func NewReadOnlySQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite3", readOnlyDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// readOnlyDSN builds a SQLite URI filename. immutable=1 skips locking and the
// WAL shared-memory file, so nothing is created next to the database.
func readOnlyDSN(dbPath string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(filepath.ToSlash(dbPath))
	return "file:" + escaped + "?mode=ro&immutable=1"
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS segments (
		seq INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		document_id TEXT NOT NULL,
		source TEXT NOT NULL,
		page INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_segments_document ON segments(document_id, chunk_index);

	CREATE TABLE IF NOT EXISTS index_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceSegments removes every stored segment and the manifest, then inserts segments in
// order inside one transaction. The manifest is cleared so a build interrupted before
// PutManifest leaves no loadable index behind.
func (s *SQLiteStorage) ReplaceSegments(ctx context.Context, segments []*models.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_meta`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM segments`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (seq, id, document_id, source, page, chunk_index, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, seg := range segments {
		if _, err := stmt.ExecContext(ctx, i, seg.ID, seg.DocumentID, seg.Source, seg.Page, seg.Index, seg.Content, now); err != nil {
			return fmt.Errorf("insert segment %s: %w", seg.ID, err)
		}
	}
	return tx.Commit()
}

// ListSegments returns all segments in insertion order.
func (s *SQLiteStorage) ListSegments(ctx context.Context) ([]*models.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, source, page, chunk_index, content
		 FROM segments ORDER BY seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.Source, &seg.Page, &seg.Index, &seg.Content); err != nil {
			return nil, err
		}
		segments = append(segments, &seg)
	}
	return segments, rows.Err()
}

// PutManifest stores the manifest as JSON, replacing any previous one.
func (s *SQLiteStorage) PutManifest(ctx context.Context, manifest *models.Manifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO index_meta (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		manifestKey, string(data), time.Now(),
	)
	return err
}

// GetManifest returns the stored manifest, or nil without error when none has been written.
func (s *SQLiteStorage) GetManifest(ctx context.Context) (*models.Manifest, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM index_meta WHERE key = ?`, manifestKey,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var manifest models.Manifest
	if err := json.Unmarshal([]byte(data), &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// CountSegments returns the total number of segments.
func (s *SQLiteStorage) CountSegments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
