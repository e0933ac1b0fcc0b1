// Package extract loads the source document and extracts its text page by page.
package extract

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/banglaqa/internal/fileid"
	"github.com/hyperjump/banglaqa/internal/models"
)

// Parser turns a source file into a Document with one entry per page.
type Parser interface {
	Parse(ctx context.Context, path string) (*models.Document, error)
}

// CheckSource verifies that path names an existing regular file with a .pdf extension
// (case-insensitive). Existence is checked first.
func CheckSource(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, models.Wrap(models.ErrFileNotFound, err, "source document %s", path)
	}
	if info.IsDir() {
		return nil, models.Wrap(models.ErrFileNotFound, nil, "%s is a directory, not a document", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, models.Wrap(models.ErrUnsupportedFormat, nil,
			"%s: only .pdf documents are supported", path)
	}
	return info, nil
}

// PDFParser extracts per-page text from PDF files.
type PDFParser struct{}

// NewPDFParser returns a new PDFParser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse validates path, reads the file and returns its pages. The document ID is derived
// from the absolute path.
func (p *PDFParser) Parse(ctx context.Context, path string) (*models.Document, error) {
	info, err := CheckSource(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, models.Wrap(models.ErrDocumentParse, err, "read %s", abs)
	}
	pages, err := extractPDFPages(content)
	if err != nil {
		return nil, models.Wrap(models.ErrDocumentParse, err, "parse %s", abs)
	}
	return &models.Document{
		ID:      fileid.FileDocID(abs),
		Source:  abs,
		Pages:   pages,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
