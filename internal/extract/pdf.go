package extract

import (
	"bytes"
	"fmt"

	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/ledongthuc/pdf"
)

// extractPDFPages returns the plain text of every page, numbered from 1. Pages without a
// page object keep their number with empty text.
func extractPDFPages(content []byte) (pages []models.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages = make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, models.Page{Number: i, Text: text})
	}
	return pages, nil
}
