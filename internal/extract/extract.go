package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Page is one page of extracted document text. Numbers are 1-indexed and
// pages that end up empty after normalization are omitted entirely.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Pages extracts normalized text from every page of the PDF at path.
// Extraction is all-or-nothing: a page that fails to read aborts the whole
// call so callers never index a partially extracted document.
func Pages(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]Page, 0, total)
	for num := 1; num <= total; num++ {
		p := r.Page(num)
		if p.V.IsNull() {
			continue
		}
		raw, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", num, err)
		}
		text := Normalize(Sanitize(raw))
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: num, Text: text})
	}
	return pages, nil
}
