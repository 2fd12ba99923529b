package chunk

import (
	"fmt"
	"path/filepath"
	"strings"

	"docindex/internal/extract"
)

// Item is one retrievable unit ready for storage. The store assigns its
// identity and timestamp on insert.
type Item struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Build turns extracted pages into chunk items. Each page is prefixed with a
// page marker before splitting, and every chunk's content carries the
// document-name heading so the embedding keeps document-level context.
// Chunk indexes restart at 1 on every page.
func Build(docPath string, pages []extract.Page, size, overlap int) []Item {
	stem := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	items := make([]Item, 0, len(pages))
	for _, pg := range pages {
		if pg.Text == "" {
			continue
		}
		marked := fmt.Sprintf("## Page %d\n\n%s", pg.Number, pg.Text)
		for idx, piece := range Split(marked, size, overlap) {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			items = append(items, Item{
				Title:   fmt.Sprintf("%s p%d c%d", stem, pg.Number, idx+1),
				Content: strings.TrimSpace(fmt.Sprintf("# %s\n\n%s", stem, piece)),
				Source:  fmt.Sprintf("%s#page=%d", docPath, pg.Number),
			})
		}
	}
	return items
}
