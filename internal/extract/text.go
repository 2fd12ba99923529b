package extract

import "strings"

// Sanitize removes bytes and control characters that Postgres text columns
// reject (especially NUL / 0x00 from some PDF extractors).
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	// NUL bytes are not valid in PostgreSQL text.
	s = strings.ReplaceAll(s, "\x00", "")

	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 {
			continue
		}
		r = append(r, ch)
	}
	return string(r)
}

// Normalize trims trailing whitespace per line, collapses runs of blank
// lines to a single blank line, and trims leading/trailing blank lines.
// Keeps chunk boundaries stable across re-ingestion of the same page.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			cleaned = append(cleaned, "")
		} else {
			blank = 0
			cleaned = append(cleaned, line)
		}
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
