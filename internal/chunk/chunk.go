package chunk

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultSize    = 3600
	DefaultOverlap = 600
)

// Boundary preference for splitting, largest structure first. Text with no
// structure at all falls back to a fixed-step character window.
var separators = []string{"\n\n", "\n", " "}

// Split cuts text into pieces of at most size runes, preferring paragraph
// boundaries over line boundaries over word boundaries over raw character
// positions. Consecutive pieces overlap by up to overlap runes so a cut
// does not separate a sentence from its antecedent. Pieces are trimmed and
// empty pieces are dropped.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return splitRecursive(text, size, overlap, separators)
}

func splitRecursive(text string, size, overlap int, seps []string) []string {
	if utf8.RuneCountInString(text) <= size {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}

	sep := ""
	var rest []string
	found := false
	for i, s := range seps {
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			found = true
			break
		}
	}
	if !found {
		return window(text, size, overlap)
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	good := make([]string, 0, len(parts))
	for _, p := range parts {
		if utf8.RuneCountInString(p) <= size {
			good = append(good, p)
			continue
		}
		// Oversized piece: flush what we have, then descend one boundary level.
		if len(good) > 0 {
			out = append(out, merge(good, sep, size, overlap)...)
			good = good[:0]
		}
		out = append(out, splitRecursive(p, size, overlap, rest)...)
	}
	if len(good) > 0 {
		out = append(out, merge(good, sep, size, overlap)...)
	}
	return out
}

// merge joins small splits back together greedily up to size runes, carrying
// up to overlap runes of trailing splits into the next piece.
func merge(parts []string, sep string, size, overlap int) []string {
	sepLen := utf8.RuneCountInString(sep)
	docs := make([]string, 0)
	cur := make([]string, 0)
	total := 0
	for _, part := range parts {
		l := utf8.RuneCountInString(part)
		extra := 0
		if len(cur) > 0 {
			extra = sepLen
		}
		if total+l+extra > size && len(cur) > 0 {
			if doc := strings.TrimSpace(strings.Join(cur, sep)); doc != "" {
				docs = append(docs, doc)
			}
			for len(cur) > 0 && (total > overlap || total+l+sepLen > size) {
				drop := utf8.RuneCountInString(cur[0])
				if len(cur) > 1 {
					drop += sepLen
				}
				total -= drop
				cur = cur[1:]
			}
		}
		cur = append(cur, part)
		total += l
		if len(cur) > 1 {
			total += sepLen
		}
	}
	if doc := strings.TrimSpace(strings.Join(cur, sep)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// window is the character-level fallback: fixed-size slices advancing by
// size-overlap runes.
func window(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}
	out := make([]string, 0)
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[i:end]))
		if part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
