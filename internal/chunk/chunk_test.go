package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitSmallTextIsOneChunk(t *testing.T) {
	text := "a short page of text"
	chunks := Split(text, 3600, 600)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitWindowFallback(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := Split(text, 10, 2)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk: %s", chunks[0])
	}
}

func TestSplitEveryChunkWithinSize(t *testing.T) {
	paras := make([]string, 0, 80)
	for i := 0; i < 80; i++ {
		paras = append(paras, strings.Repeat("word ", 30))
	}
	text := strings.Join(paras, "\n\n")
	for _, size := range []int{100, 500, 3600} {
		overlap := size / 6
		for i, c := range Split(text, size, overlap) {
			if n := utf8.RuneCountInString(c); n > size {
				t.Fatalf("size %d: chunk %d has %d runes", size, i, n)
			}
		}
	}
}

func TestSplitWordMergeWithOverlap(t *testing.T) {
	a := strings.Repeat("a", 10)
	b := strings.Repeat("b", 10)
	c := strings.Repeat("c", 10)
	chunks := Split(a+" "+b+" "+c, 21, 10)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != a+" "+b {
		t.Fatalf("unexpected first chunk: %q", chunks[0])
	}
	if chunks[1] != b+" "+c {
		t.Fatalf("expected overlap carry in second chunk, got: %q", chunks[1])
	}
}

func TestSplitDropsEmptyPieces(t *testing.T) {
	for _, c := range Split("  \n\n  \n\n  ", 10, 2) {
		if strings.TrimSpace(c) == "" {
			t.Fatalf("emitted empty chunk")
		}
	}
}

func TestSplitInvalidOverlapDisablesIt(t *testing.T) {
	text := strings.Repeat("x", 30)
	chunks := Split(text, 10, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 non-overlapping chunks, got %d", len(chunks))
	}
}
