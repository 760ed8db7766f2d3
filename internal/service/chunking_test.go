package service

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100, 20)

	chunks := c.SplitAll("hello world")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "hello world" {
		t.Errorf("chunk content = %q, want original text", chunks[0].Content)
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunker(10, 2)

	for _, text := range []string{"", "   ", "\n\t \n"} {
		if chunks := c.SplitAll(text); len(chunks) != 0 {
			t.Errorf("SplitAll(%q) = %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestSplitOverlapAndReconstruction(t *testing.T) {
	const max, overlap = 10, 2
	c := NewChunker(max, overlap)

	// 3*max-1 runes with no boundary characters, so every cut lands on the
	// hard ceiling.
	text := strings.Repeat("abcdefghij", 3)[:3*max-1]
	chunks := c.SplitAll(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		curr := []rune(chunks[i].Content)
		tail := string(prev[len(prev)-overlap:])
		head := string(curr[:overlap])
		if tail != head {
			t.Errorf("chunks %d/%d overlap mismatch: %q vs %q", i-1, i, tail, head)
		}
		if chunks[i].Index != i {
			t.Errorf("chunk %d has index %d", i, chunks[i].Index)
		}
	}

	// Concatenating with the shared overlap removed reconstructs the input.
	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		curr := []rune(chunks[i].Content)
		b.WriteString(string(curr[overlap:]))
	}
	if b.String() != text {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", b.String(), text)
	}
}

func TestSplitChunkBudget(t *testing.T) {
	const max, overlap = 50, 10
	c := NewChunker(max, overlap)

	text := strings.Repeat("lorem ipsum dolor sit amet. ", 40)
	for _, chunk := range c.SplitAll(text) {
		if n := len([]rune(chunk.Content)); n > max {
			t.Errorf("chunk %d has %d runes, budget is %d", chunk.Index, n, max)
		}
	}
}

func TestSplitPrefersBoundaries(t *testing.T) {
	c := NewChunker(20, 3)

	text := "First sentence here. Second one follows after that and keeps going."
	chunks := c.SplitAll(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, ".") {
		t.Errorf("first chunk %q should end at the sentence boundary", chunks[0].Content)
	}
}

func TestSplitParagraphBreakBeatsSentenceEnd(t *testing.T) {
	c := NewChunker(30, 4)

	text := "A short lead. More\nrest of the paragraph continues well past the budget here"
	chunks := c.SplitAll(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, "\n") {
		t.Errorf("first chunk %q should end at the paragraph break", chunks[0].Content)
	}
}

func TestSplitIsLazy(t *testing.T) {
	c := NewChunker(10, 2)
	text := strings.Repeat("x", 1000)

	seen := 0
	for range c.Split(text) {
		seen++
		if seen == 3 {
			break
		}
	}
	if seen != 3 {
		t.Errorf("early break consumed %d chunks, want 3", seen)
	}
}

func TestSplitMakesProgressWithLargeOverlap(t *testing.T) {
	// Overlap gets clamped to max-1; the cut floor still guarantees each
	// chunk advances.
	c := NewChunker(5, 10)
	text := strings.Repeat("y", 40)

	chunks := c.SplitAll(text)
	if len(chunks) == 0 || len(chunks) > 40 {
		t.Fatalf("unexpected chunk count %d", len(chunks))
	}
}

func TestSplitUnicodeRuneCounting(t *testing.T) {
	c := NewChunker(4, 1)

	text := "日本語のテキストです"
	for _, chunk := range c.SplitAll(text) {
		if n := len([]rune(chunk.Content)); n > 4 {
			t.Errorf("chunk %q has %d runes, budget is 4", chunk.Content, n)
		}
	}
}
