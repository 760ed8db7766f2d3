package service

import (
	"iter"
	"strings"
)

// Chunk is one embeddable unit of a larger document.
type Chunk struct {
	Index   int
	Content string
}

// Chunker splits long text into bounded, overlapping chunks so every unit
// stays under the embedding provider's input ceiling. Consecutive chunks
// share exactly Overlap characters; splits land on paragraph or sentence
// boundaries when one exists inside the chunk budget.
type Chunker struct {
	MaxChunkChars int
	OverlapChars  int
}

// NewChunker creates a Chunker, clamping overlap to maxChunkChars-1.
func NewChunker(maxChunkChars, overlapChars int) *Chunker {
	if maxChunkChars < 1 {
		maxChunkChars = 1
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars > maxChunkChars-1 {
		overlapChars = maxChunkChars - 1
	}
	return &Chunker{MaxChunkChars: maxChunkChars, OverlapChars: overlapChars}
}

// Split returns a lazy, ordered sequence of chunks. The sequence is
// deterministic for a given input; whitespace-only input yields nothing.
// Lengths and overlaps are measured in runes.
func (c *Chunker) Split(text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		runes := []rune(text)
		start := 0
		index := 0
		for start < len(runes) {
			end := start + c.MaxChunkChars
			if end >= len(runes) {
				end = len(runes)
			} else {
				end = c.cutPoint(runes, start, end)
			}

			if !yield(Chunk{Index: index, Content: string(runes[start:end])}) {
				return
			}
			if end == len(runes) {
				return
			}
			start = end - c.OverlapChars
			index++
		}
	}
}

// SplitAll collects the full chunk sequence, for callers that need it eagerly.
func (c *Chunker) SplitAll(text string) []Chunk {
	var chunks []Chunk
	for chunk := range c.Split(text) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// cutPoint picks where the chunk starting at start should end, given the hard
// ceiling hardEnd. It prefers the rightmost paragraph break, then the
// rightmost sentence end, but never cuts so early that the next chunk would
// fail to advance past the overlap.
func (c *Chunker) cutPoint(runes []rune, start, hardEnd int) int {
	minCut := start + c.OverlapChars + 1
	if half := start + c.MaxChunkChars/2; half > minCut {
		minCut = half
	}
	if minCut >= hardEnd {
		return hardEnd
	}

	for i := hardEnd; i > minCut; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := hardEnd; i > minCut; i-- {
		if isSentenceEnd(runes[i-1]) {
			return i
		}
	}
	return hardEnd
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
