// Package chunker splits knowledge text into overlapping word windows
// suitable for retrieval indexing.
package chunker

import "strings"

const (
	DefaultChunkSize = 700
	DefaultOverlap   = 120
)

// WordChunker slides a fixed-size word window over the text, advancing by
// chunkSize-overlap words each step.
type WordChunker struct {
	chunkSize int
	overlap   int
}

func NewWordChunker(chunkSize, overlap int) *WordChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &WordChunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk returns the trimmed, non-empty word windows of text in document
// order. Window tokens are re-joined with single spaces. When overlap >=
// chunkSize the step would not advance; the loop stops after the first
// window instead of spinning.
func (c *WordChunker) Chunk(text string) []string {
	words := strings.Fields(text)
	var chunks []string
	for i := 0; i < len(words); {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		step := c.chunkSize - c.overlap
		if step <= 0 {
			break
		}
		i += step
	}
	out := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		ch = strings.TrimSpace(ch)
		if ch != "" {
			out = append(out, ch)
		}
	}
	return out
}
