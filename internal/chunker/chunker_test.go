package chunker

import (
	"strings"
	"testing"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w" + string(rune('a'+i%26)) + itoa(i)
	}
	return strings.Join(w, " ")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func TestChunkCoversAllTokens(t *testing.T) {
	text := words(25)
	c := NewWordChunker(10, 3)
	chunks := c.Chunk(text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	joined := strings.Join(chunks, " ")
	for _, tok := range strings.Fields(text) {
		if !strings.Contains(joined, tok) {
			t.Fatalf("token %q missing from chunks", tok)
		}
	}
}

func TestChunkOverlap(t *testing.T) {
	text := words(30)
	chunks := NewWordChunker(10, 4).Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	// second window starts chunkSize-overlap = 6 tokens in
	if got, want := second[0], first[6]; got != want {
		t.Fatalf("second chunk starts at %q, want %q", got, want)
	}
	// the last overlap tokens of the first chunk lead the second
	for i := 0; i < 4; i++ {
		if first[6+i] != second[i] {
			t.Fatalf("overlap token %d: %q != %q", i, first[6+i], second[i])
		}
	}
}

func TestChunkTerminatesWithOverlapGteChunkSize(t *testing.T) {
	text := words(50)
	done := make(chan []string, 1)
	go func() { done <- NewWordChunker(5, 5).Chunk(text) }()
	chunks := <-done
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk for non-empty input")
	}
	chunks = NewWordChunker(5, 9).Chunk(text)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk when overlap exceeds chunk size")
	}
}

func TestChunkEmptyInput(t *testing.T) {
	if got := NewWordChunker(10, 2).Chunk(""); len(got) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(got))
	}
	if got := NewWordChunker(10, 2).Chunk("   \n\t  "); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %d", len(got))
	}
}

func TestChunkShortInput(t *testing.T) {
	chunks := NewWordChunker(700, 120).Chunk("visiting hours are 9am to 5pm")
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
	if chunks[0] != "visiting hours are 9am to 5pm" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}
