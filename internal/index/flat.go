// Package index provides an exact flat inner-product vector index and the
// on-disk persistence of its artifacts. The corpus is a single document's
// chunks, so a linear scan beats any approximate structure at this size.
package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Hit is one search result: the vector's position in the index and its
// inner-product score against the query.
type Hit struct {
	Pos   int
	Score float32
}

// Flat is a brute-force inner-product index. With L2-normalized vectors the
// inner product equals cosine similarity.
type Flat struct {
	dim  int
	vecs [][]float32
}

// Build replaces the index contents with the given vectors in one shot.
func (f *Flat) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		f.dim, f.vecs = 0, nil
		return nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return errors.New("index: zero-dimension vectors")
	}
	for i := range vectors {
		if len(vectors[i]) != dim {
			return fmt.Errorf("index: inconsistent vector dims %d vs %d", len(vectors[i]), dim)
		}
	}
	f.dim = dim
	f.vecs = append([][]float32(nil), vectors...)
	return nil
}

// Len reports the number of stored vectors.
func (f *Flat) Len() int { return len(f.vecs) }

// Dim reports the vector dimension, 0 when empty.
func (f *Flat) Dim() int { return f.dim }

// Search returns up to k hits sorted by descending score. k larger than the
// index size returns everything; an empty index returns nothing.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if f.dim == 0 || len(f.vecs) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("index: query dim %d != index dim %d", len(query), f.dim)
	}
	hits := make([]Hit, len(f.vecs))
	for i := range f.vecs {
		hits[i] = Hit{Pos: i, Score: dot(query, f.vecs[i])}
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// MarshalBinary stores: dim(uint32), n(uint32), then n*dim float32 values,
// all little-endian.
func (f *Flat) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, 8+4*f.dim*len(f.vecs))
	var b [4]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(b[:], v)
		out = append(out, b[:]...)
	}
	putU32(uint32(f.dim))
	putU32(uint32(len(f.vecs)))
	for _, vec := range f.vecs {
		for _, x := range vec {
			putU32(math.Float32bits(x))
		}
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes.
func (f *Flat) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("index: invalid data")
	}
	dim64 := int64(binary.LittleEndian.Uint32(data[0:4]))
	n64 := int64(binary.LittleEndian.Uint32(data[4:8]))
	// bound both counts by the payload before multiplying, so a corrupt
	// header can neither overflow the size check nor drive a huge allocation
	limit := int64(len(data)) / 4
	if dim64 > limit || n64 > limit {
		return errors.New("index: invalid header")
	}
	if need := 8 + 4*dim64*n64; int64(len(data)) != need {
		return fmt.Errorf("index: truncated data: have %d bytes, want %d", len(data), need)
	}
	dim, n := int(dim64), int(n64)
	off := 8
	vecs := make([][]float32, n)
	for i := 0; i < n; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vecs[i] = vec
	}
	if n == 0 {
		dim = 0
	}
	f.dim = dim
	f.vecs = vecs
	return nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
