// Package embedding maps text to fixed-dimension L2-normalized vectors.
// Two implementations exist: a local TF-IDF vectorizer trained on the chunk
// corpus, and a remote client for an OpenAI-compatible embeddings endpoint.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Embedder converts texts into normalized vectors, one per input,
// preserving order.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// CorpusTrained is implemented by embedders whose vectors depend on the
// chunk corpus. Prepared returns a fresh embedder trained on corpus and
// leaves the receiver untouched, so queries against a live index keep the
// vocabulary that index was built with while a rebuild stages the next one.
type CorpusTrained interface {
	Prepared(corpus []string) (Embedder, error)
}

// EmbedOne embeds a single query string.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding: expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}

// Provider is the subset of the LLM provider used for remote embeddings.
type Provider interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Remote embeds via the provider's embeddings endpoint.
type Remote struct {
	provider Provider
}

func NewRemote(provider Provider) *Remote {
	return &Remote{provider: provider}
}

func (e *Remote) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.provider == nil {
		return nil, fmt.Errorf("embedding provider not configured")
	}
	vecs, err := e.provider.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(vecs), len(texts))
	}
	for i := range vecs {
		Normalize(vecs[i])
	}
	return vecs, nil
}

// Normalize scales v to unit L2 norm in place. Zero vectors are left as-is.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
