// Package retriever owns the vector index and chunk store lifecycle: build
// from the knowledge document or load persisted artifacts, then serve top-k
// lookups.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/careflow/hospital-chatbot/config"
	"github.com/careflow/hospital-chatbot/internal/chunker"
	"github.com/careflow/hospital-chatbot/internal/embedding"
	"github.com/careflow/hospital-chatbot/internal/index"
)

// Knowledge-file problems are configuration errors: fatal to chatbot
// initialization, never silently swallowed.
var (
	ErrKnowledgeMissing = errors.New("knowledge file not found")
	ErrKnowledgeEmpty   = errors.New("knowledge file is empty")
)

// Result is one retrieved chunk with its similarity score.
type Result struct {
	Text  string
	Score float32
}

// KeywordHit is one BM25 match from the keyword index.
type KeywordHit struct {
	Pos   int     `json:"pos"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type Retriever struct {
	cfg    config.KnowledgeConfig
	base   embedding.Embedder
	store  *index.ArtifactStore
	logger *log.Logger

	mu       sync.RWMutex
	idx      *index.Flat
	chunks   []string
	embedder embedding.Embedder
	keyword  bleve.Index
	loaded   bool
	loadOnce sync.Once
	loadErr  error
}

func New(cfg config.KnowledgeConfig, embedder embedding.Embedder, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = log.New(log.Writer(), "[RETRIEVER] ", log.LstdFlags)
	}
	return &Retriever{
		cfg:    cfg,
		base:   embedder,
		store:  index.NewArtifactStore(cfg.IndexFile, cfg.StoreFile),
		logger: logger,
	}
}

// Init loads existing artifacts when both are present, falling back to a
// full rebuild on any load error, and builds fresh artifacts otherwise.
func (r *Retriever) Init(ctx context.Context) error {
	if r.store.Exists() {
		idx, chunks, err := r.store.Load()
		if err == nil {
			return r.install(idx, chunks)
		}
		r.logger.Printf("failed to load existing index, rebuilding: %v", err)
	}
	return r.Rebuild(ctx)
}

// Rebuild chunks the knowledge document, embeds every chunk, builds the
// index and persists both artifacts. Missing or empty knowledge is a
// configuration error and fails hard.
func (r *Retriever) Rebuild(ctx context.Context) error {
	raw, err := os.ReadFile(r.cfg.File)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrKnowledgeMissing, r.cfg.File)
		}
		return fmt.Errorf("reading knowledge file: %w", err)
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s", ErrKnowledgeEmpty, r.cfg.File)
	}

	chunks := chunker.NewWordChunker(r.cfg.ChunkSize, r.cfg.Overlap).Chunk(text)
	if len(chunks) == 0 {
		chunks = []string{text}
	}

	emb, err := r.preparedEmbedder(chunks)
	if err != nil {
		return err
	}
	vectors, err := emb.EmbedMany(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding knowledge chunks: %w", err)
	}

	idx := &index.Flat{}
	if err := idx.Build(vectors); err != nil {
		return err
	}
	if err := r.store.Save(idx, chunks); err != nil {
		return err
	}
	r.logger.Printf("indexed %d chunks from %s", len(chunks), r.cfg.File)
	return r.installWith(idx, chunks, emb)
}

// preparedEmbedder stages a corpus-trained embedder (TF-IDF) for the chunk
// list without touching the one serving live queries. Embedders that do not
// depend on the corpus are used as-is.
func (r *Retriever) preparedEmbedder(chunks []string) (embedding.Embedder, error) {
	if ct, ok := r.base.(embedding.CorpusTrained); ok {
		emb, err := ct.Prepared(chunks)
		if err != nil {
			return nil, fmt.Errorf("preparing embedder: %w", err)
		}
		return emb, nil
	}
	return r.base, nil
}

// install stages an embedder for loaded artifacts and swaps everything in.
func (r *Retriever) install(idx *index.Flat, chunks []string) error {
	emb, err := r.preparedEmbedder(chunks)
	if err != nil {
		return err
	}
	return r.installWith(idx, chunks, emb)
}

// installWith swaps in a freshly built or loaded index together with the
// embedder it was built with. Readers see either the old triple or the new
// one, never a mix; a query embedded with the new vocabulary never searches
// the old index.
func (r *Retriever) installWith(idx *index.Flat, chunks []string, emb embedding.Embedder) error {
	kw, err := buildKeywordIndex(chunks)
	if err != nil {
		return fmt.Errorf("building keyword index: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keyword != nil {
		_ = r.keyword.Close()
	}
	r.idx = idx
	r.chunks = chunks
	r.embedder = emb
	r.keyword = kw
	r.loaded = true
	return nil
}

// Ready reports whether an index is in memory or loadable from disk.
func (r *Retriever) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// ensureLoaded covers the lazy-first-load path: at most one load attempt per
// process when Init was skipped.
func (r *Retriever) ensureLoaded() error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	r.loadOnce.Do(func() {
		idx, chunks, err := r.store.Load()
		if err != nil {
			r.loadErr = err
			return
		}
		r.loadErr = r.install(idx, chunks)
	})
	r.mu.RLock()
	loaded = r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.loadErr
}

// Retrieve returns the top-k chunks for the query, sorted by descending
// similarity. Blank queries return nothing. Embedding failure degrades to an
// empty result so the caller can still answer, just ungrounded.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []Result {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if err := r.ensureLoaded(); err != nil {
		r.logger.Printf("index unavailable: %v", err)
		return nil
	}
	if k <= 0 {
		k = r.cfg.TopK
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	qv, err := embedding.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		r.logger.Printf("embedding error: %v", err)
		return nil
	}

	hits, err := r.idx.Search(qv, k)
	if err != nil {
		r.logger.Printf("search error: %v", err)
		return nil
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Pos >= 0 && h.Pos < len(r.chunks) {
			results = append(results, Result{Text: r.chunks[h.Pos], Score: h.Score})
		}
	}
	return results
}

// Keyword runs a BM25 query over the chunk list.
func (r *Retriever) Keyword(q string, k int) ([]KeywordHit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = r.cfg.TopK
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := r.keyword.Search(req)
	if err != nil {
		return nil, err
	}
	var out []KeywordHit
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(r.chunks) {
			continue
		}
		out = append(out, KeywordHit{Pos: pos, Text: r.chunks[pos], Score: hit.Score})
	}
	return out, nil
}

type keywordDoc struct {
	Text string `json:"text"`
}

func buildKeywordIndex(chunks []string) (bleve.Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	for i, c := range chunks {
		if err := idx.Index(strconv.Itoa(i), keywordDoc{Text: c}); err != nil {
			_ = idx.Close()
			return nil, err
		}
	}
	return idx, nil
}
