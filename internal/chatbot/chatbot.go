// Package chatbot ties retriever, generator and session store together into
// the per-request answer flow.
package chatbot

import (
	"context"
	"errors"
	"log"

	"github.com/careflow/hospital-chatbot/config"
	"github.com/careflow/hospital-chatbot/internal/embedding"
	"github.com/careflow/hospital-chatbot/internal/generator"
	"github.com/careflow/hospital-chatbot/internal/retriever"
	"github.com/careflow/hospital-chatbot/internal/session"
	"github.com/careflow/hospital-chatbot/provider"
)

// MsgNotReady is the degraded response when the chatbot failed to
// initialize. The host application keeps serving; this endpoint answers with
// a fixed explanation instead.
const MsgNotReady = "Chatbot is not available. The knowledge index failed to initialize."

// Answer is the outcome of one chatbot request.
type Answer struct {
	Response string   `json:"response"`
	Context  []string `json:"context"`
}

// Service is the chatbot façade. Construct it once at startup with
// NewService; Ready reflects whether the retriever initialized.
type Service struct {
	Retriever *retriever.Retriever
	Generator *generator.Generator
	Sessions  session.Store
	topK      int
	ready     bool
	initErr   error
	logger    *log.Logger
}

// NewService builds the chatbot dependency graph. A knowledge-file
// configuration error leaves the service constructed but not ready; it is
// reported, not returned, so the rest of the host keeps running.
func NewService(ctx context.Context, cfg *config.Config, sessions session.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[CHATBOT] ", log.LstdFlags)
	}

	var llm provider.Provider
	missingKey := false
	llm, err := provider.NewProvider(provider.Groq, cfg.Providers.Groq)
	if err != nil {
		if errors.Is(err, provider.ErrNoAPIKey) {
			missingKey = true
		} else {
			logger.Printf("llm provider unavailable: %v", err)
		}
		llm = nil
	}

	var emb embedding.Embedder
	if cfg.Knowledge.Embedder == "groq" && llm != nil {
		emb = embedding.NewRemote(llm)
	} else {
		if cfg.Knowledge.Embedder == "groq" {
			logger.Printf("remote embedder requested but provider unavailable, using tfidf")
		}
		emb = embedding.NewTFIDF()
	}
	ret := retriever.New(cfg.Knowledge, emb, nil)

	svc := &Service{
		Retriever: ret,
		Generator: generator.New(llm, missingKey),
		Sessions:  sessions,
		topK:      cfg.Knowledge.TopK,
		logger:    logger,
	}

	if err := ret.Init(ctx); err != nil {
		svc.initErr = err
		logger.Printf("failed to initialize chatbot: %v", err)
		return svc
	}
	svc.ready = true
	return svc
}

// Ready reports whether the retriever initialized. Generation credentials
// are not required for readiness.
func (s *Service) Ready() bool { return s.ready }

// InitErr exposes the initialization failure, nil when ready.
func (s *Service) InitErr() error { return s.initErr }

// Respond answers one query with history-aware generation. Retrieval
// failures degrade to an ungrounded answer rather than erroring.
func (s *Service) Respond(ctx context.Context, query string, history []session.Message) Answer {
	retrieved := s.Retriever.Retrieve(ctx, query, s.topK)
	chunks := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		chunks = append(chunks, r.Text)
	}
	answer := s.Generator.Generate(ctx, query, chunks, history)
	return Answer{Response: answer, Context: chunks}
}
