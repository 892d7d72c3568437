package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/careflow/hospital-chatbot/internal/session"
	"github.com/careflow/hospital-chatbot/provider"
)

type stubLLM struct {
	answer string
	err    error
	got    []provider.Message
}

func (s *stubLLM) ChatCompletion(_ context.Context, msgs []provider.Message) (string, error) {
	s.got = msgs
	return s.answer, s.err
}

func (s *stubLLM) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func TestGenerateMissingKey(t *testing.T) {
	g := New(nil, true)
	got := g.Generate(context.Background(), "hi", nil, nil)
	if got != MsgAPIKeyMissing {
		t.Fatalf("want missing-key message, got %q", got)
	}
}

func TestGenerateNilClient(t *testing.T) {
	g := New(nil, false)
	if got := g.Generate(context.Background(), "hi", nil, nil); got != MsgClientUnavailable {
		t.Fatalf("want client-unavailable message, got %q", got)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	llm := &stubLLM{err: errors.New("boom")}
	g := New(llm, false)
	got := g.Generate(context.Background(), "hi", nil, nil)
	if got != "Failed to generate answer: boom" {
		t.Fatalf("unexpected failure message: %q", got)
	}
}

func TestGenerateTrimsAnswer(t *testing.T) {
	llm := &stubLLM{answer: "  The pharmacy is on the ground floor.\n"}
	g := New(llm, false)
	got := g.Generate(context.Background(), "where is the pharmacy", nil, nil)
	if got != "The pharmacy is on the ground floor." {
		t.Fatalf("answer not trimmed: %q", got)
	}
}

func TestPromptAssembly(t *testing.T) {
	llm := &stubLLM{answer: "ok"}
	g := New(llm, false)
	chunks := []string{"visiting hours are 9am to 5pm", "parking is free"}
	history := []session.Message{
		{Role: session.RoleUser, Content: "hello"},
		{Role: session.RoleAssistant, Content: "hi there"},
		{Role: "tool", Content: "ignored"},
	}
	g.Generate(context.Background(), "when can I visit?", chunks, history)

	msgs := llm.got
	// persona + knowledge + 2 history turns + query; the "tool" role is dropped
	if len(msgs) != 5 {
		t.Fatalf("want 5 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "hospital information assistant") {
		t.Fatalf("first message should be the persona: %+v", msgs[0])
	}
	if msgs[1].Role != "system" {
		t.Fatalf("second message should be the knowledge base: %+v", msgs[1])
	}
	want := "- visiting hours are 9am to 5pm\n\n- parking is free"
	if !strings.Contains(msgs[1].Content, want) {
		t.Fatalf("knowledge message missing chunk list:\n%s", msgs[1].Content)
	}
	if msgs[2].Content != "hello" || msgs[3].Content != "hi there" {
		t.Fatalf("history not carried through: %+v", msgs[2:4])
	}
	last := msgs[len(msgs)-1]
	if last.Role != "user" || last.Content != "when can I visit?" {
		t.Fatalf("query must come last: %+v", last)
	}
}

func TestPromptEmptyContextPlaceholder(t *testing.T) {
	llm := &stubLLM{answer: "ok"}
	g := New(llm, false)
	g.Generate(context.Background(), "hi", nil, nil)
	if !strings.Contains(llm.got[1].Content, noKnowledgePlaceholder) {
		t.Fatalf("empty context should use placeholder:\n%s", llm.got[1].Content)
	}
}

func TestPromptHistoryCap(t *testing.T) {
	llm := &stubLLM{answer: "ok"}
	g := New(llm, false)
	var history []session.Message
	for i := 0; i < 20; i++ {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		history = append(history, session.Message{Role: role, Content: "turn"})
	}
	g.Generate(context.Background(), "q", nil, history)
	// 2 system + capped history + query
	if len(llm.got) != 2+historyCap+1 {
		t.Fatalf("history not capped: got %d messages", len(llm.got))
	}
}
