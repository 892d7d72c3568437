// Package generator assembles the grounded prompt and calls the LLM
// completion service. Every failure mode surfaces as an answer string, never
// as an error crossing the HTTP boundary.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/careflow/hospital-chatbot/internal/session"
	"github.com/careflow/hospital-chatbot/provider"
)

const (
	// historyCap bounds how much prior conversation reaches the prompt.
	historyCap = 12

	systemPrompt = "You are a hospital information assistant for a single specific hospital." +
		"\n- For factual questions about the hospital (services, hours, contacts, policies), rely ONLY on the provided 'Hospital knowledge base'." +
		"\n- If the required hospital fact is not present in the knowledge base, say: 'I can only answer questions about this hospital based on available information.'" +
		"\n- You may use the prior chat messages to maintain conversation context or to answer questions about the conversation itself (e.g., 'what was my first question?')." +
		"\n- Keep answers concise and accurate."

	noKnowledgePlaceholder = "(No hospital knowledge provided.)"

	// MsgAPIKeyMissing is returned verbatim when generation is disabled for
	// lack of credentials. Retrieval still works in that state.
	MsgAPIKeyMissing = "The language model API key is not configured on the server. " +
		"Please set GROQ_API_KEY in the environment."

	// MsgClientUnavailable is returned when no LLM client could be
	// constructed at all.
	MsgClientUnavailable = "The language model client is not available on the server."
)

type Generator struct {
	llm provider.Provider
	// missingKey distinguishes absent credentials from a broken client.
	missingKey bool
}

func New(llm provider.Provider, missingKey bool) *Generator {
	return &Generator{llm: llm, missingKey: missingKey}
}

// Generate produces the answer for query given retrieved context and prior
// history. The returned string is always conversational-shaped: provider
// failures of any kind are folded into it.
func (g *Generator) Generate(ctx context.Context, query string, contextChunks []string, history []session.Message) string {
	if g.missingKey {
		return MsgAPIKeyMissing
	}
	if g.llm == nil {
		return MsgClientUnavailable
	}

	messages := buildMessages(query, contextChunks, history)
	answer, err := g.llm.ChatCompletion(ctx, messages)
	if err != nil {
		return fmt.Sprintf("Failed to generate answer: %v", err)
	}
	return strings.TrimSpace(answer)
}

// buildMessages assembles the prompt: persona/grounding system message,
// knowledge-base system message, capped prior turns, then the query.
func buildMessages(query string, contextChunks []string, history []session.Message) []provider.Message {
	contextText := noKnowledgePlaceholder
	if len(contextChunks) > 0 {
		prefixed := make([]string, len(contextChunks))
		for i, c := range contextChunks {
			prefixed[i] = "- " + c
		}
		contextText = strings.Join(prefixed, "\n\n")
	}
	contextSystem := "Hospital knowledge base (authoritative for hospital facts; do NOT invent facts beyond this):\n" + contextText

	messages := []provider.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "system", Content: contextSystem},
	}
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	for _, m := range history {
		if m.Role == session.RoleUser || m.Role == session.RoleAssistant {
			messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
		}
	}
	return append(messages, provider.Message{Role: "user", Content: query})
}
