// Package session provides bounded, session-keyed conversation history.
package session

import "context"

// Roles accepted in stored history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultHistoryLimit bounds each session to 12 stored messages.
const DefaultHistoryLimit = 12

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is a session-keyed conversation history with per-session FIFO
// truncation. GetOrCreate with reset=true, or with an unseen id, yields a
// fresh empty history replacing any prior one. Append beyond the capacity
// evicts the oldest message first.
type Store interface {
	GetOrCreate(ctx context.Context, id string, reset bool) ([]Message, error)
	Append(ctx context.Context, id string, msgs ...Message) error
}
