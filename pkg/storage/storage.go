// Package storage defines the persistence seam between a turn driver and a
// conversation's durable state: step-local memory is never persisted past a
// Hold, but remembered (conversation-lifetime) memory and a pending Hold
// both need to survive between calls to pkg/engine.RunTurn (spec.md §3, §4.3).
package storage

import (
	"context"

	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/value"
)

// ConversationStore loads and saves the durable half of a conversation's
// memory.Context: its "remember" scope and its pending Hold, if any. The
// "use" (step-local) scope only ever lives inside a Hold snapshot, so it has
// no separate load/save path here.
type ConversationStore interface {
	// LoadContext returns the remembered memory and pending Hold for
	// conversationID, or a Context with empty, non-nil Current and
	// Metadata maps and a nil Hold if the conversation has never been seen.
	LoadContext(ctx context.Context, conversationID string) (memory.Context, error)

	// SaveMemories persists new or overwritten remembered values (spec.md
	// §4.4's `remember` semantics: each write replaces the prior value
	// under that name, scoped to the whole conversation).
	SaveMemories(ctx context.Context, conversationID string, writes []MemoryWrite) error

	// SaveHold persists the outgoing Hold envelope for conversationID,
	// replacing any hold already on file. Passing a nil hold clears it —
	// the step completed without suspending.
	SaveHold(ctx context.Context, conversationID string, hold *memory.Hold) error

	// Close releases any resources (a connection pool, a file handle).
	Close() error
}

// MemoryWrite is a single remembered-value write, the storage-facing
// counterpart of eval.MemoryWrite (kept separate so this package doesn't
// need to import pkg/eval).
type MemoryWrite struct {
	Name    string
	Literal value.Literal
}
