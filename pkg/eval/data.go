// Package eval implements the CSML expression evaluator: identifier
// resolution, path traversal, operator precedence, and built-in/user
// function dispatch (spec.md §4.4).
package eval

import "github.com/csml-dev/csml-go/pkg/value"

// Next is the terminal directive a step-run produces (spec.md §3).
type Next struct {
	Kind NextKind
	Name string // step or flow name, for NextStep/NextFlow

	// EntryStep is set alongside NextFlow for the `goto X flow Y` form: the
	// step to enter within the target flow Y (spec.md §4.5).
	EntryStep string

	// HoldIndex is the statement index to resume at, for NextHold
	// (spec.md §3's Hold.index).
	HoldIndex int
}

type NextKind int

const (
	NextContinue NextKind = iota // no terminal directive yet; keep stepping
	NextFlow
	NextStep
	NextHold
	NextEnd
	NextError
)

// Resolve renders a Next directive as the Turn response's `next_flow`/
// `next_step`/`conversation_end` triple (spec.md §6): nil flow/step once the
// conversation has ended, the target flow/step for a goto, and the current
// flow with a nil step for a pending hold (the caller reissues the same
// flow/step, carrying the Hold envelope, on the next turn).
func (n Next) Resolve(currentFlow string) (flow, step *string, end bool) {
	switch n.Kind {
	case NextStep:
		return &currentFlow, &n.Name, false
	case NextFlow:
		entry := n.EntryStep
		if entry == "" {
			entry = "start"
		}
		return &n.Name, &entry, false
	case NextHold:
		return &currentFlow, nil, false
	default:
		return nil, nil, true
	}
}

// MemoryWrite is one `remember` assignment recorded for the caller to
// persist (spec.md §3's MessageData.memories).
type MemoryWrite struct {
	Name    string
	Literal value.Literal
}

// MessageData is the accumulator threaded through evaluation: the ordered
// outbound messages, remember-writes, and the Next directive for the
// step-run (spec.md §3).
type MessageData struct {
	Messages []value.Message
	Memories []MemoryWrite
	Next     Next

	// errCh models the single-producer/single-consumer error-diagnostic
	// channel spec.md §5/§9 describe: a send immediately followed by a
	// same-goroutine receive, which both keeps "the sender" a real chan
	// handle and preserves in-order message emission since the turn
	// driver is single-threaded (spec.md §5).
	errCh chan value.Message
}

// NewMessageData returns an empty accumulator ready for one step run.
func NewMessageData() *MessageData {
	return &MessageData{errCh: make(chan value.Message, 1)}
}

// EmitError sends an error Literal to the message accumulator's error
// channel and immediately drains it into Messages, per spec.md §7's
// "recoverable errors flow into MessageData.messages as error entries in
// evaluation order".
func (m *MessageData) EmitError(lit value.Literal) {
	m.errCh <- lit.ToMsg()
	m.Messages = append(m.Messages, <-m.errCh)
}

// Say appends a rendered message in source-statement order.
func (m *MessageData) Say(lit value.Literal) {
	m.Messages = append(m.Messages, lit.ToMsg())
}

// Remember records a remember-write, visible to subsequent expressions in
// the same step via the caller's Context.Current update.
func (m *MessageData) Remember(name string, lit value.Literal) {
	m.Memories = append(m.Memories, MemoryWrite{Name: name, Literal: lit})
}
