// Package memory implements CSML's three memory scopes — step-local `use`,
// conversation-lifetime `remember`, and read-only `metadata`/`event`/
// `_COMPONENT` — plus the Hold envelope that snapshots step-local memory
// across a suspend/resume boundary (spec.md §3, §4.3).
package memory

import (
	"encoding/json"

	"github.com/csml-dev/csml-go/pkg/value"
)

// Reserved identifier names, resolved ahead of step-local/remembered lookup
// per spec.md §4.3's identifier resolution order.
const (
	ReservedComponent = "_COMPONENT"
	ReservedEvent     = "event"
	ReservedMetadata  = "_METADATA"
)

// Hold is the serialized in-step cursor spec.md §3/§6 defines: the
// instruction index to resume at, a snapshot of step-local memory, and an
// md5 guard against resuming into a modified flow.
type Hold struct {
	Index    uint64                     `json:"index"`
	StepVars map[string]json.RawMessage `json:"step_vars"`
	Hash     string                     `json:"hash"`
}

// ApiInfo carries the caller/function-endpoint pair needed by the Fn
// builtin (spec.md §3's ContextJson.api_info).
type ApiInfo struct {
	Client      interface{} `json:"client,omitempty"`
	FnEndpoint  string      `json:"fn_endpoint,omitempty"`
}

// ContextJSON is the wire shape of a turn's incoming context (spec.md §3).
type ContextJSON struct {
	Current  map[string]json.RawMessage `json:"current"`
	Metadata map[string]json.RawMessage `json:"metadata"`
	ApiInfo  *ApiInfo                   `json:"api_info,omitempty"`
	Hold     *Hold                      `json:"hold,omitempty"`
}

// Context is the richer, resolved form of ContextJSON: `current` and
// `metadata` as maps of already-parsed Literal rather than raw JSON
// (spec.md §3's "Converted to the richer Context ... at turn start").
type Context struct {
	Current  map[string]value.Literal
	Metadata map[string]value.Literal
	ApiInfo  *ApiInfo
	Hold     *Hold
}

// Resolve converts a wire ContextJSON into the evaluator-facing Context,
// the direct model for the original Rust implementation's
// `ContextJson::to_literal()` (see original_source/src/data/context.rs).
func Resolve(cj ContextJSON) (Context, error) {
	ctx := Context{
		Current:  map[string]value.Literal{},
		Metadata: map[string]value.Literal{},
		ApiInfo:  cj.ApiInfo,
		Hold:     cj.Hold,
	}
	for k, raw := range cj.Current {
		lit, err := literalFromRaw(raw)
		if err != nil {
			return Context{}, err
		}
		ctx.Current[k] = lit
	}
	for k, raw := range cj.Metadata {
		lit, err := literalFromRaw(raw)
		if err != nil {
			return Context{}, err
		}
		ctx.Metadata[k] = lit
	}
	return ctx, nil
}

func literalFromRaw(raw json.RawMessage) (value.Literal, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return value.Literal{}, err
	}
	return value.LiteralFromGoValue(v), nil
}

// StepVars is the step-local `use` scope, cleared at the start of every
// step unless restored from a Hold snapshot on resume.
type StepVars struct {
	vars map[string]value.Literal
}

// NewStepVars returns an empty step-local scope.
func NewStepVars() *StepVars {
	return &StepVars{vars: map[string]value.Literal{}}
}

func (s *StepVars) Get(name string) (value.Literal, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s *StepVars) Set(name string, v value.Literal) {
	s.vars[name] = v
}

// Snapshot serializes step-local memory for a Hold envelope.
func (s *StepVars) Snapshot() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(s.vars))
	for k, v := range s.vars {
		b, err := v.Primitive.ToJSON()
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}

// RestoreStepVars rehydrates step-local memory from a Hold snapshot.
func RestoreStepVars(snapshot map[string]json.RawMessage) (*StepVars, error) {
	sv := NewStepVars()
	for k, raw := range snapshot {
		lit, err := literalFromRaw(raw)
		if err != nil {
			return nil, err
		}
		sv.vars[k] = lit
	}
	return sv, nil
}
