package eval

import (
	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/value"
)

// FunctionRegistry resolves a call by name (spec.md §4.4). Implemented by
// pkg/builtins.Registry, which resolves builtins only; user-declared bot
// functions are not looked up. Declared here to avoid eval depending on
// builtins (builtins depends on value/ast only, and is passed to
// pkg/engine by its callers).
type FunctionRegistry interface {
	Call(name string, positional []value.Literal, named map[string]value.Literal, iv value.Interval) (value.Literal, bool, error)

	// CallMethod resolves a method invoked on a builtin-produced object
	// (e.g. the `.get()`/`.post()` family on the object `HTTP(...)`
	// returns) that needs to run side-effecting code rather than the
	// generic per-Kind method table pkg/value implements. receiverType is
	// the receiving Literal's ContentType, used as the dispatch tag.
	// found is false when no such special-cased method exists, in which
	// case the caller falls back to value.Primitive.Exec.
	CallMethod(receiverType string, method string, receiver value.Literal, args []value.Literal, iv value.Interval) (value.Literal, bool, error)
}

// Data bundles everything expression evaluation needs to resolve an
// identifier or run a function call: the parsed Flow (not consulted during
// evaluation; goto targets are not validated against it and function lookup
// goes through Functions), the turn Context,
// step-local memory, and the function registry (spec.md §4.7's `Data`).
type Data struct {
	Flow      *ast.Flow
	Context   *memory.Context
	StepVars  *memory.StepVars
	Functions FunctionRegistry
	Component value.Literal
	Event     value.Literal
}

// NewData builds an evaluator Data for one turn.
func NewData(flow *ast.Flow, ctx *memory.Context, stepVars *memory.StepVars, funcs FunctionRegistry, component, event value.Literal) *Data {
	return &Data{Flow: flow, Context: ctx, StepVars: stepVars, Functions: funcs, Component: component, Event: event}
}
