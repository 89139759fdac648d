// Package builtins implements the CSML builtins registry: message
// constructors, the side-effecting HTTP/Fn builtins, and general-purpose
// helpers (spec.md §4.6), plus the method-dispatch escape hatch method
// calls on builtin-produced objects (the HTTP request builder) need.
package builtins

import (
	"net/http"

	"github.com/csml-dev/csml-go/pkg/value"
)

// Func is a builtin's implementation: it receives resolved positional and
// named arguments and returns a Literal, mirroring the teacher's
// `StdlibFunc` shape generalized to CSML's positional+named calling
// convention (spec.md §4.6 documents a `DEFAULT` slot that several
// builtins accept in place of a named arg).
type Func func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error)

// MethodFunc is a builtin-object's method: it receives the receiver
// Literal produced by an earlier builtin call (e.g. HTTP(...)) plus
// resolved call arguments.
type MethodFunc func(receiver value.Literal, args []value.Literal, iv value.Interval, rt *Runtime) (value.Literal, error)

// Args bundles a call's positional and named arguments with the
// `DEFAULT`-slot convention spec.md §4.6 documents: several builtins
// accept either a named argument or, failing that, the first positional
// argument.
type Args struct {
	Positional []value.Literal
	Named      map[string]value.Literal
}

// Get resolves a named argument, falling back to the DEFAULT positional
// slot (args[0]) when name is absent, per spec.md §4.6.
func (a Args) Get(name string) (value.Literal, bool) {
	if v, ok := a.Named[name]; ok {
		return v, true
	}
	if v, ok := a.Named["DEFAULT"]; ok {
		return v, true
	}
	if len(a.Positional) > 0 {
		return a.Positional[0], true
	}
	return value.Literal{}, false
}

// Positional0 returns the i'th positional argument, if present.
func (a Args) Positional0(i int) (value.Literal, bool) {
	if i < len(a.Positional) {
		return a.Positional[i], true
	}
	return value.Literal{}, false
}

// Runtime carries the per-turn collaborators builtins need beyond their
// arguments: the Fn endpoint/client from the turn's ApiInfo, and an HTTP
// client (overridable in tests, matching the teacher's
// `RegisterHTTP(client *http.Client)` seam in pkg/stdlib/http.go).
type Runtime struct {
	HTTPClient *http.Client
	FnEndpoint string
	FnClient   interface{}
}

// Registry is a closed name → Func table implementing eval.FunctionRegistry
// (the teacher's pkg/stdlib.Registry generalized: a map plus per-group
// Register calls, here split across messages.go/http.go/fn.go/helpers.go/
// uuid.go/text.go).
type Registry struct {
	funcs   map[string]Func
	methods map[string]MethodFunc // keyed by receiver content_type + "." + method
	rt      *Runtime
}

// New builds a Registry with every builtin registered, wired to rt for the
// side-effecting ones (HTTP, Fn).
func New(rt *Runtime) *Registry {
	if rt == nil {
		rt = &Runtime{}
	}
	if rt.HTTPClient == nil {
		rt.HTTPClient = &http.Client{}
	}
	r := &Registry{
		funcs:   map[string]Func{},
		methods: map[string]MethodFunc{},
		rt:      rt,
	}
	r.registerMessages()
	r.registerHelpers()
	r.registerUUID()
	r.registerText()
	r.registerHTTP()
	r.registerFn()
	return r
}

func (r *Registry) register(name string, fn Func) {
	r.funcs[name] = fn
}

func (r *Registry) registerMethod(contentType, method string, fn MethodFunc) {
	r.methods[contentType+"."+method] = fn
}

// Call implements eval.FunctionRegistry.
func (r *Registry) Call(name string, positional []value.Literal, named map[string]value.Literal, iv value.Interval) (value.Literal, bool, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return value.Literal{}, false, nil
	}
	lit, err := fn(Args{Positional: positional, Named: named}, iv, r.rt)
	return lit, true, err
}

// CallMethod implements eval.FunctionRegistry.
func (r *Registry) CallMethod(receiverType, method string, receiver value.Literal, args []value.Literal, iv value.Interval) (value.Literal, bool, error) {
	fn, ok := r.methods[receiverType+"."+method]
	if !ok {
		return value.Literal{}, false, nil
	}
	lit, err := fn(receiver, args, iv, r.rt)
	return lit, true, err
}
