package eval

import (
	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/value"
)

// pathRoot identifies where a BuilderExpr's base expression actually lives,
// so a mutating final segment (a method that rewrites its receiver) can be
// re-saved into the owning scope afterward (spec.md §4.3/§9: "copy the
// root, mutate by path, re-store in the owning scope").
type pathRootKind int

const (
	rootNone pathRootKind = iota // base isn't an addressable identifier (e.g. a literal) — no re-save
	rootStepVar
	rootCurrent
)

// evalPathRead evaluates a BuilderExpr for its value, applying every path
// segment left to right. When the base resolves to an addressable
// identifier (a step variable or a remembered value), the possibly-mutated
// root is written back into its scope once traversal completes, modeling
// CSML's "methods like push/pop mutate the underlying variable" semantics.
func evalPathRead(e *ast.BuilderExpr, inCondition bool, data *Data, msgData *MessageData) (value.Literal, error) {
	rootKind, _, cur, err := resolveBase(e.Base, inCondition, data, msgData)
	if err != nil {
		return value.Literal{}, err
	}

	var mutatedSelf *value.Literal
	mutatedAt, addressable := 0, true
	for i, seg := range e.Path {
		next, self, serr := applySeg(cur, seg, inCondition, data, msgData)
		if serr != nil {
			return value.Literal{}, serr
		}
		if self != nil && addressable {
			mutatedSelf, mutatedAt = self, i
		}
		if seg.Kind == ast.SegCall {
			addressable = false
		}
		cur = next
	}

	// Only a method that reported update_self (spec.md §4.2) re-saves the
	// root; a segment that merely computes a derived value (length(),
	// pop()'s returned element, ...) must never overwrite it. The mutated
	// receiver is stored back at its own place in the path (the root itself
	// when the method was called on the base) and the root is re-saved. A
	// receiver reached through an earlier method call is not addressable,
	// so a mutation of it is not written back.
	if rootKind != rootNone && mutatedSelf != nil {
		prefix := &ast.BuilderExpr{Span: e.Span, Base: e.Base, Path: e.Path[:mutatedAt]}
		if err := EvalPathWrite(prefix, *mutatedSelf, inCondition, data, msgData); err != nil {
			return value.Literal{}, err
		}
	}
	return cur, nil
}

// resolveBase evaluates a BuilderExpr's base, additionally reporting
// whether it's a re-assignable identifier so mutating path segments can be
// persisted.
func resolveBase(base ast.Expr, inCondition bool, data *Data, msgData *MessageData) (pathRootKind, string, value.Literal, error) {
	if id, ok := base.(*ast.IdentExpr); ok {
		if _, isStepVar := data.StepVars.Get(id.Name); isStepVar {
			v, _ := data.StepVars.Get(id.Name)
			return rootStepVar, id.Name, v, nil
		}
		if v, isCurrent := data.Context.Current[id.Name]; isCurrent {
			return rootCurrent, id.Name, v, nil
		}
	}
	v, err := evalInner(base, inCondition, data, msgData)
	return rootNone, "", v, err
}

func writeRoot(kind pathRootKind, name string, v value.Literal, data *Data) {
	switch kind {
	case rootStepVar:
		data.StepVars.Set(name, v)
	case rootCurrent:
		data.Context.Current[name] = v
	}
}

// applySeg resolves one PathSeg against the current Literal: indexing into
// an array, keying into an object, or invoking a method via Primitive.Exec
// (spec.md §4.3's PathLiteral state machine). The second return value is
// non-nil only when the call mutated its receiver in place (spec.md §4.2's
// update_self flag) and carries that mutated receiver, as distinct from
// the method's return value, which is what's propagated for chaining.
func applySeg(cur value.Literal, seg ast.PathSeg, inCondition bool, data *Data, msgData *MessageData) (value.Literal, *value.Literal, error) {
	switch seg.Kind {
	case ast.SegIndex:
		idxLit := EvalExpr(seg.Index, inCondition, data, msgData)
		v, err := indexInto(cur, idxLit, seg.Pos)
		return v, nil, err

	case ast.SegKey:
		if cur.Primitive.Kind() != value.KindObject {
			return value.Literal{}, nil, value.NewTypeError("cannot access key %q on a %s", seg.Pos, seg.Key, cur.Primitive.Kind())
		}
		v, ok := cur.Primitive.AsObject().Get(seg.Key)
		if !ok {
			return value.Literal{}, nil, value.NewKeyError(seg.Key, seg.Pos)
		}
		return v, nil, nil

	case ast.SegCall:
		args := make([]value.Literal, len(seg.Func.Positional))
		for i, a := range seg.Func.Positional {
			args[i] = EvalExpr(a, inCondition, data, msgData)
		}
		if result, found, err := data.Functions.CallMethod(cur.ContentType, seg.Func.Name, cur, args, seg.Pos); found {
			return result, nil, err
		}
		var updateSelf bool
		result, err := cur.Primitive.Exec(seg.Func.Name, args, seg.Pos, cur.ContentType, &updateSelf)
		if err != nil {
			return value.Literal{}, nil, err
		}
		if updateSelf {
			self := cur
			return result, &self, nil
		}
		return result, nil, nil
	}
	return value.Literal{}, nil, value.NewInvariantError("unhandled path segment kind", seg.Pos)
}

func indexInto(cur value.Literal, idx value.Literal, iv value.Interval) (value.Literal, error) {
	switch cur.Primitive.Kind() {
	case value.KindArray:
		arr := cur.Primitive.AsArray()
		if idx.Primitive.Kind() != value.KindInt {
			return value.Literal{}, value.NewTypeError("array index must be an integer", iv)
		}
		i := int(idx.Primitive.AsInt())
		if i < 0 || i >= len(arr) {
			return value.Literal{}, value.NewIndexError(i, len(arr), iv)
		}
		return arr[i], nil
	case value.KindObject:
		if idx.Primitive.Kind() != value.KindString {
			return value.Literal{}, value.NewTypeError("object index must be a string", iv)
		}
		key := idx.Primitive.AsStringRaw()
		v, ok := cur.Primitive.AsObject().Get(key)
		if !ok {
			return value.Literal{}, value.NewKeyError(key, iv)
		}
		return v, nil
	}
	return value.Literal{}, value.NewTypeError("cannot index into a %s", iv, cur.Primitive.Kind())
}

// EvalPathWrite evaluates a BuilderExpr's segments down to the penultimate
// one and assigns a new Literal at the final position (spec.md §4.5's `do`
// assignment target, and §9's array/object subscript assignment
// `a[0] = x`, `obj.f = x`), then re-saves the updated root into its scope.
func EvalPathWrite(e *ast.BuilderExpr, value_ value.Literal, inCondition bool, data *Data, msgData *MessageData) error {
	rootKind, rootName, cur, err := resolveBase(e.Base, inCondition, data, msgData)
	if err != nil {
		return err
	}
	if len(e.Path) == 0 {
		if rootKind == rootNone {
			return value.NewInvariantError("assignment target is not addressable", e.Pos())
		}
		writeRoot(rootKind, rootName, value_, data)
		return nil
	}

	root := cur
	for _, seg := range e.Path[:len(e.Path)-1] {
		next, _, serr := applySeg(cur, seg, inCondition, data, msgData)
		if serr != nil {
			return serr
		}
		cur = next
	}

	last := e.Path[len(e.Path)-1]
	if err := assignFinalSeg(&cur, last, value_, inCondition, data, msgData); err != nil {
		return err
	}
	if rootKind != rootNone {
		writeRoot(rootKind, rootName, root, data)
	}
	return nil
}

func assignFinalSeg(cur *value.Literal, seg ast.PathSeg, newVal value.Literal, inCondition bool, data *Data, msgData *MessageData) error {
	switch seg.Kind {
	case ast.SegKey:
		if cur.Primitive.Kind() != value.KindObject {
			return value.NewTypeError("cannot assign key %q on a %s", seg.Pos, seg.Key, cur.Primitive.Kind())
		}
		cur.Primitive.AsObject().Set(seg.Key, newVal)
		return nil
	case ast.SegIndex:
		idxLit := EvalExpr(seg.Index, inCondition, data, msgData)
		switch cur.Primitive.Kind() {
		case value.KindArray:
			arr := cur.Primitive.AsArray()
			i := int(idxLit.Primitive.AsInt())
			if i < 0 || i >= len(arr) {
				return value.NewIndexError(i, len(arr), seg.Pos)
			}
			arr[i] = newVal
			return nil
		case value.KindObject:
			cur.Primitive.AsObject().Set(idxLit.Primitive.AsStringRaw(), newVal)
			return nil
		}
		return value.NewTypeError("cannot index-assign into a %s", seg.Pos, cur.Primitive.Kind())
	}
	return value.NewInvariantError("cannot assign through a method call segment", seg.Pos)
}
