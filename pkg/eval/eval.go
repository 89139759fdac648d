package eval

import (
	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/value"
)

// EvalExpr is the central recursive evaluation function (spec.md §4.4's
// `expr_to_literal`). inCondition controls error handling: inside a
// condition, an error collapses to Null silently (spec.md §4.3/§4.4);
// outside one, the error is emitted as an inline message via msgData and
// evaluation continues with Null. EvalExpr never returns an error:
// invariant violations (malformed AST shapes) are handled the same way as
// lookup and type faults and do not abort the turn.
func EvalExpr(expr ast.Expr, inCondition bool, data *Data, msgData *MessageData) value.Literal {
	lit, err := evalInner(expr, inCondition, data, msgData)
	if err == nil {
		return lit
	}
	if inCondition {
		return value.Plain(value.Null(), expr.Pos())
	}
	ce := value.AsCsmlError(err, expr.Pos())
	msgData.EmitError(value.ErrorLiteral(ce))
	return value.Plain(value.Null(), expr.Pos())
}

func evalInner(expr ast.Expr, inCondition bool, data *Data, msgData *MessageData) (value.Literal, error) {
	switch e := expr.(type) {
	case *ast.LitExpr:
		return e.Literal, nil

	case *ast.IdentExpr:
		return resolveIdent(e.Name, e.Pos(), inCondition, data)

	case *ast.ComplexLiteral:
		var sb []byte
		for _, part := range e.Parts {
			lit := EvalExpr(part, inCondition, data, msgData)
			sb = append(sb, lit.Primitive.String()...)
		}
		return value.NewLit("text", value.String(string(sb)), e.Pos()), nil

	case *ast.VecExpr:
		items := make([]value.Literal, len(e.Items))
		for i, it := range e.Items {
			items[i] = EvalExpr(it, inCondition, data, msgData)
		}
		return value.Plain(value.Array(items), e.Pos()), nil

	case *ast.ObjectExpr:
		obj := value.NewObject()
		for _, entry := range e.Entries {
			obj.Set(entry.Key, EvalExpr(entry.Value, inCondition, data, msgData))
		}
		return value.Plain(value.ObjectVal(obj), e.Pos()), nil

	case *ast.UnaryExpr:
		operand := EvalExpr(e.Operand, inCondition, data, msgData)
		switch e.Op {
		case ast.UnaryNot:
			return value.NewLit(operand.ContentType, value.Bool(!operand.Primitive.AsBool()), e.Pos()), nil
		case ast.UnaryNeg:
			zero := value.Int(0)
			r, err := zero.Sub(operand.Primitive, e.Pos())
			return value.NewLit(operand.ContentType, r, e.Pos()), err
		}
		return value.Plain(value.Null(), e.Pos()), nil

	case *ast.InfixExpr:
		return evalInfix(e, inCondition, data, msgData)

	case *ast.IfExpr:
		return evalIfExpr(e, data, msgData)

	case *ast.BuilderExpr:
		return evalPathRead(e, inCondition, data, msgData)

	case *ast.FunctionExpr:
		return evalFunctionExpr(e, inCondition, data, msgData)
	}
	return value.Literal{}, value.NewInvariantError("unhandled expression node %T", expr.Pos(), expr)
}

// resolveIdent implements spec.md §4.3's identifier resolution order:
// _COMPONENT / event / _METADATA reserved names first, then step-local
// (`use`), then remembered (`current`), else a lookup error.
func resolveIdent(name string, iv value.Interval, inCondition bool, data *Data) (value.Literal, error) {
	switch name {
	case memory.ReservedComponent:
		return data.Component, nil
	case memory.ReservedEvent:
		return data.Event, nil
	case memory.ReservedMetadata:
		obj := value.NewObject()
		for k, v := range data.Context.Metadata {
			obj.Set(k, v)
		}
		return value.Plain(value.ObjectVal(obj), iv), nil
	}
	if v, ok := data.StepVars.Get(name); ok {
		return v, nil
	}
	if v, ok := data.Context.Current[name]; ok {
		return v, nil
	}
	if inCondition {
		return value.Plain(value.Null(), iv), nil
	}
	return value.Literal{}, value.NewLookupError(name, iv)
}

func evalInfix(e *ast.InfixExpr, inCondition bool, data *Data, msgData *MessageData) (value.Literal, error) {
	// && and || short-circuit (spec.md §4.4).
	if e.Op == ast.OpAnd {
		left := EvalExpr(e.Left, inCondition, data, msgData)
		if !left.Primitive.AsBool() {
			return value.NewLit("text", value.Bool(false), e.Pos()), nil
		}
		right := EvalExpr(e.Right, inCondition, data, msgData)
		return value.NewLit("text", value.Bool(right.Primitive.AsBool()), e.Pos()), nil
	}
	if e.Op == ast.OpOr {
		left := EvalExpr(e.Left, inCondition, data, msgData)
		if left.Primitive.AsBool() {
			return value.NewLit("text", value.Bool(true), e.Pos()), nil
		}
		right := EvalExpr(e.Right, inCondition, data, msgData)
		return value.NewLit("text", value.Bool(right.Primitive.AsBool()), e.Pos()), nil
	}

	left := EvalExpr(e.Left, inCondition, data, msgData)
	right := EvalExpr(e.Right, inCondition, data, msgData)

	switch e.Op {
	case ast.OpEq:
		return value.NewLit("text", value.Bool(left.Primitive.IsEq(right.Primitive)), e.Pos()), nil
	case ast.OpNeq:
		return value.NewLit("text", value.Bool(!left.Primitive.IsEq(right.Primitive)), e.Pos()), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		ord, err := left.Primitive.IsCmp(right.Primitive)
		if err != nil {
			if inCondition {
				return value.Plain(value.Null(), e.Pos()), nil
			}
			return value.Literal{}, value.AsCsmlError(err, e.Pos())
		}
		var b bool
		switch e.Op {
		case ast.OpLt:
			b = ord == value.Less
		case ast.OpLte:
			b = ord != value.Greater
		case ast.OpGt:
			b = ord == value.Greater
		case ast.OpGte:
			b = ord != value.Less
		}
		return value.NewLit("text", value.Bool(b), e.Pos()), nil
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpRem:
		var r value.Primitive
		var err error
		switch e.Op {
		case ast.OpAdd:
			r, err = left.Primitive.Add(right.Primitive, e.Pos())
		case ast.OpSub:
			r, err = left.Primitive.Sub(right.Primitive, e.Pos())
		case ast.OpMul:
			r, err = left.Primitive.Mul(right.Primitive, e.Pos())
		case ast.OpDiv:
			r, err = left.Primitive.Div(right.Primitive, e.Pos())
		case ast.OpRem:
			r, err = left.Primitive.Rem(right.Primitive, e.Pos())
		}
		if err != nil {
			if inCondition {
				return value.Plain(value.Null(), e.Pos()), nil
			}
			return value.Literal{}, value.AsCsmlError(err, e.Pos())
		}
		return value.NewLit("text", r, e.Pos()), nil
	}
	return value.Plain(value.Null(), e.Pos()), nil
}

// evalIfExpr handles IfExpr in *expression* position (builder/say
// arguments): evaluate the condition via as_bool, return the branch's
// last-statement value, or Null (spec.md §4.4).
func evalIfExpr(e *ast.IfExpr, data *Data, msgData *MessageData) (value.Literal, error) {
	cond := EvalExpr(e.Cond, true, data, msgData)
	var block *ast.Block
	if cond.Primitive.AsBool() {
		block = e.Then
	} else if elseBlock, ok := e.Else.(*ast.Block); ok {
		block = elseBlock
	} else if elseIf, ok := e.Else.(*ast.IfExpr); ok {
		return evalIfExpr(elseIf, data, msgData)
	}
	if block == nil || len(block.Statements) == 0 {
		return value.Plain(value.Null(), e.Pos()), nil
	}
	var last value.Literal
	for _, stmt := range block.Statements {
		last = EvalExpr(stmt, false, data, msgData)
	}
	return last, nil
}

func evalFunctionExpr(e *ast.FunctionExpr, inCondition bool, data *Data, msgData *MessageData) (value.Literal, error) {
	if e.Kind != ast.FnNormal {
		return value.Plain(value.Null(), e.Pos()), value.NewInvariantError("reserved function used in expression position", e.Pos())
	}
	positional := make([]value.Literal, len(e.Call.Positional))
	for i, a := range e.Call.Positional {
		positional[i] = EvalExpr(a, inCondition, data, msgData)
	}
	named := map[string]value.Literal{}
	for k, a := range e.Call.Named {
		named[k] = EvalExpr(a, inCondition, data, msgData)
	}
	lit, found, err := data.Functions.Call(e.Call.Name, positional, named, e.Pos())
	if !found {
		return value.Literal{}, value.NewLookupError(e.Call.Name, e.Pos())
	}
	return lit, err
}
