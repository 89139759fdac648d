package eval

import (
	"testing"

	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/value"
)

// stubRegistry resolves no functions, the minimal FunctionRegistry needed to
// exercise evaluation paths that never call out.
type stubRegistry struct{}

func (stubRegistry) Call(name string, positional []value.Literal, named map[string]value.Literal, iv value.Interval) (value.Literal, bool, error) {
	return value.Literal{}, false, nil
}

func (stubRegistry) CallMethod(receiverType, method string, receiver value.Literal, args []value.Literal, iv value.Interval) (value.Literal, bool, error) {
	return value.Literal{}, false, nil
}

func newTestData() (*Data, *MessageData) {
	ctx := &memory.Context{Current: map[string]value.Literal{}, Metadata: map[string]value.Literal{}}
	data := NewData(&ast.Flow{}, ctx, memory.NewStepVars(), stubRegistry{}, value.Literal{}, value.Plain(value.Null(), value.Interval{}))
	return data, NewMessageData()
}

func lit(p value.Primitive) value.Literal { return value.Plain(p, value.Interval{}) }

func TestEvalExprSubtraction(t *testing.T) {
	data, msgData := newTestData()
	e := &ast.InfixExpr{Op: ast.OpSub, Left: &ast.LitExpr{Literal: lit(value.Int(3))}, Right: &ast.LitExpr{Literal: lit(value.Int(6))}}
	got := EvalExpr(e, false, data, msgData)
	if got.Primitive.AsInt() != -3 {
		t.Fatalf("expected -3, got %v", got.Primitive)
	}
	if len(msgData.Messages) != 0 {
		t.Fatalf("expected no error messages, got %v", msgData.Messages)
	}
}

func TestEvalExprTypeErrorEmitsMessage(t *testing.T) {
	data, msgData := newTestData()
	arr := &ast.VecExpr{Items: []ast.Expr{&ast.LitExpr{Literal: lit(value.Int(1))}}}
	e := &ast.InfixExpr{Op: ast.OpSub, Left: arr, Right: &ast.LitExpr{Literal: lit(value.Int(1))}}
	got := EvalExpr(e, false, data, msgData)
	if !got.Primitive.IsNull() {
		t.Fatalf("expected Null on error, got %v", got.Primitive)
	}
	if len(msgData.Messages) != 1 || msgData.Messages[0].ContentType != "error" {
		t.Fatalf("expected one error message, got %v", msgData.Messages)
	}
}

func TestEvalExprTypeErrorInConditionCollapsesSilently(t *testing.T) {
	data, msgData := newTestData()
	arr := &ast.VecExpr{Items: []ast.Expr{&ast.LitExpr{Literal: lit(value.Int(1))}}}
	e := &ast.InfixExpr{Op: ast.OpSub, Left: arr, Right: &ast.LitExpr{Literal: lit(value.Int(1))}}
	got := EvalExpr(e, true, data, msgData)
	if !got.Primitive.IsNull() {
		t.Fatalf("expected Null, got %v", got.Primitive)
	}
	if len(msgData.Messages) != 0 {
		t.Fatalf("expected no message emitted inside a condition, got %v", msgData.Messages)
	}
}

func TestResolveIdentOrder(t *testing.T) {
	data, msgData := newTestData()
	data.Context.Current["n"] = lit(value.Int(1))
	data.StepVars.Set("n", lit(value.Int(2)))

	got := EvalExpr(&ast.IdentExpr{Name: "n"}, false, data, msgData)
	if got.Primitive.AsInt() != 2 {
		t.Fatalf("expected step-local n=2 to shadow remembered n=1, got %v", got.Primitive)
	}
}

func TestResolveIdentUnknownIsLookupError(t *testing.T) {
	data, msgData := newTestData()
	got := EvalExpr(&ast.IdentExpr{Name: "missing"}, false, data, msgData)
	if !got.Primitive.IsNull() {
		t.Fatalf("expected Null, got %v", got.Primitive)
	}
	if len(msgData.Messages) != 1 || msgData.Messages[0].ContentType != "error" {
		t.Fatalf("expected a lookup error message, got %v", msgData.Messages)
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	data, msgData := newTestData()
	// false && <lookup error> must not evaluate the right side.
	e := &ast.InfixExpr{Op: ast.OpAnd, Left: &ast.LitExpr{Literal: lit(value.Bool(false))}, Right: &ast.IdentExpr{Name: "missing"}}
	got := EvalExpr(e, false, data, msgData)
	if got.Primitive.AsBool() != false {
		t.Fatalf("expected false, got %v", got.Primitive)
	}
	if len(msgData.Messages) != 0 {
		t.Fatalf("expected short-circuit to skip the right operand, got %v", msgData.Messages)
	}
}

func TestComplexLiteralInterpolation(t *testing.T) {
	data, msgData := newTestData()
	e := &ast.ComplexLiteral{Parts: []ast.Expr{
		&ast.LitExpr{Literal: lit(value.String("n = "))},
		&ast.InfixExpr{Op: ast.OpMul, Left: &ast.LitExpr{Literal: lit(value.Int(2))}, Right: &ast.LitExpr{Literal: lit(value.Int(3))}},
	}}
	got := EvalExpr(e, false, data, msgData)
	if got.Primitive.AsStringRaw() != "n = 6" {
		t.Fatalf("expected interpolated string, got %q", got.Primitive.AsStringRaw())
	}
}

func TestIfExprReturnsBranchValue(t *testing.T) {
	data, msgData := newTestData()
	e := &ast.IfExpr{
		Cond: &ast.LitExpr{Literal: lit(value.Bool(true))},
		Then: &ast.Block{Statements: []ast.Expr{&ast.LitExpr{Literal: lit(value.Int(1))}}},
		Else: &ast.Block{Statements: []ast.Expr{&ast.LitExpr{Literal: lit(value.Int(2))}}},
	}
	got := EvalExpr(e, false, data, msgData)
	if got.Primitive.AsInt() != 1 {
		t.Fatalf("expected the then-branch value, got %v", got.Primitive)
	}
}
