package interp

import (
	"testing"

	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/eval"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/value"
)

type stubRegistry struct{}

func (stubRegistry) Call(name string, positional []value.Literal, named map[string]value.Literal, iv value.Interval) (value.Literal, bool, error) {
	return value.Literal{}, false, nil
}

func (stubRegistry) CallMethod(receiverType, method string, receiver value.Literal, args []value.Literal, iv value.Interval) (value.Literal, bool, error) {
	return value.Literal{}, false, nil
}

func newTestData(event value.Literal) (*eval.Data, *eval.MessageData) {
	ctx := &memory.Context{Current: map[string]value.Literal{}, Metadata: map[string]value.Literal{}}
	data := eval.NewData(&ast.Flow{}, ctx, memory.NewStepVars(), stubRegistry{}, value.Literal{}, event)
	return data, eval.NewMessageData()
}

func lit(p value.Primitive) value.Literal { return value.Plain(p, value.Interval{}) }

func TestRunStepSayEmitsMessageAndDefaultsToEnd(t *testing.T) {
	data, msgData := newTestData(lit(value.Null()))
	step := &ast.Block{Statements: []ast.Expr{
		&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.LitExpr{Literal: lit(value.String("hi"))}},
	}}
	RunStep(step, 0, data, msgData)

	if len(msgData.Messages) != 1 {
		t.Fatalf("expected one message, got %v", msgData.Messages)
	}
	if msgData.Next.Kind != eval.NextEnd {
		t.Fatalf("expected a default NextEnd with no explicit goto/hold, got %v", msgData.Next)
	}
}

func TestRunStepRememberThenGoto(t *testing.T) {
	data, msgData := newTestData(lit(value.Null()))
	step := &ast.Block{Statements: []ast.Expr{
		&ast.FunctionExpr{Kind: ast.FnRemember, Target: "n", Expr: &ast.LitExpr{Literal: lit(value.Int(3))}},
		&ast.FunctionExpr{Kind: ast.FnGotoStep, GotoStep: "double"},
	}}
	RunStep(step, 0, data, msgData)

	if msgData.Next.Kind != eval.NextStep || msgData.Next.Name != "double" {
		t.Fatalf("expected goto step double, got %v", msgData.Next)
	}
	got, ok := data.Context.Current["n"]
	if !ok || got.Primitive.AsInt() != 3 {
		t.Fatalf("expected n=3 remembered, got %v", got)
	}
	if len(msgData.Memories) != 1 || msgData.Memories[0].Name != "n" {
		t.Fatalf("expected a memory write recorded, got %v", msgData.Memories)
	}
}

func TestRunStepBareHoldSuspends(t *testing.T) {
	data, msgData := newTestData(lit(value.Null()))
	step := &ast.Block{Statements: []ast.Expr{
		&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.LitExpr{Literal: lit(value.String("hi"))}},
		&ast.FunctionExpr{Kind: ast.FnHold},
		&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.LitExpr{Literal: lit(value.String("unreachable"))}},
	}}
	RunStep(step, 0, data, msgData)

	if msgData.Next.Kind != eval.NextHold || msgData.Next.HoldIndex != 1 {
		t.Fatalf("expected a hold at index 1, got %v", msgData.Next)
	}
	if len(msgData.Messages) != 1 {
		t.Fatalf("expected the statement after hold to not run, got %v", msgData.Messages)
	}
}

func TestRunStepIfElseBranches(t *testing.T) {
	data, msgData := newTestData(lit(value.Null()))
	step := &ast.Block{Statements: []ast.Expr{
		&ast.IfExpr{
			Cond: &ast.LitExpr{Literal: lit(value.Bool(false))},
			Then: &ast.Block{Statements: []ast.Expr{&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.LitExpr{Literal: lit(value.String("then"))}}}},
			Else: &ast.Block{Statements: []ast.Expr{&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.LitExpr{Literal: lit(value.String("else"))}}}},
		},
	}}
	RunStep(step, 0, data, msgData)
	if len(msgData.Messages) != 1 {
		t.Fatalf("expected exactly one message from the else branch, got %v", msgData.Messages)
	}
	content := msgData.Messages[0].Content.(map[string]interface{})
	if content["text"] != "else" {
		t.Fatalf("expected the else branch's message, got %v", content)
	}
}

// TestRunStepAskResponseRoundTrip exercises the suspend/resume state machine
// execAsk drives directly, across two separate RunStep invocations sharing
// the same step-local memory (as a resumed turn would, via Hold.StepVars).
func TestRunStepAskResponseRoundTrip(t *testing.T) {
	data, msgData := newTestData(lit(value.Null()))
	step := &ast.Block{Statements: []ast.Expr{
		&ast.AskExpr{
			Name: "name",
			Ask:  &ast.Block{Statements: []ast.Expr{&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.LitExpr{Literal: lit(value.String("what is your name?"))}}}},
			Response: &ast.Block{Statements: []ast.Expr{
				&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.IdentExpr{Name: "name"}},
			}},
		},
	}}

	RunStep(step, 0, data, msgData)
	if msgData.Next.Kind != eval.NextHold {
		t.Fatalf("expected a hold after the ask block runs, got %v", msgData.Next)
	}
	if len(msgData.Messages) != 1 {
		t.Fatalf("expected only the ask block's message, got %v", msgData.Messages)
	}

	data.Event = lit(value.String("Ada"))
	msgData2 := eval.NewMessageData()
	RunStep(step, msgData.Next.HoldIndex, data, msgData2)

	if len(msgData2.Messages) != 1 {
		t.Fatalf("expected the response block's message, got %v", msgData2.Messages)
	}
	content := msgData2.Messages[0].Content.(map[string]interface{})
	if content["text"] != "Ada" {
		t.Fatalf("expected the bound event value, got %v", content)
	}
	if msgData2.Next.Kind != eval.NextEnd {
		t.Fatalf("expected the step to fall through to end after the response, got %v", msgData2.Next)
	}
}

func TestRunStepBreakStopsBlockEarly(t *testing.T) {
	data, msgData := newTestData(lit(value.Null()))
	step := &ast.Block{Statements: []ast.Expr{
		&ast.IfExpr{
			Cond: &ast.LitExpr{Literal: lit(value.Bool(true))},
			Then: &ast.Block{Statements: []ast.Expr{&ast.FunctionExpr{Kind: ast.FnBreak}}},
		},
		&ast.FunctionExpr{Kind: ast.FnSay, Expr: &ast.LitExpr{Literal: lit(value.String("after if"))}},
	}}
	RunStep(step, 0, data, msgData)
	if len(msgData.Messages) != 0 {
		t.Fatalf("expected break to stop the step before the trailing say, got %v", msgData.Messages)
	}
}
