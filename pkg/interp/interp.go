// Package interp walks a step's statement list, driving assignment,
// if/else, goto, hold, ask/response, and message-emission effects, and
// propagating a Next directive up to the turn driver (spec.md §4.5).
package interp

import (
	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/eval"
	"github.com/csml-dev/csml-go/pkg/value"
)

// ctrl is the signal a statement's execution reports to its caller: keep
// stepping through the current block, break out of the nearest ask/response
// frame, or stop entirely because a terminal Next directive (goto, hold,
// end) has been set.
type ctrl int

const (
	ctrlContinue ctrl = iota
	ctrlBreak
	ctrlStop
)

// askPendingKey is the step-local marker name recording that an AskExpr's
// ask-block already ran and the step is now suspended awaiting the
// response-triggering event (spec.md §4.5's ask/response state machine,
// persisted across the Hold boundary via the ordinary step_vars snapshot).
func askPendingKey(askName string) string {
	return "__ask_pending__" + askName
}

// RunStep interprets a step's statement list starting at startIndex
// (0 on a fresh turn, Hold.Index on resume), writing results into msgData.
// It always leaves msgData.Next set to a terminal directive before
// returning, per spec.md §4.7 step 4.
func RunStep(step *ast.Block, startIndex int, data *eval.Data, msgData *eval.MessageData) {
	signal := runStatements(step.Statements, startIndex, data, msgData)
	if signal == ctrlStop {
		return
	}
	if msgData.Next.Kind == eval.NextContinue {
		msgData.Next = eval.Next{Kind: eval.NextEnd}
	}
}

// runStatements executes stmts[from:] in order, stopping early on a
// terminal Next directive or a break signal.
func runStatements(stmts []ast.Expr, from int, data *eval.Data, msgData *eval.MessageData) ctrl {
	for i := from; i < len(stmts); i++ {
		signal := execStmt(stmts[i], i, data, msgData)
		if signal != ctrlContinue {
			return signal
		}
	}
	return ctrlContinue
}

func execStmt(stmt ast.Expr, index int, data *eval.Data, msgData *eval.MessageData) ctrl {
	switch s := stmt.(type) {
	case *ast.FunctionExpr:
		return execFunctionStmt(s, index, data, msgData)
	case *ast.IfExpr:
		return execIf(s, data, msgData)
	case *ast.AskExpr:
		return execAsk(s, index, data, msgData)
	default:
		// An expression used as a bare statement (e.g. a builder call with
		// side effects via Exec): evaluate and discard the value.
		eval.EvalExpr(stmt, false, data, msgData)
		return ctrlContinue
	}
}

func execFunctionStmt(s *ast.FunctionExpr, index int, data *eval.Data, msgData *eval.MessageData) ctrl {
	switch s.Kind {
	case ast.FnSay:
		before := len(msgData.Messages)
		lit := eval.EvalExpr(s.Expr, false, data, msgData)
		if len(msgData.Messages) > before {
			// Evaluating the expression emitted an error message; that
			// error stands in for the say.
			return ctrlContinue
		}
		msgData.Say(lit)
		return ctrlContinue

	case ast.FnDo:
		execDo(s, data, msgData)
		return ctrlContinue

	case ast.FnUse:
		lit := eval.EvalExpr(s.Expr, false, data, msgData)
		data.StepVars.Set(s.Target, lit)
		return ctrlContinue

	case ast.FnRemember:
		lit := eval.EvalExpr(s.Expr, false, data, msgData)
		data.Context.Current[s.Target] = lit
		msgData.Remember(s.Target, lit)
		return ctrlContinue

	case ast.FnGotoStep:
		msgData.Next = eval.Next{Kind: eval.NextStep, Name: s.GotoStep}
		return ctrlStop

	case ast.FnGotoFlow:
		msgData.Next = eval.Next{Kind: eval.NextFlow, Name: s.GotoFlow}
		return ctrlStop

	case ast.FnGotoStepInFlow:
		msgData.Next = eval.Next{Kind: eval.NextFlow, Name: s.GotoFlow, EntryStep: s.GotoStep}
		return ctrlStop

	case ast.FnGotoEnd:
		msgData.Next = eval.Next{Kind: eval.NextEnd}
		return ctrlStop

	case ast.FnHold:
		msgData.Next = eval.Next{Kind: eval.NextHold, HoldIndex: index}
		return ctrlStop

	case ast.FnBreak:
		return ctrlBreak

	case ast.FnImport:
		// Statically resolved at parse/link time; no runtime effect here
		// (spec.md §4.5).
		return ctrlContinue
	}
	return ctrlContinue
}

// execDo evaluates a `do` statement: `do expr` discards the value; when the
// parser recognized an assignment LHS (`do target = expr`) it stashed the
// target expression as the lone positional arg of a synthetic CallArgs,
// which execDo now resolves as a write path (spec.md §4.3/§4.5).
func execDo(s *ast.FunctionExpr, data *eval.Data, msgData *eval.MessageData) {
	if s.Call == nil || len(s.Call.Positional) == 0 {
		eval.EvalExpr(s.Expr, false, data, msgData)
		return
	}
	target := s.Call.Positional[0]
	rhs := eval.EvalExpr(s.Expr, false, data, msgData)

	switch t := target.(type) {
	case *ast.IdentExpr:
		if _, ok := data.StepVars.Get(t.Name); ok {
			data.StepVars.Set(t.Name, rhs)
			return
		}
		data.Context.Current[t.Name] = rhs
	case *ast.BuilderExpr:
		if err := eval.EvalPathWrite(t, rhs, false, data, msgData); err != nil {
			ce := value.AsCsmlError(err, t.Pos())
			msgData.EmitError(value.ErrorLiteral(ce))
		}
	}
}

func execIf(s *ast.IfExpr, data *eval.Data, msgData *eval.MessageData) ctrl {
	cond := eval.EvalExpr(s.Cond, true, data, msgData)
	if cond.Primitive.AsBool() {
		return runStatements(s.Then.Statements, 0, data, msgData)
	}
	switch e := s.Else.(type) {
	case *ast.Block:
		return runStatements(e.Statements, 0, data, msgData)
	case *ast.IfExpr:
		return execIf(e, data, msgData)
	}
	return ctrlContinue
}

// execAsk drives the ask/response suspension (spec.md §4.5). On first
// arrival it runs the ask block, marks the step pending in step_vars, and
// suspends with Next=Hold at this statement's index. On resume (the
// pending marker is set), it skips the ask block entirely, binds the
// incoming event to the ask's bound name (or leaves it reachable as the
// reserved `event` identifier when unnamed), clears the marker, and runs
// the response block.
func execAsk(s *ast.AskExpr, index int, data *eval.Data, msgData *eval.MessageData) ctrl {
	key := askPendingKey(s.Name)
	if pending, ok := data.StepVars.Get(key); ok && pending.Primitive.AsBool() {
		data.StepVars.Set(key, value.Plain(value.Bool(false), s.Pos()))
		if s.Name != "" {
			data.StepVars.Set(s.Name, data.Event)
		}
		return runStatements(s.Response.Statements, 0, data, msgData)
	}

	signal := runStatements(s.Ask.Statements, 0, data, msgData)
	if signal == ctrlStop {
		return signal
	}
	data.StepVars.Set(key, value.Plain(value.Bool(true), s.Pos()))
	msgData.Next = eval.Next{Kind: eval.NextHold, HoldIndex: index}
	return ctrlStop
}
