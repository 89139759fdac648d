// Package engine implements the turn driver: run_turn orchestration that
// parses a flow, rehydrates a Hold if present, runs the interpreter over
// one step, and returns the outbound messages, memory writes, and Next
// directive (spec.md §4.7).
package engine

import (
	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/eval"
	"github.com/csml-dev/csml-go/pkg/interp"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/parser"
	"github.com/csml-dev/csml-go/pkg/value"
)

// Result is run_turn's return value (spec.md §4.7's
// `(messages, memories, next, hold?)`).
type Result struct {
	Messages []value.Message
	Memories []eval.MemoryWrite
	Next     eval.Next
	Hold     *memory.Hold
}

// RunTurn runs one conversational turn against flowSrc starting at
// stepName, per spec.md §4.7:
//  1. parse flowSrc,
//  2. build Data from the resolved Context and step-local memory (restored
//     from context.Hold when its hash matches the flow source),
//  3. interpret the step to completion or to a Hold,
//  4. return messages/memories/Next, plus a serialized Hold envelope when
//     Next is a hold.
func RunTurn(flowSrc []byte, stepName string, ctx *memory.Context, event value.Literal, funcs eval.FunctionRegistry, component value.Literal) (Result, error) {
	flow, err := parser.ParseFlow(flowSrc)
	if err != nil {
		return Result{}, err
	}
	return RunTurnParsed(flow, stepName, ctx, event, funcs, component)
}

// RunTurnParsed is RunTurn for a Flow the caller has already parsed and
// cached (spec.md §4.7 step 1: "Parse or retrieve cached Flow").
func RunTurnParsed(flow *ast.Flow, stepName string, ctx *memory.Context, event value.Literal, funcs eval.FunctionRegistry, component value.Literal) (Result, error) {
	step, ok := flow.Steps[stepName]
	if !ok {
		return Result{}, value.NewInvariantError("step %q not found in flow", value.Interval{}, stepName)
	}

	stepVars := memory.NewStepVars()
	startIndex := 0

	if ctx.Hold != nil {
		flowHash := parser.Hash(flow.Source)
		if ctx.Hold.Hash == flowHash {
			restored, err := memory.RestoreStepVars(ctx.Hold.StepVars)
			if err != nil {
				return Result{}, err
			}
			stepVars = restored
			startIndex = int(ctx.Hold.Index)
		}
		// Hash mismatch: the hold is discarded and the step restarts from
		// index 0, per spec.md §4.5's resume contract and the
		// hash-invalidated-hold testable property (spec.md §8).
	}

	data := eval.NewData(flow, ctx, stepVars, funcs, component, event)
	msgData := eval.NewMessageData()

	interp.RunStep(step, startIndex, data, msgData)

	result := Result{
		Messages: msgData.Messages,
		Memories: msgData.Memories,
		Next:     msgData.Next,
	}

	if msgData.Next.Kind == eval.NextHold {
		snapshot, err := stepVars.Snapshot()
		if err != nil {
			return Result{}, err
		}
		result.Hold = &memory.Hold{
			Index:    uint64(msgData.Next.HoldIndex),
			StepVars: snapshot,
			Hash:     parser.Hash(flow.Source),
		}
	}

	return result, nil
}
