package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/csml-dev/csml-go/pkg/engine"
	"github.com/csml-dev/csml-go/pkg/storage"
	"github.com/csml-dev/csml-go/pkg/value"
)

func runTurnTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"run_turn",
		"Run one conversational turn against a loaded bot's flow and return the outbound messages and next-step directive.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"bot": {
					"type": "string",
					"description": "Registered bot id"
				},
				"conversation_id": {
					"type": "string",
					"description": "Conversation this turn belongs to; memory and holds persist under this id"
				},
				"flow": {
					"type": "string",
					"description": "Flow name to run (default: the bot's default flow)"
				},
				"step": {
					"type": "string",
					"description": "Step name to run (default: \"start\")"
				},
				"event": {
					"description": "The incoming event value, any JSON type"
				}
			},
			"required": ["bot", "conversation_id"]
		}`),
	)
}

func getBotTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_bot",
		"Describe a registered bot: its default flow and the flows it exposes.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"bot": {
					"type": "string",
					"description": "Registered bot id"
				}
			},
			"required": ["bot"]
		}`),
	)
}

type runTurnArgs struct {
	Bot            string          `json:"bot"`
	ConversationID string          `json:"conversation_id"`
	Flow           string          `json:"flow"`
	Step           string          `json:"step"`
	Event          json.RawMessage `json:"event"`
}

func (s *Server) handleRunTurn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args runTurnArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Bot == "" || args.ConversationID == "" {
		return mcp.NewToolResultError("bot and conversation_id are required"), nil
	}

	b, ok := s.bots[args.Bot]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("bot %q is not registered", args.Bot)), nil
	}

	flowName := args.Flow
	if flowName == "" {
		flowName = b.DefaultFlow
	}
	flowSrc, ok := b.Flows[flowName]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("flow %q not found in bot %q", flowName, args.Bot)), nil
	}

	stepName := args.Step
	if stepName == "" {
		stepName = "start"
	}

	event := value.Plain(value.Null(), value.Interval{})
	if len(args.Event) > 0 {
		var raw interface{}
		if err := json.Unmarshal(args.Event, &raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid event: %v", err)), nil
		}
		event = value.LiteralFromGoValue(raw)
	}

	convCtx, err := s.store.LoadContext(ctx, args.ConversationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading conversation state: %v", err)), nil
	}

	result, err := engine.RunTurn(flowSrc, stepName, &convCtx, event, s.funcs, value.Plain(value.Null(), value.Interval{}))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	writes := make([]storage.MemoryWrite, len(result.Memories))
	for i, mw := range result.Memories {
		writes[i] = storage.MemoryWrite{Name: mw.Name, Literal: mw.Literal}
	}
	if err := s.store.SaveMemories(ctx, args.ConversationID, writes); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saving memories: %v", err)), nil
	}
	if err := s.store.SaveHold(ctx, args.ConversationID, result.Hold); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saving hold: %v", err)), nil
	}

	memories := make([]map[string]interface{}, len(result.Memories))
	for i, mw := range result.Memories {
		memories[i] = map[string]interface{}{"key": mw.Name, "value": mw.Literal.Primitive.ToGoValue()}
	}
	nextFlow, nextStep, end := result.Next.Resolve(flowName)
	out, err := json.Marshal(map[string]interface{}{
		"messages":         result.Messages,
		"memories":         memories,
		"next_flow":        nextFlow,
		"next_step":        nextStep,
		"conversation_end": end,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

type getBotArgs struct {
	Bot string `json:"bot"`
}

func (s *Server) handleGetBot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getBotArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	b, ok := s.bots[args.Bot]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("bot %q is not registered", args.Bot)), nil
	}

	flows := make([]string, 0, len(b.Flows))
	for name := range b.Flows {
		flows = append(flows, name)
	}

	out, err := json.Marshal(map[string]interface{}{
		"default_flow": b.DefaultFlow,
		"flows":        flows,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
