// Package api implements a REST surface over pkg/engine's turn driver: one
// endpoint to run a turn against a loaded bot's flows, one to inspect a
// loaded bot's manifest — the same fiber.App-plus-fiber.Map-error-shape
// idiom the original GCP Workflows emulator surface in this repo used,
// adapted from a workflow-execution resource model to a conversational
// turn-by-turn one (spec.md §4.7, SPEC_FULL.md §2.1).
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/csml-dev/csml-go/pkg/bot"
	"github.com/csml-dev/csml-go/pkg/engine"
	"github.com/csml-dev/csml-go/pkg/eval"
	"github.com/csml-dev/csml-go/pkg/storage"
	"github.com/csml-dev/csml-go/pkg/value"
)

// Server serves one or more loaded bots over HTTP, persisting conversation
// state through a storage.ConversationStore between calls.
type Server struct {
	app   *fiber.App
	store storage.ConversationStore
	funcs eval.FunctionRegistry
	bots  map[string]*bot.Bot
}

// New creates a Server backed by store for memory/hold persistence and
// funcs for builtin function dispatch (normally builtins.New's Registry).
func New(store storage.ConversationStore, funcs eval.FunctionRegistry) *Server {
	srv := &Server{
		store: store,
		funcs: funcs,
		bots:  make(map[string]*bot.Bot),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/v1/bots/:bot/turn", srv.runTurn)
	app.Get("/v1/bots/:bot", srv.getBot)

	srv.app = app
	return srv
}

// RegisterBot makes b available at /v1/bots/:id, where id is the name the
// caller will address it by.
func (s *Server) RegisterBot(id string, b *bot.Bot) {
	s.bots[id] = b
}

// Listen starts the HTTP server on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app, useful for httptest-driven tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func errJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

func (s *Server) getBot(c *fiber.Ctx) error {
	b, ok := s.bots[c.Params("bot")]
	if !ok {
		return errJSON(c, 404, "NOT_FOUND", fmt.Sprintf("bot %q is not loaded", c.Params("bot")))
	}

	flows := make([]string, 0, len(b.Flows))
	for name := range b.Flows {
		flows = append(flows, name)
	}

	return c.JSON(fiber.Map{
		"name":        b.Manifest.Name,
		"defaultFlow": b.DefaultFlow,
		"flows":       flows,
		"fnEndpoint":  b.Manifest.FnEndpoint,
	})
}

// turnRequest is the wire shape of a single conversational turn.
type turnRequest struct {
	ConversationID string          `json:"conversation_id"`
	Flow           string          `json:"flow"`
	Step           string          `json:"step"`
	Event          json.RawMessage `json:"event"`
}

// turnResponse is the normative Turn response shape (spec.md §6).
type turnResponse struct {
	Messages        []value.Message `json:"messages"`
	Memories        []memoryJSON    `json:"memories"`
	NextFlow        *string         `json:"next_flow"`
	NextStep        *string         `json:"next_step"`
	ConversationEnd bool            `json:"conversation_end"`
}

type memoryJSON struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func (s *Server) runTurn(c *fiber.Ctx) error {
	b, ok := s.bots[c.Params("bot")]
	if !ok {
		return errJSON(c, 404, "NOT_FOUND", fmt.Sprintf("bot %q is not loaded", c.Params("bot")))
	}

	var req turnRequest
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.ConversationID == "" {
		return errJSON(c, 400, "INVALID_ARGUMENT", "conversation_id is required")
	}

	flowName := req.Flow
	if flowName == "" {
		flowName = b.DefaultFlow
	}
	flowSrc, ok := b.Flows[flowName]
	if !ok {
		return errJSON(c, 404, "NOT_FOUND", fmt.Sprintf("flow %q not found in bot %q", flowName, c.Params("bot")))
	}

	stepName := req.Step
	if stepName == "" {
		stepName = "start"
	}

	event := value.Plain(value.Null(), value.Interval{})
	if len(req.Event) > 0 {
		var raw interface{}
		if err := json.Unmarshal(req.Event, &raw); err != nil {
			return errJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid event JSON: %v", err))
		}
		event = value.LiteralFromGoValue(raw)
	}

	ctx, err := s.store.LoadContext(c.Context(), req.ConversationID)
	if err != nil {
		return errJSON(c, 500, "INTERNAL", fmt.Sprintf("loading conversation state: %v", err))
	}

	result, err := engine.RunTurn(flowSrc, stepName, &ctx, event, s.funcs, value.Plain(value.Null(), value.Interval{}))
	if err != nil {
		return errJSON(c, 500, "INTERNAL", err.Error())
	}

	writes := make([]storage.MemoryWrite, len(result.Memories))
	for i, mw := range result.Memories {
		writes[i] = storage.MemoryWrite{Name: mw.Name, Literal: mw.Literal}
	}
	if err := s.store.SaveMemories(c.Context(), req.ConversationID, writes); err != nil {
		return errJSON(c, 500, "INTERNAL", fmt.Sprintf("saving memories: %v", err))
	}
	if err := s.store.SaveHold(c.Context(), req.ConversationID, result.Hold); err != nil {
		return errJSON(c, 500, "INTERNAL", fmt.Sprintf("saving hold: %v", err))
	}

	memories := make([]memoryJSON, len(result.Memories))
	for i, mw := range result.Memories {
		memories[i] = memoryJSON{Key: mw.Name, Value: mw.Literal.Primitive.ToGoValue()}
	}

	nextFlow, nextStep, end := result.Next.Resolve(flowName)
	resp := turnResponse{
		Messages:        result.Messages,
		Memories:        memories,
		NextFlow:        nextFlow,
		NextStep:        nextStep,
		ConversationEnd: end,
	}
	return c.JSON(resp)
}

