// Package mcpserver exposes pkg/engine's turn driver as an MCP (Model
// Context Protocol) tool over stdio JSON-RPC, the same
// mark3labs/mcp-go server.NewMCPServer/AddTools/NewStdioServer wiring the
// teacher-adjacent claude-ops repo uses for its own tool surface
// (SPEC_FULL.md §2.2).
package mcpserver

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/csml-dev/csml-go/pkg/bot"
	"github.com/csml-dev/csml-go/pkg/eval"
	"github.com/csml-dev/csml-go/pkg/storage"
)

// Server holds the state an MCP tool call needs: where to persist
// conversation memory and which bots are available to run turns against.
type Server struct {
	store storage.ConversationStore
	funcs eval.FunctionRegistry
	bots  map[string]*bot.Bot
}

// NewServer creates an MCP server backed by store and funcs.
func NewServer(store storage.ConversationStore, funcs eval.FunctionRegistry) *Server {
	return &Server{
		store: store,
		funcs: funcs,
		bots:  make(map[string]*bot.Bot),
	}
}

// RegisterBot makes b available to the run_turn tool under id.
func (s *Server) RegisterBot(id string, b *bot.Bot) {
	s.bots[id] = b
}

// Run starts the MCP stdio server, blocking until ctx is cancelled or
// stdin closes.
func (s *Server) Run(ctx context.Context) error {
	mcpServer := server.NewMCPServer(
		"csml-go",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTools(
		server.ServerTool{Tool: runTurnTool(), Handler: s.handleRunTurn},
		server.ServerTool{Tool: getBotTool(), Handler: s.handleGetBot},
	)

	stdio := server.NewStdioServer(mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
