package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/csml-dev/csml-go/pkg/bot"
	"github.com/csml-dev/csml-go/pkg/builtins"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/storage"
	"github.com/csml-dev/csml-go/pkg/value"
)

// --- Mock store ---

type mockStore struct {
	holds    map[string]*memory.Hold
	memories map[string][]storage.MemoryWrite
}

func newMockStore() *mockStore {
	return &mockStore{holds: map[string]*memory.Hold{}, memories: map[string][]storage.MemoryWrite{}}
}

func (m *mockStore) LoadContext(ctx context.Context, id string) (memory.Context, error) {
	return memory.Context{
		Current:  map[string]value.Literal{},
		Metadata: map[string]value.Literal{},
		Hold:     m.holds[id],
	}, nil
}

func (m *mockStore) SaveMemories(ctx context.Context, id string, writes []storage.MemoryWrite) error {
	m.memories[id] = append(m.memories[id], writes...)
	return nil
}

func (m *mockStore) SaveHold(ctx context.Context, id string, hold *memory.Hold) error {
	m.holds[id] = hold
	return nil
}

func (m *mockStore) Close() error { return nil }

// --- Helpers ---

func makeRunTurnRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "run_turn",
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("result content is %T, not TextContent", result.Content[0])
	}
	return tc.Text
}

func newTestServer() *Server {
	reg := builtins.New(&builtins.Runtime{})
	srv := NewServer(newMockStore(), reg)
	srv.RegisterBot("greeter", &bot.Bot{
		DefaultFlow: "main",
		Flows: map[string][]byte{
			"main": []byte(`start: say "{{3-6}}"`),
		},
	})
	return srv
}

// --- Tests ---

func TestHandleRunTurn_SubtractionHappyPath(t *testing.T) {
	srv := newTestServer()
	req := makeRunTurnRequest(map[string]any{
		"bot":             "greeter",
		"conversation_id": "conv-1",
	})

	result, err := srv.handleRunTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("handleRunTurn returned an error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, `"-3"`) {
		t.Fatalf("expected the subtraction result in the response, got %s", text)
	}
}

func TestHandleRunTurn_MissingConversationID(t *testing.T) {
	srv := newTestServer()
	req := makeRunTurnRequest(map[string]any{"bot": "greeter"})

	result, err := srv.handleRunTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for a missing conversation_id")
	}
}

func TestHandleRunTurn_UnknownBot(t *testing.T) {
	srv := newTestServer()
	req := makeRunTurnRequest(map[string]any{"bot": "nope", "conversation_id": "c"})

	result, err := srv.handleRunTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for an unregistered bot")
	}
}

func TestHandleGetBot(t *testing.T) {
	srv := newTestServer()
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "get_bot", Arguments: map[string]any{"bot": "greeter"}}}

	result, err := srv.handleGetBot(context.Background(), req)
	if err != nil {
		t.Fatalf("handleGetBot returned an error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "main") {
		t.Fatalf("expected the main flow name in the response, got %s", text)
	}
}
