// Package integration drives pkg/api's Server black-box, over fiber's
// in-process app.Test harness rather than a live network listener, to
// check the testable properties spec.md §8 names against the full
// parse-evaluate-persist path.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/csml-dev/csml-go/pkg/api"
	"github.com/csml-dev/csml-go/pkg/bot"
	"github.com/csml-dev/csml-go/pkg/builtins"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/storage"
	"github.com/csml-dev/csml-go/pkg/value"
)

type memStore struct {
	holds    map[string]*memory.Hold
	memories map[string]map[string]value.Literal
}

func newMemStore() *memStore {
	return &memStore{holds: map[string]*memory.Hold{}, memories: map[string]map[string]value.Literal{}}
}

func (m *memStore) LoadContext(_ context.Context, id string) (memory.Context, error) {
	current := map[string]value.Literal{}
	for k, v := range m.memories[id] {
		current[k] = v
	}
	return memory.Context{Current: current, Metadata: map[string]value.Literal{}, Hold: m.holds[id]}, nil
}

func (m *memStore) SaveMemories(_ context.Context, id string, writes []storage.MemoryWrite) error {
	bucket, ok := m.memories[id]
	if !ok {
		bucket = map[string]value.Literal{}
		m.memories[id] = bucket
	}
	for _, w := range writes {
		bucket[w.Name] = w.Literal
	}
	return nil
}

func (m *memStore) SaveHold(_ context.Context, id string, hold *memory.Hold) error {
	m.holds[id] = hold
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestServer(flows map[string][]byte, defaultFlow string) (*api.Server, *memStore) {
	store := newMemStore()
	reg := builtins.New(&builtins.Runtime{})
	srv := api.New(store, reg)
	srv.RegisterBot("test", &bot.Bot{DefaultFlow: defaultFlow, Flows: flows})
	return srv, store
}

func doTurn(t *testing.T, srv *api.Server, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/bots/test/turn", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("turn failed with status %d: %s", resp.StatusCode, respBody)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(respBody, &out); err != nil {
		t.Fatalf("decoding response %s: %v", respBody, err)
	}
	return out
}

// TestSubtractionHappyPath is spec.md §8 scenario 1.
func TestSubtractionHappyPath(t *testing.T) {
	srv, _ := newTestServer(map[string][]byte{"main": []byte(`start: say "{{3-6}}"`)}, "main")

	out := doTurn(t, srv, map[string]interface{}{"conversation_id": "c1"})

	messages, _ := out["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %v", out)
	}
	msg := messages[0].(map[string]interface{})
	if msg["content_type"] != "text" {
		t.Fatalf("expected content_type text, got %v", msg)
	}
	if out["next_step"] != nil || out["next_flow"] != nil {
		t.Fatalf("expected no further step/flow, got %v", out)
	}
	if out["conversation_end"] != true {
		t.Fatalf("expected conversation_end true, got %v", out)
	}
}

// TestTypeErrorSurfacesAsMessage is spec.md §8 scenario 2.
func TestTypeErrorSurfacesAsMessage(t *testing.T) {
	srv, _ := newTestServer(map[string][]byte{"main": []byte(`start: say "{{ [1,2]-1 }}"`)}, "main")

	out := doTurn(t, srv, map[string]interface{}{"conversation_id": "c2"})

	messages := out["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("expected a single error message, got %v", out)
	}
	msg := messages[0].(map[string]interface{})
	if msg["content_type"] != "error" {
		t.Fatalf("expected content_type error, got %v", msg)
	}
}

// TestURLBuilder is spec.md §8 scenario 3.
func TestURLBuilder(t *testing.T) {
	srv, _ := newTestServer(map[string][]byte{
		"main": []byte(`start: say Url(url="test", text="test", title="test")`),
	}, "main")

	out := doTurn(t, srv, map[string]interface{}{"conversation_id": "c3"})

	messages := out["messages"].([]interface{})
	msg := messages[0].(map[string]interface{})
	if msg["content_type"] != "url" {
		t.Fatalf("expected content_type url, got %v", msg)
	}
}

// TestRememberThenGoto is spec.md §8 scenario 5.
func TestRememberThenGoto(t *testing.T) {
	srv, store := newTestServer(map[string][]byte{
		"main": []byte(`
start: remember n = 3 goto step double
double: say "{{ n * 2 }}"
`),
	}, "main")

	out := doTurn(t, srv, map[string]interface{}{"conversation_id": "c5"})
	if out["next_step"] != "double" {
		t.Fatalf("expected next_step \"double\", got %v", out)
	}
	if out["conversation_end"] != false {
		t.Fatalf("expected conversation_end false, got %v", out)
	}

	lit, ok := store.memories["c5"]["n"]
	if !ok {
		t.Fatalf("expected n to be remembered")
	}
	if lit.Primitive.AsInt() != 3 {
		t.Fatalf("expected remembered n=3, got %v", lit)
	}

	memories := out["memories"].([]interface{})
	mem := memories[0].(map[string]interface{})
	if mem["key"] != "n" || mem["value"] != float64(3) {
		t.Fatalf("expected memories=[{key:n,value:3}], got %v", memories)
	}

	out = doTurn(t, srv, map[string]interface{}{"conversation_id": "c5", "step": "double"})
	messages := out["messages"].([]interface{})
	msg := messages[0].(map[string]interface{})
	if msg["content_type"] != "text" {
		t.Fatalf("expected a text message, got %v", out)
	}
}

// TestAskResponseRoundTrip is spec.md §8 scenario 4: the first turn runs the
// ask block and holds; the second turn, with the hold applied, runs the
// response block and does not re-emit the ask block's messages.
func TestAskResponseRoundTrip(t *testing.T) {
	srv, _ := newTestServer(map[string][]byte{
		"main": []byte(`
start:
  ask { say Question(title="Name?") }
  response { remember name = event say "hi {{name}}" }
`),
	}, "main")

	first := doTurn(t, srv, map[string]interface{}{"conversation_id": "c4"})
	firstMessages := first["messages"].([]interface{})
	if len(firstMessages) != 1 {
		t.Fatalf("expected the ask block's one message, got %v", first)
	}
	if first["next_step"] != nil || first["conversation_end"] != false {
		t.Fatalf("expected a pending hold (no next_step, not ended) after the ask block, got %v", first)
	}

	second := doTurn(t, srv, map[string]interface{}{"conversation_id": "c4", "event": "Ada"})
	secondMessages := second["messages"].([]interface{})
	if len(secondMessages) != 1 {
		t.Fatalf("expected the response block's one message, got %v", second)
	}
	msg := secondMessages[0].(map[string]interface{})
	content, _ := msg["content"].(map[string]interface{})
	if content["text"] != "hi Ada" {
		t.Fatalf("expected the response to use the remembered event, got %v", msg)
	}
}

// TestHashInvalidatedHold is spec.md §8 scenario 6: mutating the flow
// source between turns invalidates a pending hold, so the next turn
// restarts the step from index 0 and re-emits the ask block.
func TestHashInvalidatedHold(t *testing.T) {
	flowV1 := []byte(`
start:
  ask { say Question(title="Name?") }
  response { remember name = event say "hi {{name}}" }
`)
	srv, store := newTestServer(map[string][]byte{"main": flowV1}, "main")

	_ = doTurn(t, srv, map[string]interface{}{"conversation_id": "c6"})
	if store.holds["c6"] == nil {
		t.Fatalf("expected a pending hold")
	}

	flowV2 := append([]byte(" "), flowV1...)
	srv.RegisterBot("test", &bot.Bot{DefaultFlow: "main", Flows: map[string][]byte{"main": flowV2}})

	out := doTurn(t, srv, map[string]interface{}{"conversation_id": "c6", "event": "Ada"})
	messages := out["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("expected the ask block to re-run, got %v", out)
	}
	if out["next_step"] != nil || out["conversation_end"] != false {
		t.Fatalf("expected another pending hold after the restarted ask block, got %v", out)
	}
}
