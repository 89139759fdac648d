package grpcapi

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/csml-dev/csml-go/pkg/bot"
	"github.com/csml-dev/csml-go/pkg/builtins"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/storage"
	"github.com/csml-dev/csml-go/pkg/value"
)

// memStore is a minimal in-process storage.ConversationStore stub, enough
// to exercise RunTurn without a real database.
type memStore struct {
	memories map[string]map[string]storage.MemoryWrite
	holds    map[string]*memory.Hold
}

func newMemStore() *memStore {
	return &memStore{
		memories: make(map[string]map[string]storage.MemoryWrite),
		holds:    make(map[string]*memory.Hold),
	}
}

func (m *memStore) LoadContext(ctx context.Context, id string) (memory.Context, error) {
	return memory.Context{
		Current:  map[string]value.Literal{},
		Metadata: map[string]value.Literal{},
		Hold:     m.holds[id],
	}, nil
}

func (m *memStore) SaveMemories(ctx context.Context, id string, writes []storage.MemoryWrite) error {
	bucket, ok := m.memories[id]
	if !ok {
		bucket = map[string]storage.MemoryWrite{}
		m.memories[id] = bucket
	}
	for _, w := range writes {
		bucket[w.Name] = w
	}
	return nil
}

func (m *memStore) SaveHold(ctx context.Context, id string, hold *memory.Hold) error {
	m.holds[id] = hold
	return nil
}

func (m *memStore) Close() error { return nil }

func dialServer(t *testing.T, srv *Server) (*grpc.ClientConn, func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.grpc.Serve(lis)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.GracefulStop()
	}
}

func TestRunTurnSubtractionHappyPath(t *testing.T) {
	store := newMemStore()
	reg := builtins.New(&builtins.Runtime{})
	srv := New(store, reg)
	srv.RegisterBot("greeter", &bot.Bot{
		DefaultFlow: "main",
		Flows: map[string][]byte{
			"main": []byte(`start: say "{{3-6}}"`),
		},
	})

	conn, cleanup := dialServer(t, srv)
	defer cleanup()

	req, err := structpb.NewStruct(map[string]interface{}{
		"bot":             "greeter",
		"conversation_id": "conv-1",
	})
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	var resp structpb.Struct
	if err := conn.Invoke(context.Background(), "/csml.TurnService/RunTurn", req, &resp); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	messages := resp.GetFields()["messages"].GetListValue().GetValues()
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d: %v", len(messages), resp)
	}
	if !resp.GetFields()["conversation_end"].GetBoolValue() {
		t.Fatalf("expected conversation_end true, got %v", resp)
	}
	if _, isNull := resp.GetFields()["next_step"].GetKind().(*structpb.Value_NullValue); !isNull {
		t.Fatalf("expected next_step null, got %v", resp.GetFields()["next_step"])
	}
}

func TestRunTurnUnknownBot(t *testing.T) {
	srv := New(newMemStore(), builtins.New(&builtins.Runtime{}))
	conn, cleanup := dialServer(t, srv)
	defer cleanup()

	req, _ := structpb.NewStruct(map[string]interface{}{"bot": "missing", "conversation_id": "c"})
	var resp structpb.Struct
	if err := conn.Invoke(context.Background(), "/csml.TurnService/RunTurn", req, &resp); err == nil {
		t.Fatal("expected an error for an unregistered bot")
	}
}
