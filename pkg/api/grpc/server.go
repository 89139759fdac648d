// Package grpcapi exposes pkg/engine's turn driver over gRPC. The teacher's
// gRPC layer generated its request/response messages from Google's own
// workflows/executions .proto definitions; this interpreter has no such
// upstream schema, so requests and responses are carried as
// google.golang.org/protobuf's structpb.Struct (a real, already-generated
// proto.Message every protobuf-go install ships) rather than hand-forging
// protoc-gen-go output none of the examples demonstrate generating from
// scratch. The RunTurn method is registered through a literal grpc.ServiceDesc,
// the same mechanism protoc-gen-go emits for generated services, just
// without a .proto file behind it (SPEC_FULL.md §2.1).
package grpcapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/csml-dev/csml-go/pkg/bot"
	"github.com/csml-dev/csml-go/pkg/engine"
	"github.com/csml-dev/csml-go/pkg/eval"
	"github.com/csml-dev/csml-go/pkg/storage"
	"github.com/csml-dev/csml-go/pkg/value"
)

// Server implements the turn-running gRPC service.
type Server struct {
	store storage.ConversationStore
	funcs eval.FunctionRegistry
	bots  map[string]*bot.Bot
	grpc  *grpc.Server
}

// New creates a Server wrapping store and funcs, mirroring pkg/api.New's
// dependencies so both transports run the same turn driver.
func New(store storage.ConversationStore, funcs eval.FunctionRegistry) *Server {
	srv := &Server{
		store: store,
		funcs: funcs,
		bots:  make(map[string]*bot.Bot),
	}

	gs := grpc.NewServer()
	gs.RegisterService(&serviceDesc, srv)
	srv.grpc = gs

	return srv
}

// RegisterBot makes b available under id to RunTurn requests.
func (s *Server) RegisterBot(id string, b *bot.Bot) {
	s.bots[id] = b
}

// Serve starts listening on addr and serves gRPC requests until it errors
// or GracefulStop is called.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "csml.TurnService",
	HandlerType: (*turnServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunTurn", Handler: runTurnHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "csml.proto",
}

type turnServiceServer interface {
	RunTurn(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func runTurnHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(turnServiceServer).RunTurn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/csml.TurnService/RunTurn"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(turnServiceServer).RunTurn(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RunTurn is the field-level mirror of pkg/api's POST /v1/bots/:bot/turn
// handler, carried over structpb rather than a fiber.Ctx JSON body.
func (s *Server) RunTurn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	botID := fields["bot"].GetStringValue()
	b, ok := s.bots[botID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "bot %q is not loaded", botID)
	}

	conversationID := fields["conversation_id"].GetStringValue()
	if conversationID == "" {
		return nil, status.Error(codes.InvalidArgument, "conversation_id is required")
	}

	flowName := fields["flow"].GetStringValue()
	if flowName == "" {
		flowName = b.DefaultFlow
	}
	flowSrc, ok := b.Flows[flowName]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "flow %q not found in bot %q", flowName, botID)
	}

	stepName := fields["step"].GetStringValue()
	if stepName == "" {
		stepName = "start"
	}

	event := value.Plain(value.Null(), value.Interval{})
	if ev, ok := fields["event"]; ok {
		event = value.LiteralFromGoValue(ev.AsInterface())
	}

	convCtx, err := s.store.LoadContext(ctx, conversationID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "loading conversation state: %v", err)
	}

	result, err := engine.RunTurn(flowSrc, stepName, &convCtx, event, s.funcs, value.Plain(value.Null(), value.Interval{}))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	writes := make([]storage.MemoryWrite, len(result.Memories))
	for i, mw := range result.Memories {
		writes[i] = storage.MemoryWrite{Name: mw.Name, Literal: mw.Literal}
	}
	if err := s.store.SaveMemories(ctx, conversationID, writes); err != nil {
		return nil, status.Errorf(codes.Internal, "saving memories: %v", err)
	}
	if err := s.store.SaveHold(ctx, conversationID, result.Hold); err != nil {
		return nil, status.Errorf(codes.Internal, "saving hold: %v", err)
	}

	return resultToStruct(result, flowName)
}

// resultToStruct renders an engine.Result as spec.md §6's normative Turn
// response fields, the same shape pkg/api's REST handler returns.
func resultToStruct(result engine.Result, currentFlow string) (*structpb.Struct, error) {
	messages := make([]interface{}, len(result.Messages))
	for i, m := range result.Messages {
		messages[i] = map[string]interface{}{"content_type": m.ContentType, "content": m.Content}
	}

	memories := make([]interface{}, len(result.Memories))
	for i, mw := range result.Memories {
		memories[i] = map[string]interface{}{"key": mw.Name, "value": mw.Literal.Primitive.ToGoValue()}
	}

	nextFlow, nextStep, end := result.Next.Resolve(currentFlow)
	resp := map[string]interface{}{
		"messages":         messages,
		"memories":         memories,
		"conversation_end": end,
	}
	if nextFlow != nil {
		resp["next_flow"] = *nextFlow
	} else {
		resp["next_flow"] = nil
	}
	if nextStep != nil {
		resp["next_step"] = *nextStep
	} else {
		resp["next_step"] = nil
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	var v map[string]interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return structpb.NewStruct(v)
}
