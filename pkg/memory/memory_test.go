package memory

import (
	"encoding/json"
	"testing"

	"github.com/csml-dev/csml-go/pkg/value"
)

func TestStepVarsGetSet(t *testing.T) {
	sv := NewStepVars()
	if _, ok := sv.Get("n"); ok {
		t.Fatal("expected empty step vars to have nothing")
	}
	sv.Set("n", value.Plain(value.Int(3), value.Interval{}))
	got, ok := sv.Get("n")
	if !ok || got.Primitive.AsInt() != 3 {
		t.Fatalf("expected n=3, got %v ok=%v", got, ok)
	}
}

func TestStepVarsSnapshotRestoreRoundTrip(t *testing.T) {
	sv := NewStepVars()
	sv.Set("n", value.Plain(value.Int(3), value.Interval{}))
	sv.Set("name", value.Plain(value.String("Ada"), value.Interval{}))

	snap, err := sv.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored, err := RestoreStepVars(snap)
	if err != nil {
		t.Fatalf("RestoreStepVars: %v", err)
	}
	n, ok := restored.Get("n")
	if !ok || n.Primitive.AsInt() != 3 {
		t.Fatalf("expected restored n=3, got %v", n)
	}
	name, ok := restored.Get("name")
	if !ok || name.Primitive.AsStringRaw() != "Ada" {
		t.Fatalf("expected restored name=Ada, got %v", name)
	}
}

func TestResolveContextJSON(t *testing.T) {
	cj := ContextJSON{
		Current:  map[string]json.RawMessage{"n": json.RawMessage(`3`)},
		Metadata: map[string]json.RawMessage{"locale": json.RawMessage(`"en"`)},
		Hold:     &Hold{Index: 1, Hash: "abc"},
	}
	ctx, err := Resolve(cj)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	n, ok := ctx.Current["n"]
	if !ok || n.Primitive.AsInt() != 3 {
		t.Fatalf("expected current.n=3, got %v", n)
	}
	locale, ok := ctx.Metadata["locale"]
	if !ok || locale.Primitive.AsStringRaw() != "en" {
		t.Fatalf("expected metadata.locale=en, got %v", locale)
	}
	if ctx.Hold == nil || ctx.Hold.Hash != "abc" {
		t.Fatalf("expected the hold to carry through untouched, got %v", ctx.Hold)
	}
}

func TestResolveContextJSONInvalidCurrentErrors(t *testing.T) {
	cj := ContextJSON{Current: map[string]json.RawMessage{"bad": json.RawMessage(`{not json`)}}
	if _, err := Resolve(cj); err == nil {
		t.Fatal("expected an error for malformed JSON in current")
	}
}
