package builtins

import (
	"github.com/google/uuid"

	"github.com/csml-dev/csml-go/pkg/value"
)

// registerUUID wires an id-generator helper used by bot authors composing
// message payloads that need a client-side correlation id (spec.md §4.6
// groups this with the other helper builtins), generalizing the teacher's
// pkg/stdlib/uuid.go registration onto github.com/google/uuid directly.
func (r *Registry) registerUUID() {
	r.register("uuid", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		return value.NewLit("text", value.String(uuid.NewString()), iv), nil
	})
}
