package builtins

import (
	"math/rand"

	"github.com/csml-dev/csml-go/pkg/value"
)

// registerHelpers wires the general-purpose helper builtins (spec.md
// §4.6): type constructors/coercions and the two randomness helpers.
func (r *Registry) registerHelpers() {
	r.register("Object", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		o := value.NewObject()
		for k, v := range args.Named {
			o.Set(k, v)
		}
		return value.Plain(value.ObjectVal(o), iv), nil
	})
	r.register("Array", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		return value.Plain(value.Array(append([]value.Literal{}, args.Positional...)), iv), nil
	})
	r.register("Float", coerceTo(func(p value.Primitive) value.Primitive {
		f, _ := p.AsNumber()
		return value.Float(f)
	}))
	r.register("Int", coerceTo(func(p value.Primitive) value.Primitive {
		f, _ := p.AsNumber()
		return value.Int(int64(f))
	}))
	r.register("Boolean", coerceTo(func(p value.Primitive) value.Primitive {
		return value.Bool(p.AsBool())
	}))
	r.register("OneOf", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		if len(args.Positional) == 0 {
			return value.Plain(value.Null(), iv), nil
		}
		return args.Positional[rand.Intn(len(args.Positional))], nil
	})
	r.register("Shuffle", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		src, ok := args.Get("DEFAULT")
		if !ok || src.Primitive.Kind() != value.KindArray {
			return value.Literal{}, value.NewBuiltinError("Shuffle", "requires an array argument", iv)
		}
		items := append([]value.Literal{}, src.Primitive.AsArray()...)
		rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		return value.Plain(value.Array(items), iv), nil
	})
}

func coerceTo(fn func(value.Primitive) value.Primitive) Func {
	return func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		v, ok := args.Get("DEFAULT")
		if !ok {
			return value.Literal{}, value.NewBuiltinError("coerce", "requires one argument", iv)
		}
		return value.NewLit(v.ContentType, fn(v.Primitive), iv), nil
	}
}
