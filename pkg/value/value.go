// Package value implements the CSML primitive value system: the closed set
// of dynamically typed values (int, float, bool, string, null, array,
// object) that flow through parsing, evaluation and message rendering.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind identifies which variant of Primitive is populated.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBoolean
	KindString
	KindArray
	KindObject
)

// String returns the CSML type name, as surfaced by method-not-found errors.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Interval is a (line, column) source coordinate attached to every AST node
// and every Literal produced during evaluation.
type Interval struct {
	Line   int
	Column int
}

// Object is an insertion-order-preserving string-keyed map of Literal.
// CSML does not guarantee object key iteration order (spec.md §3), but
// preserving insertion order keeps to_json and debugging output stable.
type Object struct {
	keys   []string
	values map[string]Literal
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Literal)}
}

// Get retrieves a value by key.
func (o *Object) Get(key string) (Literal, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set inserts or overwrites a key.
func (o *Object) Set(key string, val Literal) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = val
}

// Delete removes a key, returning whether it was present.
func (o *Object) Delete(key string) bool {
	if _, exists := o.values[key]; !exists {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// Clone deep-copies the object.
func (o *Object) Clone() *Object {
	c := NewObject()
	for _, k := range o.keys {
		c.Set(k, o.values[k].Clone())
	}
	return c
}

// Primitive is a tagged variant over CSML's closed value set. The zero value
// is Null.
type Primitive struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	arr  []Literal
	obj  *Object
}

// Literal wraps a Primitive with the content-type tag used by message
// builders and the source Interval it was produced at (spec.md §3).
type Literal struct {
	ContentType string
	Primitive   Primitive
	Interval    Interval
}

// NewLit builds a Literal with an explicit content type.
func NewLit(contentType string, p Primitive, iv Interval) Literal {
	return Literal{ContentType: contentType, Primitive: p, Interval: iv}
}

// Plain builds a Literal tagged "text", the default content type for bare
// values that are not produced by a message-builder builtin.
func Plain(p Primitive, iv Interval) Literal {
	return Literal{ContentType: "text", Primitive: p, Interval: iv}
}

func (l Literal) Clone() Literal {
	return Literal{ContentType: l.ContentType, Primitive: l.Primitive.Clone(), Interval: l.Interval}
}

// --- constructors ---

var NullPrimitive = Primitive{kind: KindNull}

func Null() Primitive                 { return Primitive{kind: KindNull} }
func Int(v int64) Primitive           { return Primitive{kind: KindInt, i: v} }
func Float(v float64) Primitive       { return Primitive{kind: KindFloat, f: v} }
func Bool(v bool) Primitive           { return Primitive{kind: KindBoolean, b: v} }
func String(v string) Primitive       { return Primitive{kind: KindString, s: v} }
func Array(v []Literal) Primitive     { return Primitive{kind: KindArray, arr: v} }
func ObjectVal(v *Object) Primitive   { return Primitive{kind: KindObject, obj: v} }
func EmptyArray() Primitive           { return Primitive{kind: KindArray, arr: []Literal{}} }
func EmptyObject() Primitive          { return Primitive{kind: KindObject, obj: NewObject()} }

func (p Primitive) Kind() Kind   { return p.kind }
func (p Primitive) IsNull() bool { return p.kind == KindNull }

func (p Primitive) AsInt() int64 {
	switch p.kind {
	case KindInt:
		return p.i
	case KindFloat:
		return int64(p.f)
	}
	panic(fmt.Sprintf("AsInt called on %s", p.kind))
}

func (p Primitive) AsFloat() float64 {
	switch p.kind {
	case KindInt:
		return float64(p.i)
	case KindFloat:
		return p.f
	}
	panic(fmt.Sprintf("AsFloat called on %s", p.kind))
}

func (p Primitive) AsBoolRaw() bool {
	if p.kind != KindBoolean {
		panic(fmt.Sprintf("AsBoolRaw called on %s", p.kind))
	}
	return p.b
}

func (p Primitive) AsStringRaw() string {
	if p.kind != KindString {
		panic(fmt.Sprintf("AsStringRaw called on %s", p.kind))
	}
	return p.s
}

func (p Primitive) AsArray() []Literal {
	if p.kind != KindArray {
		panic(fmt.Sprintf("AsArray called on %s", p.kind))
	}
	return p.arr
}

func (p Primitive) AsObject() *Object {
	if p.kind != KindObject {
		panic(fmt.Sprintf("AsObject called on %s", p.kind))
	}
	return p.obj
}

// AsNumber returns the numeric value for Int/Float, or ok=false otherwise.
func (p Primitive) AsNumber() (float64, bool) {
	switch p.kind {
	case KindInt:
		return float64(p.i), true
	case KindFloat:
		return p.f, true
	default:
		return 0, false
	}
}

// AsBool implements spec.md §4.2's as_bool coercion table.
func (p Primitive) AsBool() bool {
	switch p.kind {
	case KindNull:
		return false
	case KindBoolean:
		return p.b
	case KindInt:
		return p.i != 0
	case KindFloat:
		return p.f != 0
	case KindString:
		return p.s != ""
	case KindArray:
		return len(p.arr) > 0
	case KindObject:
		return p.obj.Len() > 0
	}
	return false
}

// Clone deep-copies the primitive.
func (p Primitive) Clone() Primitive {
	switch p.kind {
	case KindArray:
		items := make([]Literal, len(p.arr))
		for i, it := range p.arr {
			items[i] = it.Clone()
		}
		return Primitive{kind: KindArray, arr: items}
	case KindObject:
		return Primitive{kind: KindObject, obj: p.obj.Clone()}
	default:
		return p
	}
}

// String renders a debug/display form. This is used by the to_string method and by
// string-interpolation concatenation.
func (p Primitive) String() string {
	switch p.kind {
	case KindNull:
		return "null"
	case KindBoolean:
		if p.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", p.i)
	case KindFloat:
		if math.IsInf(p.f, 1) {
			return "inf"
		}
		if math.IsInf(p.f, -1) {
			return "-inf"
		}
		if math.IsNaN(p.f) {
			return "NaN"
		}
		if p.f == math.Trunc(p.f) {
			return fmt.Sprintf("%g", p.f)
		}
		return fmt.Sprintf("%g", p.f)
	case KindString:
		return p.s
	case KindArray:
		parts := make([]string, len(p.arr))
		for i, it := range p.arr {
			parts[i] = it.Primitive.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		parts := make([]string, 0, p.obj.Len())
		for _, k := range p.obj.Keys() {
			v, _ := p.obj.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, v.Primitive.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<unknown>"
}

// IsEq implements cross-type equality: Int/Float compare numerically,
// any other cross-type pair is unequal.
func (p Primitive) IsEq(other Primitive) bool {
	if p.kind != other.kind {
		if (p.kind == KindInt || p.kind == KindFloat) && (other.kind == KindInt || other.kind == KindFloat) {
			a, _ := p.AsNumber()
			b, _ := other.AsNumber()
			return a == b
		}
		return false
	}
	switch p.kind {
	case KindNull:
		return true
	case KindBoolean:
		return p.b == other.b
	case KindInt:
		return p.i == other.i
	case KindFloat:
		return p.f == other.f
	case KindString:
		return p.s == other.s
	case KindArray:
		if len(p.arr) != len(other.arr) {
			return false
		}
		for i := range p.arr {
			if !p.arr[i].Primitive.IsEq(other.arr[i].Primitive) {
				return false
			}
		}
		return true
	case KindObject:
		if p.obj.Len() != other.obj.Len() {
			return false
		}
		for _, k := range p.obj.Keys() {
			ov, ok := other.obj.Get(k)
			if !ok {
				return false
			}
			mv, _ := p.obj.Get(k)
			if !mv.Primitive.IsEq(ov.Primitive) {
				return false
			}
		}
		return true
	}
	return false
}

// Ordering mirrors a three-way comparison result.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
)

// IsCmp implements ordered comparison (<,>,<=,>=). Only numeric and string
// pairs of the same comparable family are ordered; everything else errors.
func (p Primitive) IsCmp(other Primitive) (Ordering, error) {
	if a, ok := p.AsNumber(); ok {
		if b, ok2 := other.AsNumber(); ok2 {
			switch {
			case a < b:
				return Less, nil
			case a > b:
				return Greater, nil
			default:
				return Equal, nil
			}
		}
	}
	if p.kind == KindString && other.kind == KindString {
		switch {
		case p.s < other.s:
			return Less, nil
		case p.s > other.s:
			return Greater, nil
		default:
			return Equal, nil
		}
	}
	return Equal, fmt.Errorf("cannot compare %s and %s", p.kind, other.kind)
}

// ToGoValue converts a Primitive to a plain Go interface{} for JSON encoding.
func (p Primitive) ToGoValue() interface{} {
	switch p.kind {
	case KindNull:
		return nil
	case KindBoolean:
		return p.b
	case KindInt:
		return p.i
	case KindFloat:
		return p.f
	case KindString:
		return p.s
	case KindArray:
		out := make([]interface{}, len(p.arr))
		for i, it := range p.arr {
			out[i] = it.Primitive.ToGoValue()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, p.obj.Len())
		for _, k := range p.obj.Keys() {
			v, _ := p.obj.Get(k)
			out[k] = v.Primitive.ToGoValue()
		}
		return out
	}
	return nil
}

// ToJSON renders the primitive as JSON text (spec.md §8's to_json total
// function — CSML values never cycle, so this cannot fail on structure,
// only on float special values which json.Marshal rejects; those round-trip
// through String() instead).
func (p Primitive) ToJSON() ([]byte, error) {
	if p.kind == KindFloat && (math.IsInf(p.f, 0) || math.IsNaN(p.f)) {
		return json.Marshal(p.String())
	}
	return json.Marshal(p.ToGoValue())
}

// FromGoValue converts a decoded JSON value (from json.Unmarshal into
// interface{}) into a Primitive, used to rehydrate event/metadata payloads
// and Hold step-var snapshots.
func FromGoValue(v interface{}) Primitive {
	switch val := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return Int(int64(val))
		}
		return Float(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i)
		}
		f, _ := val.Float64()
		return Float(f)
	case string:
		return String(val)
	case []interface{}:
		items := make([]Literal, len(val))
		for i, it := range val {
			items[i] = Plain(FromGoValue(it), Interval{})
		}
		return Array(items)
	case map[string]interface{}:
		o := NewObject()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			o.Set(k, Plain(FromGoValue(val[k]), Interval{}))
		}
		return ObjectVal(o)
	default:
		return String(fmt.Sprintf("%v", val))
	}
}

// LiteralFromGoValue rehydrates a plain Literal from a decoded JSON value
// via FromGoValue; the content type is always "text".
func LiteralFromGoValue(v interface{}) Literal {
	return Plain(FromGoValue(v), Interval{})
}
