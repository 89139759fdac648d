package value

import "testing"

func TestAsBoolCoercion(t *testing.T) {
	cases := []struct {
		name string
		p    Primitive
		want bool
	}{
		{"null", Null(), false},
		{"zero int", Int(0), false},
		{"nonzero int", Int(1), true},
		{"zero float", Float(0), false},
		{"empty string", String(""), false},
		{"nonempty string", String("x"), true},
		{"empty array", EmptyArray(), false},
		{"nonempty array", Array([]Literal{Plain(Int(1), Interval{})}), true},
		{"empty object", EmptyObject(), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.AsBool(); got != c.want {
				t.Fatalf("AsBool() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestIsEqCrossTypeNumeric(t *testing.T) {
	if !Int(3).IsEq(Float(3.0)) {
		t.Fatal("expected 3 == 3.0")
	}
	if Int(3).IsEq(String("3")) {
		t.Fatal("expected int and string never equal")
	}
}

func TestIsEqArraysAndObjects(t *testing.T) {
	a := Array([]Literal{Plain(Int(1), Interval{}), Plain(String("x"), Interval{})})
	b := Array([]Literal{Plain(Int(1), Interval{}), Plain(String("x"), Interval{})})
	if !a.IsEq(b) {
		t.Fatal("expected structurally equal arrays to be equal")
	}

	o1 := NewObject()
	o1.Set("a", Plain(Int(1), Interval{}))
	o2 := NewObject()
	o2.Set("a", Plain(Int(1), Interval{}))
	if !ObjectVal(o1).IsEq(ObjectVal(o2)) {
		t.Fatal("expected structurally equal objects to be equal")
	}
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", Plain(Int(1), Interval{}))
	o.Set("a", Plain(Int(2), Interval{}))
	o.Set("m", Plain(Int(3), Interval{}))

	want := []string{"z", "a", "m"}
	got := o.Keys()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestObjectCloneIsIndependent(t *testing.T) {
	o := NewObject()
	o.Set("a", Plain(Int(1), Interval{}))
	clone := o.Clone()
	clone.Set("b", Plain(Int(2), Interval{}))

	if o.Len() != 1 {
		t.Fatalf("original object mutated by clone, len=%d", o.Len())
	}
	if clone.Len() != 2 {
		t.Fatalf("clone missing its own mutation, len=%d", clone.Len())
	}
}

func TestStringRendering(t *testing.T) {
	if got := Int(5).String(); got != "5" {
		t.Fatalf("got %q", got)
	}
	if got := Bool(true).String(); got != "true" {
		t.Fatalf("got %q", got)
	}
	arr := Array([]Literal{Plain(Int(1), Interval{}), Plain(Int(2), Interval{})})
	if got := arr.String(); got != "[1, 2]" {
		t.Fatalf("got %q", got)
	}
}

func TestFromGoValueDecodesIntegralFloatAsInt(t *testing.T) {
	in := map[string]interface{}{"n": float64(3), "s": "hi", "arr": []interface{}{float64(1), float64(2)}}
	p := FromGoValue(in)
	if p.Kind() != KindObject {
		t.Fatalf("expected object, got %s", p.Kind())
	}
	obj := p.AsObject()
	n, ok := obj.Get("n")
	if !ok || n.Primitive.Kind() != KindInt || n.Primitive.AsInt() != 3 {
		t.Fatalf("expected integral float64 to become Int 3, got %v", n)
	}
}

func TestToJSONEncodesObject(t *testing.T) {
	o := NewObject()
	o.Set("name", Plain(String("Ada"), Interval{}))
	raw, err := ObjectVal(o).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if string(raw) != `{"name":"Ada"}` {
		t.Fatalf("got %s", raw)
	}
}
