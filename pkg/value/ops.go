package value

import (
	"math"
	"strings"
)

// Add implements the `+` operator. String concatenation (spec.md §4.2:
// "String + T → String concatenation") takes priority whenever the
// left-hand side is a string; numeric addition otherwise; Null absorbs.
func (p Primitive) Add(rhs Primitive, iv Interval) (Primitive, error) {
	switch p.kind {
	case KindNull:
		return Null(), nil
	case KindString:
		return String(p.s + rhs.String()), nil
	case KindArray:
		if rhs.kind == KindArray {
			out := append(append([]Literal{}, p.arr...), rhs.arr...)
			return Array(out), nil
		}
		return Array(append(append([]Literal{}, p.arr...), Plain(rhs, iv))), nil
	case KindInt, KindFloat:
		if rhs.kind == KindNull {
			return Null(), nil
		}
		a, aok := p.AsNumber()
		b, bok := rhs.AsNumber()
		if !aok || !bok {
			return Null(), NewTypeError("cannot add %s and %s", iv, p.kind, rhs.kind)
		}
		if p.kind == KindInt && rhs.kind == KindInt {
			return Int(p.i + rhs.i), nil
		}
		return Float(a + b), nil
	case KindBoolean:
		return Null(), NewTypeError("boolean does not support arithmetic", iv)
	}
	return Null(), NewTypeError("cannot add to %s", iv, p.kind)
}

func (p Primitive) arithNumeric(rhs Primitive, iv Interval, op string,
	intOp func(a, b int64) (int64, error), floatOp func(a, b float64) (float64, error)) (Primitive, error) {
	if p.kind == KindNull {
		return Null(), nil
	}
	if p.kind == KindBoolean || rhs.kind == KindBoolean {
		return Null(), NewTypeError("boolean does not support arithmetic", iv)
	}
	if rhs.kind == KindNull {
		return Null(), nil
	}
	a, aok := p.AsNumber()
	b, bok := rhs.AsNumber()
	if !aok || !bok {
		return Null(), NewTypeError("cannot %s %s and %s", iv, op, p.kind, rhs.kind)
	}
	if p.kind == KindInt && rhs.kind == KindInt {
		r, err := intOp(p.i, rhs.i)
		if err != nil {
			return Null(), err
		}
		return Int(r), nil
	}
	r, err := floatOp(a, b)
	if err != nil {
		return Null(), err
	}
	return Float(r), nil
}

func (p Primitive) Sub(rhs Primitive, iv Interval) (Primitive, error) {
	return p.arithNumeric(rhs, iv, "subtract",
		func(a, b int64) (int64, error) { return a - b, nil },
		func(a, b float64) (float64, error) { return a - b, nil })
}

func (p Primitive) Mul(rhs Primitive, iv Interval) (Primitive, error) {
	// spec.md §8: "a" * 3 → "aaa"
	if p.kind == KindString {
		if n, ok := rhs.AsNumber(); ok {
			return String(strings.Repeat(p.s, int(n))), nil
		}
		return Null(), NewTypeError("cannot multiply string by %s", iv, rhs.kind)
	}
	return p.arithNumeric(rhs, iv, "multiply",
		func(a, b int64) (int64, error) { return a * b, nil },
		func(a, b float64) (float64, error) { return a * b, nil })
}

func (p Primitive) Div(rhs Primitive, iv Interval) (Primitive, error) {
	return p.arithNumeric(rhs, iv, "divide",
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, NewZeroDivisionError(iv)
			}
			return a / b, nil
		},
		func(a, b float64) (float64, error) { return a / b, nil })
}

func (p Primitive) Rem(rhs Primitive, iv Interval) (Primitive, error) {
	return p.arithNumeric(rhs, iv, "take remainder of",
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, NewZeroDivisionError(iv)
			}
			return a % b, nil
		},
		func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, NewZeroDivisionError(iv)
			}
			return math.Mod(a, b), nil
		})
}

func (p Primitive) BitAnd(rhs Primitive, iv Interval) (Primitive, error) {
	if p.kind == KindBoolean && rhs.kind == KindBoolean {
		return Bool(p.b && rhs.b), nil
	}
	if p.kind == KindInt && rhs.kind == KindInt {
		return Int(p.i & rhs.i), nil
	}
	return Null(), NewTypeError("cannot bitand %s and %s", iv, p.kind, rhs.kind)
}

func (p Primitive) BitOr(rhs Primitive, iv Interval) (Primitive, error) {
	if p.kind == KindBoolean && rhs.kind == KindBoolean {
		return Bool(p.b || rhs.b), nil
	}
	if p.kind == KindInt && rhs.kind == KindInt {
		return Int(p.i | rhs.i), nil
	}
	return Null(), NewTypeError("cannot bitor %s and %s", iv, p.kind, rhs.kind)
}
