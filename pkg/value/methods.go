package value

import (
	"regexp"
	"strconv"
	"strings"
)

// Exec dispatches a method call on the receiver (spec.md §4.2's
// `exec(method, args, interval, content_type, &mut update_self) →
// Result<Literal, Err>`). Exec is a pointer receiver because mutating
// methods (push, pop, insert, remove, clear, string append, ...) rewrite
// the receiver in place; updateSelf is set true only by those methods, so
// the path evaluator (pkg/eval/path.go) knows to re-save the mutated
// receiver into its owning scope and knows NOT to do so for methods that
// merely compute a derived value (length, contains, to_uppercase, ...),
// whose return value is not the receiver.
func (p *Primitive) Exec(method string, args []Literal, iv Interval, contentType string, updateSelf *bool) (Literal, error) {
	switch p.kind {
	case KindString:
		return p.execString(method, args, iv, contentType, updateSelf)
	case KindArray:
		return p.execArray(method, args, iv, contentType, updateSelf)
	case KindObject:
		return p.execObject(method, args, iv, contentType, updateSelf)
	case KindInt, KindFloat:
		return p.execNumber(method, args, iv, contentType)
	case KindBoolean:
		return p.execBoolean(method, args, iv, contentType)
	case KindNull:
		return p.execNull(method, args, iv, contentType)
	}
	return Literal{}, NewMethodError(method, p.kind, iv)
}

func lit(p Primitive, iv Interval, contentType string) Literal {
	return NewLit(contentType, p, iv)
}

func argString(args []Literal, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	if args[i].Primitive.kind != KindString {
		return "", false
	}
	return args[i].Primitive.s, true
}

// --- string methods ---

func (p *Primitive) execString(method string, args []Literal, iv Interval, ct string, updateSelf *bool) (Literal, error) {
	s := p.s
	switch method {
	case "length":
		return lit(Int(int64(len([]rune(s)))), iv, ct), nil
	case "is_empty":
		return lit(Bool(s == ""), iv, ct), nil
	case "contains":
		sub, ok := argString(args, 0)
		if !ok {
			return Literal{}, NewTypeError("contains expects a string argument", iv)
		}
		return lit(Bool(strings.Contains(s, sub)), iv, ct), nil
	case "match":
		pattern, ok := argString(args, 0)
		if !ok {
			return Literal{}, NewTypeError("match expects a string argument", iv)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Literal{}, NewTypeError("invalid regex %q: %v", iv, pattern, err)
		}
		return lit(Bool(re.MatchString(s)), iv, ct), nil
	case "to_uppercase":
		return lit(String(strings.ToUpper(s)), iv, ct), nil
	case "to_lowercase":
		return lit(String(strings.ToLower(s)), iv, ct), nil
	case "trim":
		return lit(String(strings.TrimSpace(s)), iv, ct), nil
	case "capitalize":
		if s == "" {
			return lit(String(s), iv, ct), nil
		}
		return lit(String(strings.ToUpper(s[:1])+s[1:]), iv, ct), nil
	case "slice":
		start, end := 0, len([]rune(s))
		r := []rune(s)
		if len(args) > 0 {
			start = int(args[0].Primitive.AsInt())
		}
		if len(args) > 1 {
			end = int(args[1].Primitive.AsInt())
		}
		if start < 0 || end > len(r) || start > end {
			return Literal{}, NewIndexError(start, len(r), iv)
		}
		return lit(String(string(r[start:end])), iv, ct), nil
	case "split":
		sep, ok := argString(args, 0)
		if !ok {
			sep = " "
		}
		parts := strings.Split(s, sep)
		out := make([]Literal, len(parts))
		for i, part := range parts {
			out[i] = lit(String(part), iv, ct)
		}
		return lit(Array(out), iv, ct), nil
	case "append":
		if len(args) == 0 {
			return Literal{}, NewTypeError("append expects an argument", iv)
		}
		p.s = s + args[0].Primitive.String()
		*updateSelf = true
		return lit(*p, iv, ct), nil
	case "contains_regex", "match_regex":
		pattern, ok := argString(args, 0)
		if !ok {
			return Literal{}, NewTypeError("%s expects a string argument", iv, method)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Literal{}, NewTypeError("invalid regex %q: %v", iv, pattern, err)
		}
		return lit(Bool(re.MatchString(s)), iv, ct), nil
	case "to_int":
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Literal{}, NewTypeError("cannot parse %q as int", iv, s)
		}
		return lit(Int(n), iv, ct), nil
	case "to_float":
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Literal{}, NewTypeError("cannot parse %q as float", iv, s)
		}
		return lit(Float(f), iv, ct), nil
	case "type_of":
		return lit(String(KindString.String()), iv, ct), nil
	}
	return Literal{}, NewMethodError(method, KindString, iv)
}

// --- array methods ---

func (p *Primitive) execArray(method string, args []Literal, iv Interval, ct string, updateSelf *bool) (Literal, error) {
	switch method {
	case "length":
		return lit(Int(int64(len(p.arr))), iv, ct), nil
	case "is_empty":
		return lit(Bool(len(p.arr) == 0), iv, ct), nil
	case "push":
		if len(args) == 0 {
			return Literal{}, NewTypeError("push expects an argument", iv)
		}
		p.arr = append(p.arr, args[0])
		*updateSelf = true
		return lit(*p, iv, ct), nil
	case "pop":
		if len(p.arr) == 0 {
			return Literal{}, NewIndexError(0, 0, iv)
		}
		last := p.arr[len(p.arr)-1]
		p.arr = p.arr[:len(p.arr)-1]
		*updateSelf = true
		return last, nil
	case "insert":
		if len(args) < 2 {
			return Literal{}, NewTypeError("insert expects (index, value)", iv)
		}
		idx := int(args[0].Primitive.AsInt())
		if idx < 0 || idx > len(p.arr) {
			return Literal{}, NewIndexError(idx, len(p.arr), iv)
		}
		p.arr = append(p.arr[:idx], append([]Literal{args[1]}, p.arr[idx:]...)...)
		*updateSelf = true
		return lit(*p, iv, ct), nil
	case "remove":
		if len(args) == 0 {
			return Literal{}, NewTypeError("remove expects an index argument", iv)
		}
		idx := int(args[0].Primitive.AsInt())
		if idx < 0 || idx >= len(p.arr) {
			return Literal{}, NewIndexError(idx, len(p.arr), iv)
		}
		removed := p.arr[idx]
		p.arr = append(p.arr[:idx], p.arr[idx+1:]...)
		*updateSelf = true
		return removed, nil
	case "clear":
		p.arr = []Literal{}
		*updateSelf = true
		return lit(*p, iv, ct), nil
	case "index_of", "find":
		if len(args) == 0 {
			return Literal{}, NewTypeError("%s expects an argument", iv, method)
		}
		for i, item := range p.arr {
			if item.Primitive.IsEq(args[0].Primitive) {
				return lit(Int(int64(i)), iv, ct), nil
			}
		}
		return lit(Int(-1), iv, ct), nil
	case "contains":
		if len(args) == 0 {
			return Literal{}, NewTypeError("contains expects an argument", iv)
		}
		for _, item := range p.arr {
			if item.Primitive.IsEq(args[0].Primitive) {
				return lit(Bool(true), iv, ct), nil
			}
		}
		return lit(Bool(false), iv, ct), nil
	case "join":
		sep, ok := argString(args, 0)
		if !ok {
			sep = ","
		}
		parts := make([]string, len(p.arr))
		for i, item := range p.arr {
			parts[i] = item.Primitive.String()
		}
		return lit(String(strings.Join(parts, sep)), iv, ct), nil
	case "first":
		if len(p.arr) == 0 {
			return lit(Null(), iv, ct), nil
		}
		return p.arr[0], nil
	case "last":
		if len(p.arr) == 0 {
			return lit(Null(), iv, ct), nil
		}
		return p.arr[len(p.arr)-1], nil
	case "slice":
		start, end := 0, len(p.arr)
		if len(args) > 0 {
			start = int(args[0].Primitive.AsInt())
		}
		if len(args) > 1 {
			end = int(args[1].Primitive.AsInt())
		}
		if start < 0 || end > len(p.arr) || start > end {
			return Literal{}, NewIndexError(start, len(p.arr), iv)
		}
		out := make([]Literal, end-start)
		copy(out, p.arr[start:end])
		return lit(Array(out), iv, ct), nil
	case "type_of":
		return lit(String(KindArray.String()), iv, ct), nil
	}
	return Literal{}, NewMethodError(method, KindArray, iv)
}

// --- object methods ---

func (p *Primitive) execObject(method string, args []Literal, iv Interval, ct string, updateSelf *bool) (Literal, error) {
	switch method {
	case "length":
		return lit(Int(int64(p.obj.Len())), iv, ct), nil
	case "is_empty":
		return lit(Bool(p.obj.Len() == 0), iv, ct), nil
	case "contains":
		key, ok := argString(args, 0)
		if !ok {
			return Literal{}, NewTypeError("contains expects a string key", iv)
		}
		_, found := p.obj.Get(key)
		return lit(Bool(found), iv, ct), nil
	case "keys":
		keys := p.obj.Keys()
		out := make([]Literal, len(keys))
		for i, k := range keys {
			out[i] = lit(String(k), iv, ct)
		}
		return lit(Array(out), iv, ct), nil
	case "values":
		keys := p.obj.Keys()
		out := make([]Literal, len(keys))
		for i, k := range keys {
			v, _ := p.obj.Get(k)
			out[i] = v
		}
		return lit(Array(out), iv, ct), nil
	case "insert":
		if len(args) < 2 {
			return Literal{}, NewTypeError("insert expects (key, value)", iv)
		}
		key, ok := argString(args, 0)
		if !ok {
			return Literal{}, NewTypeError("insert expects a string key", iv)
		}
		p.obj.Set(key, args[1])
		*updateSelf = true
		return lit(*p, iv, ct), nil
	case "remove":
		key, ok := argString(args, 0)
		if !ok {
			return Literal{}, NewTypeError("remove expects a string key", iv)
		}
		removed, found := p.obj.Get(key)
		if !found {
			return Literal{}, NewKeyError(key, iv)
		}
		p.obj.Delete(key)
		*updateSelf = true
		return removed, nil
	case "get":
		key, ok := argString(args, 0)
		if !ok {
			return Literal{}, NewTypeError("get expects a string key", iv)
		}
		if v, found := p.obj.Get(key); found {
			return v, nil
		}
		return lit(Null(), iv, ct), nil
	case "type_of":
		return lit(String(KindObject.String()), iv, ct), nil
	}
	return Literal{}, NewMethodError(method, KindObject, iv)
}

// --- numeric/boolean/null methods ---

func (p *Primitive) execNumber(method string, args []Literal, iv Interval, ct string) (Literal, error) {
	switch method {
	case "type_of":
		return lit(String(p.kind.String()), iv, ct), nil
	case "abs":
		if p.kind == KindInt {
			n := p.i
			if n < 0 {
				n = -n
			}
			return lit(Int(n), iv, ct), nil
		}
		f := p.f
		if f < 0 {
			f = -f
		}
		return lit(Float(f), iv, ct), nil
	case "to_string":
		return lit(String(p.String()), iv, ct), nil
	}
	return Literal{}, NewMethodError(method, p.kind, iv)
}

func (p *Primitive) execBoolean(method string, args []Literal, iv Interval, ct string) (Literal, error) {
	switch method {
	case "type_of":
		return lit(String(KindBoolean.String()), iv, ct), nil
	case "to_string":
		return lit(String(p.String()), iv, ct), nil
	}
	return Literal{}, NewMethodError(method, KindBoolean, iv)
}

func (p *Primitive) execNull(method string, args []Literal, iv Interval, ct string) (Literal, error) {
	switch method {
	case "type_of":
		return lit(String(KindNull.String()), iv, ct), nil
	case "is_empty":
		return lit(Bool(true), iv, ct), nil
	}
	return Literal{}, NewMethodError(method, KindNull, iv)
}
