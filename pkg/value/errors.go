package value

import (
	"fmt"
	"strings"
)

// Error tag constants, modeled directly on the teacher's WorkflowError tag
// set (pkg/types/errors.go in the GCP Cloud Workflows emulator this module
// was built from) but adapted to the taxonomy spec.md §7 documents.
const (
	TagParseError     = "ParseError"
	TagLookupError    = "LookupError"
	TagTypeError      = "TypeError"
	TagKeyError       = "KeyError"
	TagIndexError     = "IndexError"
	TagMethodError    = "MethodError"
	TagZeroDivision   = "ZeroDivisionError"
	TagBuiltinError   = "BuiltinError"
	TagInvariantError = "InvariantError"
)

// CsmlError is the interpreter's single error type. It carries a tag set
// (queried with HasTag, the same pattern the teacher uses to let callers
// branch on error category without type-asserting) and a side-channel Extra
// map whose entries ErrorLiteral merges into the rendered error object. No
// builtin in this module sets Extra.
type CsmlError struct {
	Message  string
	Tags     []string
	Extra    map[string]Literal
	Interval Interval
}

func (e *CsmlError) Error() string {
	if e.Interval != (Interval{}) {
		return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Interval.Line, e.Interval.Column)
	}
	return e.Message
}

// HasTag reports whether the error carries the given tag.
func (e *CsmlError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func newError(tag, format string, iv Interval, args ...interface{}) *CsmlError {
	return &CsmlError{Message: fmt.Sprintf(format, args...), Tags: []string{tag}, Interval: iv}
}

func NewParseError(format string, iv Interval, args ...interface{}) *CsmlError {
	return newError(TagParseError, format, iv, args...)
}

func NewLookupError(name string, iv Interval) *CsmlError {
	return newError(TagLookupError, "identifier '%s' is not defined", iv, name)
}

func NewTypeError(format string, iv Interval, args ...interface{}) *CsmlError {
	return newError(TagTypeError, format, iv, args...)
}

func NewKeyError(key string, iv Interval) *CsmlError {
	return newError(TagKeyError, "key '%s' not found", iv, key)
}

func NewIndexError(idx int, length int, iv Interval) *CsmlError {
	return newError(TagIndexError, "index %d out of bounds for array of length %d", iv, idx, length)
}

func NewMethodError(method string, k Kind, iv Interval) *CsmlError {
	return newError(TagMethodError, "unknown method '%s' for type %s", iv, method, k)
}

func NewZeroDivisionError(iv Interval) *CsmlError {
	return newError(TagZeroDivision, "division by zero", iv)
}

func NewBuiltinError(name string, format string, iv Interval, args ...interface{}) *CsmlError {
	e := newError(TagBuiltinError, fmt.Sprintf("%s: %s", name, fmt.Sprintf(format, args...)), iv)
	return e
}

func NewInvariantError(format string, iv Interval, args ...interface{}) *CsmlError {
	return newError(TagInvariantError, format, iv, args...)
}

// ErrorLiteral renders a CsmlError as a content_type:"error" Literal, the
// form the interpreter hands to the message sender (spec.md §7).
func ErrorLiteral(err *CsmlError) Literal {
	o := NewObject()
	o.Set("message", Plain(String(err.Message), err.Interval))
	tags := make([]Literal, len(err.Tags))
	for i, t := range err.Tags {
		tags[i] = Plain(String(t), err.Interval)
	}
	o.Set("tags", Plain(Array(tags), err.Interval))
	for k, v := range err.Extra {
		o.Set(k, v)
	}
	return NewLit("error", ObjectVal(o), err.Interval)
}

// AsCsmlError normalizes any error into a *CsmlError, wrapping foreign
// errors (e.g. from the stdlib json package) as invariant errors.
func AsCsmlError(err error, iv Interval) *CsmlError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CsmlError); ok {
		return ce
	}
	msg := err.Error()
	msg = strings.TrimSpace(msg)
	return NewInvariantError("%s", iv, msg)
}
