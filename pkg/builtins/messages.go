package builtins

import "github.com/csml-dev/csml-go/pkg/value"

// registerMessages wires the message-constructor builtins (spec.md §4.6):
// each takes a DEFAULT/named payload and returns a Literal tagged with the
// matching content_type, ready for ToMsg() at `say` time.
func (r *Registry) registerMessages() {
	r.register("Text", buildText)
	r.register("Image", simpleURLMessage("image"))
	r.register("Video", simpleURLMessage("video"))
	r.register("Audio", simpleURLMessage("audio"))
	r.register("File", simpleURLMessage("file"))
	r.register("Url", buildURL)
	r.register("Question", buildQuestion)
	r.register("Button", buildButton)
	r.register("Typing", buildDuration("typing"))
	r.register("Wait", buildDuration("wait"))
}

func obj(pairs ...interface{}) *value.Object {
	o := value.NewObject()
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i].(string)
		lit := pairs[i+1].(value.Literal)
		o.Set(key, lit)
	}
	return o
}

func buildText(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
	text, ok := args.Get("text")
	if !ok {
		return value.Literal{}, value.NewBuiltinError("Text", "missing required text argument", iv)
	}
	return value.NewLit("text", value.ObjectVal(obj("text", text)), iv), nil
}

// simpleURLMessage builds the Image/Video/Audio/File family, which all
// share the shape `{url: ...}` under their own content_type.
func simpleURLMessage(contentType string) Func {
	return func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		url, ok := args.Get("url")
		if !ok {
			return value.Literal{}, value.NewBuiltinError(contentType, "missing required url argument", iv)
		}
		return value.NewLit(contentType, value.ObjectVal(obj("url", url)), iv), nil
	}
}

// buildURL matches the original CSML-by-Clevy url builtin shape exactly
// (spec.md §8's "URL builder" scenario): content `{url: {url, text,
// title}}` under content_type "url".
func buildURL(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
	urlVal, ok := args.Get("url")
	if !ok {
		return value.Literal{}, value.NewBuiltinError("Url", "missing required url argument", iv)
	}
	text, hasText := args.Named["text"]
	if !hasText {
		text = urlVal
	}
	title, hasTitle := args.Named["title"]
	if !hasTitle {
		title = urlVal
	}
	inner := obj("url", urlVal, "text", text, "title", title)
	return value.NewLit("url", value.ObjectVal(obj("url", value.Plain(value.ObjectVal(inner), iv))), iv), nil
}

func buildButton(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
	title, ok := args.Get("title")
	if !ok {
		return value.Literal{}, value.NewBuiltinError("Button", "missing required title argument", iv)
	}
	o := obj("title", title)
	if payload, ok := args.Named["payload"]; ok {
		o.Set("payload", payload)
	} else {
		o.Set("payload", title)
	}
	if accepts, ok := args.Named["accepts"]; ok {
		o.Set("accepts", accepts)
	} else {
		o.Set("accepts", value.Plain(value.EmptyArray(), iv))
	}
	return value.NewLit("button", value.ObjectVal(o), iv), nil
}

// buildQuestion defaults buttons to an empty array when absent (spec.md §8
// scenario 4 calls Question(title="Name?") with no buttons at all).
func buildQuestion(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
	title, hasTitle := args.Named["title"]
	buttons, ok := args.Named["buttons"]
	if !ok {
		buttons, ok = args.Get("buttons")
	}
	if !ok {
		buttons = value.Plain(value.EmptyArray(), iv)
	}
	o := value.NewObject()
	if hasTitle {
		o.Set("title", title)
	}
	o.Set("buttons", buttons)
	return value.NewLit("question", value.ObjectVal(o), iv), nil
}

// buildDuration implements Typing/Wait: both accept a single numeric
// duration and carry it under {duration: ...}.
func buildDuration(contentType string) Func {
	return func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		d, ok := args.Get("duration")
		if !ok {
			d = value.NewLit("int", value.Int(0), iv)
		}
		return value.NewLit(contentType, value.ObjectVal(obj("duration", d)), iv), nil
	}
}
