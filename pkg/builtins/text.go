package builtins

import (
	"bytes"

	"github.com/yuin/goldmark"

	"github.com/csml-dev/csml-go/pkg/value"
)

// markdownToPlainText renders md to HTML via goldmark and strips tags,
// giving Text messages a best-effort plain-text accessibility fallback
// alongside the original markdown content bot authors write (spec.md
// §4.6's Text constructor), following the same goldmark.New/Convert
// pattern the joestump-claude-ops dashboard uses for its own Markdown
// rendering.
func markdownToPlainText(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return stripTags(buf.String())
}

func stripTags(html string) string {
	var out bytes.Buffer
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			out.WriteRune(r)
		}
	}
	return out.String()
}

// registerText augments the Text constructor with an `accessibility` field
// carrying the plain-text rendering of a markdown `text` payload, reusing
// buildText from messages.go for the base shape.
func (r *Registry) registerTextAccessibility(lit value.Literal) value.Literal {
	o := lit.Primitive.AsObject()
	if textLit, ok := o.Get("text"); ok && textLit.Primitive.Kind() == value.KindString {
		o.Set("accessibility", value.NewLit("text", value.String(markdownToPlainText(textLit.Primitive.AsStringRaw())), lit.Interval))
	}
	return lit
}

func (r *Registry) registerText() {
	base := r.funcs["Text"]
	r.register("Text", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		lit, err := base(args, iv, rt)
		if err != nil {
			return lit, err
		}
		return r.registerTextAccessibility(lit), nil
	})
}
