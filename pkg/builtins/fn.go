package builtins

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/csml-dev/csml-go/pkg/value"
)

// registerFn wires the Fn(fn_id, ...) builtin, which posts to the bot's
// configured fn_endpoint. The request shape below is preserved verbatim
// from the original CSML-by-Clevy implementation's
// src/interpreter/builtins/api.rs: a double-wrapped body
// `{body: {function_id, data, client}}`, content-type/accept headers, and
// an X-Api-Key sourced from FN_X_API_KEY or else the literal fallback
// "PoePoe" (spec.md §6, SPEC_FULL.md §3).
func (r *Registry) registerFn() {
	r.register("Fn", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		if rt.FnEndpoint == "" {
			return errorLiteral("Fn", "no fn_endpoint configured on this context's api_info", iv), nil
		}

		fnIDLit, ok := args.Named["fn_id"]
		if !ok {
			fnIDLit, ok = args.Get("DEFAULT")
		}
		if !ok || fnIDLit.Primitive.Kind() != value.KindString {
			return value.Literal{}, value.NewBuiltinError("Fn", "missing required fn_id string argument", iv)
		}

		data := value.NewObject()
		for k, v := range args.Named {
			if k == "fn_id" {
				continue
			}
			data.Set(k, v)
		}

		clientLit := clientToLiteral(rt.FnClient, iv)

		inner := value.NewObject()
		inner.Set("function_id", fnIDLit)
		inner.Set("data", value.Plain(value.ObjectVal(data), iv))
		inner.Set("client", clientLit)

		outer := value.NewObject()
		outer.Set("body", value.Plain(value.ObjectVal(inner), iv))

		payload, err := json.Marshal(value.ObjectVal(outer).ToGoValue())
		if err != nil {
			return errorLiteral("Fn", err.Error(), iv), nil
		}

		req, err := http.NewRequest(http.MethodPost, rt.FnEndpoint, bytes.NewReader(payload))
		if err != nil {
			return errorLiteral("Fn", err.Error(), iv), nil
		}
		req.Header.Set("content-type", "application/json")
		req.Header.Set("accept", "application/json,text/*")
		apiKey := os.Getenv("FN_X_API_KEY")
		if apiKey == "" {
			apiKey = "PoePoe"
		}
		req.Header.Set("X-Api-Key", apiKey)

		resp, err := rt.HTTPClient.Do(req)
		if err != nil {
			return errorLiteral("Fn", err.Error(), iv), nil
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errorLiteral("Fn", err.Error(), iv), nil
		}
		return parseHTTPResponse(body, iv), nil
	})
}

func clientToLiteral(client interface{}, iv value.Interval) value.Literal {
	if client == nil {
		return value.Plain(value.EmptyObject(), iv)
	}
	if lit, ok := client.(value.Literal); ok {
		return lit
	}
	raw, err := json.Marshal(client)
	if err != nil {
		return value.Plain(value.EmptyObject(), iv)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return value.Plain(value.EmptyObject(), iv)
	}
	return value.LiteralFromGoValue(v)
}
