package builtins

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/csml-dev/csml-go/pkg/value"
)

const httpBuilderContentType = "http_request_builder"

// registerHTTP wires the HTTP(url, ?query, ?header, ?body) builtin
// (spec.md §4.6): it returns a request-builder object carrying the
// collected arguments, and registers the `.get/.post/.put/.delete/.patch/
// .send` methods on that object's content_type so they run the actual
// request when invoked in a path chain (`HTTP(url: "...").get()`).
func (r *Registry) registerHTTP() {
	r.register("HTTP", func(args Args, iv value.Interval, rt *Runtime) (value.Literal, error) {
		url, ok := args.Get("url")
		if !ok {
			return value.Literal{}, value.NewBuiltinError("HTTP", "missing required url argument", iv)
		}
		o := value.NewObject()
		o.Set("url", url)
		if q, ok := args.Named["query"]; ok {
			o.Set("query", q)
		} else {
			o.Set("query", value.Plain(value.EmptyObject(), iv))
		}
		if h, ok := args.Named["header"]; ok {
			o.Set("header", h)
		} else {
			o.Set("header", value.Plain(value.EmptyObject(), iv))
		}
		if b, ok := args.Named["body"]; ok {
			o.Set("body", b)
		} else {
			o.Set("body", value.Plain(value.EmptyObject(), iv))
		}
		return value.NewLit(httpBuilderContentType, value.ObjectVal(o), iv), nil
	})

	for _, m := range []string{"get", "post", "put", "delete", "patch"} {
		method := strings.ToUpper(m)
		r.registerMethod(httpBuilderContentType, m, httpMethod(method))
	}
	r.registerMethod(httpBuilderContentType, "send", httpMethod("GET"))
}

func httpMethod(method string) MethodFunc {
	return func(receiver value.Literal, args []value.Literal, iv value.Interval, rt *Runtime) (value.Literal, error) {
		o := receiver.Primitive.AsObject()
		urlLit, _ := o.Get("url")
		url := urlLit.Primitive.AsStringRaw()

		var bodyReader io.Reader
		if bodyLit, ok := o.Get("body"); ok && bodyLit.Primitive.Kind() == value.KindObject && bodyLit.Primitive.AsObject().Len() > 0 {
			raw, err := json.Marshal(bodyLit.Primitive.ToGoValue())
			if err != nil {
				return errorLiteral("HTTP", err.Error(), iv), nil
			}
			bodyReader = bytes.NewReader(raw)
		}

		req, err := http.NewRequest(method, url, bodyReader)
		if err != nil {
			return errorLiteral("HTTP", err.Error(), iv), nil
		}
		if headerLit, ok := o.Get("header"); ok && headerLit.Primitive.Kind() == value.KindObject {
			for _, k := range headerLit.Primitive.AsObject().Keys() {
				v, _ := headerLit.Primitive.AsObject().Get(k)
				req.Header.Set(k, v.Primitive.AsStringRaw())
			}
		}
		if bodyReader != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if queryLit, ok := o.Get("query"); ok && queryLit.Primitive.Kind() == value.KindObject {
			q := req.URL.Query()
			for _, k := range queryLit.Primitive.AsObject().Keys() {
				v, _ := queryLit.Primitive.AsObject().Get(k)
				q.Set(k, v.Primitive.AsStringRaw())
			}
			req.URL.RawQuery = q.Encode()
		}

		resp, err := rt.HTTPClient.Do(req)
		if err != nil {
			return errorLiteral("HTTP", err.Error(), iv), nil
		}
		defer resp.Body.Close()
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return errorLiteral("HTTP", err.Error(), iv), nil
		}
		return parseHTTPResponse(respBody, iv), nil
	}
}

// parseHTTPResponse decodes a JSON response body into a Literal, falling
// back to a plain string Literal when the body isn't JSON (spec.md §4.6
// doesn't mandate a JSON-only response, and the Fn-endpoint's own
// test scenarios only ever exercise JSON, but arbitrary HTTP targets may
// return plain text).
func parseHTTPResponse(body []byte, iv value.Interval) value.Literal {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return value.NewLit("text", value.String(string(body)), iv)
	}
	return value.LiteralFromGoValue(v)
}

func errorLiteral(name, message string, iv value.Interval) value.Literal {
	ce := value.NewBuiltinError(name, "%s", iv, message)
	return value.ErrorLiteral(ce)
}
