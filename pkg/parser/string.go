package parser

import (
	"strings"

	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/lexer"
	"github.com/csml-dev/csml-go/pkg/value"
)

// parseStringLiteral turns a Str token into either a plain LitExpr(String)
// or, when it contains `{{ expr }}` fragments, a ComplexLiteral whose parts
// alternate literal text and sub-parsed expressions (spec.md §4.1).
func (p *parser) parseStringLiteral(tok lexer.Token) (ast.Expr, error) {
	s := tok.Str
	if !strings.Contains(s, "{{") {
		return &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.String(s), p.iv(tok))}, nil
	}

	var parts []ast.Expr
	i := 0
	for i < len(s) {
		idx := strings.Index(s[i:], "{{")
		if idx == -1 {
			parts = append(parts, &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.String(s[i:]), p.iv(tok))})
			break
		}
		if idx > 0 {
			parts = append(parts, &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.String(s[i:i+idx]), p.iv(tok))})
		}
		start := i + idx + 2
		end := strings.Index(s[start:], "}}")
		if end == -1 {
			return nil, p.errf("unterminated {{ in string literal")
		}
		inner := s[start : start+end]
		innerTokens, err := lexer.Tokenize([]byte(inner))
		if err != nil {
			return nil, p.errf("invalid expression {{%s}}: %v", inner, err)
		}
		sub := &parser{tokens: innerTokens}
		innerExpr, err := sub.parseExpr()
		if err != nil {
			return nil, p.errf("invalid expression {{%s}}: %v", inner, err)
		}
		parts = append(parts, innerExpr)
		i = start + end + 2
	}

	if len(parts) == 1 {
		if _, ok := parts[0].(*ast.LitExpr); ok {
			return parts[0], nil
		}
	}
	return &ast.ComplexLiteral{Span: sp(p.iv(tok)), Parts: parts}, nil
}
