// Package parser turns CSML flow source text into a typed ast.Flow, per
// spec.md §4.1's grammar.
package parser

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/lexer"
	"github.com/csml-dev/csml-go/pkg/value"
)

// ErrorInfo is a parse error bound to the source position it occurred at,
// matching spec.md §4.1's `{line, column, message}` contract. For a lexical
// error from lexer.Tokenize, Line and Column are zero and the position
// appears only in Message.
type ErrorInfo struct {
	Line    int
	Column  int
	Message string
}

func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// ParseFlow parses one flow file's source bytes into an ast.Flow. Every
// Expr in the result carries the originating Interval. Duplicate step
// names are rejected as a parse error.
func ParseFlow(src []byte) (*ast.Flow, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, &ErrorInfo{Message: err.Error()}
	}
	p := &parser{tokens: tokens}
	flow := &ast.Flow{Steps: make(map[string]*ast.Block), Source: append([]byte{}, src...)}

	for p.current().Kind != lexer.EOF {
		if p.current().Kind == lexer.KwFlow {
			if err := p.skipFlowDecl(); err != nil {
				return nil, err
			}
			continue
		}
		if p.current().Kind != lexer.Ident {
			return nil, p.errf("expected step name")
		}
		name := p.current().Text
		if _, exists := flow.Steps[name]; exists {
			return nil, p.errf("duplicate step %q", name)
		}
		p.advance()
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		block, err := p.parseStepBody(name)
		if err != nil {
			return nil, err
		}
		flow.Steps[name] = block
		flow.Order = append(flow.Order, name)
	}
	return flow, nil
}

// Hash returns the hex-md5 of the flow's source text, the guard spec.md
// §3/§4.7 attach to a Hold envelope.
func Hash(src []byte) string {
	sum := md5.Sum(src)
	return hex.EncodeToString(sum[:])
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.pos+1]
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *parser) expect(k lexer.Kind) (lexer.Token, error) {
	tok := p.current()
	if tok.Kind != k {
		return tok, p.errf("unexpected token %q", tok.Text)
	}
	return p.advance(), nil
}

func (p *parser) errf(format string, args ...interface{}) *ErrorInfo {
	tok := p.current()
	return &ErrorInfo{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) iv(t lexer.Token) value.Interval {
	return value.Interval{Line: t.Line, Column: t.Column}
}

// skipFlowDecl consumes `flow ( ident, ident, ... )`, a static import-style
// directive with no runtime effect on a single parsed Flow (spec.md §4.5's
// `import` note applies equally here).
func (p *parser) skipFlowDecl() error {
	p.advance() // 'flow'
	if _, err := p.expect(lexer.LParen); err != nil {
		return err
	}
	for p.current().Kind != lexer.RParen {
		if p.current().Kind == lexer.EOF {
			return p.errf("unterminated flow() declaration")
		}
		p.advance()
	}
	p.advance() // ')'
	return nil
}

// isStepBoundary reports whether the parser is positioned at the start of
// a new top-level step definition (`ident ':'`), the only way the
// whitespace-insensitive grammar delimits one step's statement list from
// the next.
func (p *parser) isStepBoundary() bool {
	return p.current().Kind == lexer.Ident && p.peek().Kind == lexer.Colon
}

func (p *parser) parseStepBody(name string) (*ast.Block, error) {
	startTok := p.current()
	block := &ast.Block{Type: ast.BlockStep}
	block.Interval = p.iv(startTok)
	for p.current().Kind != lexer.EOF && p.current().Kind != lexer.KwFlow && !p.isStepBoundary() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	return block, nil
}
