package parser

import (
	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/lexer"
	"github.com/csml-dev/csml-go/pkg/value"
)

// parseExpr is the precedence-climbing entry point (spec.md §4.1):
// ||, &&, ==/!=/</<=/>/>=, +/-, */ /%, unary !/-, then path/call chains.
func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == lexer.OrOr {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpr{Span: sp(p.iv(tok)), Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == lexer.AndAnd {
		tok := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpr{Span: sp(p.iv(tok)), Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var cmpOps = map[lexer.Kind]ast.InfixOp{
	lexer.Eq: ast.OpEq, lexer.Neq: ast.OpNeq,
	lexer.Lt: ast.OpLt, lexer.Lte: ast.OpLte,
	lexer.Gt: ast.OpGt, lexer.Gte: ast.OpGte,
}

func (p *parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.current().Kind]; ok {
		tok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpr{Span: sp(p.iv(tok)), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == lexer.Plus || p.current().Kind == lexer.Minus {
		tok := p.advance()
		op := ast.OpAdd
		if tok.Kind == lexer.Minus {
			op = ast.OpSub
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpr{Span: sp(p.iv(tok)), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == lexer.Star || p.current().Kind == lexer.Slash || p.current().Kind == lexer.Percent {
		tok := p.advance()
		var op ast.InfixOp
		switch tok.Kind {
		case lexer.Star:
			op = ast.OpMul
		case lexer.Slash:
			op = ast.OpDiv
		case lexer.Percent:
			op = ast.OpRem
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.InfixExpr{Span: sp(p.iv(tok)), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.current().Kind == lexer.Bang {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: sp(p.iv(tok)), Op: ast.UnaryNot, Operand: operand}, nil
	}
	if p.current().Kind == lexer.Minus {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: sp(p.iv(tok)), Op: ast.UnaryNeg, Operand: operand}, nil
	}
	return p.parsePathChain()
}

// parsePathChain parses a primary expression followed by zero or more path
// segments (.field, [index], (args)), producing a BuilderExpr when at least
// one segment is present (spec.md §3's PathState).
func (p *parser) parsePathChain() (ast.Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var segs []ast.PathSeg
	for {
		switch p.current().Kind {
		case lexer.Dot:
			tok := p.advance()
			nameTok, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			if p.current().Kind == lexer.LParen {
				call, err := p.parseCallArgs(nameTok.Text)
				if err != nil {
					return nil, err
				}
				segs = append(segs, ast.PathSeg{Kind: ast.SegCall, Func: call, Pos: p.iv(tok)})
			} else {
				segs = append(segs, ast.PathSeg{Kind: ast.SegKey, Key: nameTok.Text, Pos: p.iv(tok)})
			}
		case lexer.LBracket:
			tok := p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBracket); err != nil {
				return nil, err
			}
			segs = append(segs, ast.PathSeg{Kind: ast.SegIndex, Index: idx, Pos: p.iv(tok)})
		default:
			if len(segs) == 0 {
				return base, nil
			}
			return &ast.BuilderExpr{Span: ast.Span{Interval: base.Pos()}, Base: base, Path: segs}, nil
		}
	}
}

// parseCallArgs parses `(arg, arg, name = arg, name: arg, ...)` — CSML
// methods only accept positional args (spec.md §4.2); free function calls
// accept both.
func (p *parser) parseCallArgs(name string) (*ast.CallArgs, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	call := &ast.CallArgs{Name: name, Named: map[string]ast.Expr{}}
	for p.current().Kind != lexer.RParen {
		if p.current().Kind == lexer.Ident && (p.peek().Kind == lexer.Assign || p.peek().Kind == lexer.Colon) {
			key := p.advance().Text
			p.advance() // '=' or ':'
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Named[key] = val
		} else {
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Positional = append(call.Positional, val)
		}
		if p.current().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()
	switch tok.Kind {
	case lexer.Int:
		p.advance()
		return &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.Int(tok.IntVal), p.iv(tok))}, nil
	case lexer.Float:
		p.advance()
		return &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.Float(tok.FltVal), p.iv(tok))}, nil
	case lexer.KwTrue:
		p.advance()
		return &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.Bool(true), p.iv(tok))}, nil
	case lexer.KwFalse:
		p.advance()
		return &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.Bool(false), p.iv(tok))}, nil
	case lexer.KwNull:
		p.advance()
		return &ast.LitExpr{Span: sp(p.iv(tok)), Literal: value.Plain(value.Null(), p.iv(tok))}, nil
	case lexer.Str:
		p.advance()
		return p.parseStringLiteral(tok)
	case lexer.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.LBracket:
		return p.parseVecExpr(tok)
	case lexer.LBrace:
		return p.parseObjectExpr(tok)
	case lexer.Ident:
		name := p.advance().Text
		if p.current().Kind == lexer.LParen {
			call, err := p.parseCallArgs(name)
			if err != nil {
				return nil, err
			}
			return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnNormal, Call: call}, nil
		}
		return &ast.IdentExpr{Span: sp(p.iv(tok)), Name: name}, nil
	}
	return nil, p.errf("unexpected token %q in expression", tok.Text)
}

func (p *parser) parseVecExpr(openTok lexer.Token) (ast.Expr, error) {
	p.advance() // '['
	vec := &ast.VecExpr{Span: sp(p.iv(openTok))}
	for p.current().Kind != lexer.RBracket {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		vec.Items = append(vec.Items, item)
		if p.current().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return nil, err
	}
	return vec, nil
}

func (p *parser) parseObjectExpr(openTok lexer.Token) (ast.Expr, error) {
	p.advance() // '{'
	obj := &ast.ObjectExpr{Span: sp(p.iv(openTok))}
	for p.current().Kind != lexer.RBrace {
		var key string
		switch p.current().Kind {
		case lexer.Ident:
			key = p.advance().Text
		case lexer.Str:
			key = p.advance().Str
		default:
			return nil, p.errf("expected object key")
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Entries = append(obj.Entries, ast.ObjectEntry{Key: key, Value: val})
		if p.current().Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return obj, nil
}
