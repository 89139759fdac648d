package parser

import (
	"github.com/csml-dev/csml-go/pkg/ast"
	"github.com/csml-dev/csml-go/pkg/lexer"
	"github.com/csml-dev/csml-go/pkg/value"
)

func sp(iv value.Interval) ast.Span { return ast.Span{Interval: iv} }

// parseStmt parses one statement per spec.md §4.1's Stmt production.
func (p *parser) parseStmt() (ast.Expr, error) {
	tok := p.current()
	switch tok.Kind {
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwGoto:
		return p.parseGoto()
	case lexer.KwHold:
		p.advance()
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnHold}, nil
	case lexer.KwBreak:
		p.advance()
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnBreak}, nil
	case lexer.KwSay:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnSay, Expr: e}, nil
	case lexer.KwDo:
		p.advance()
		return p.parseDo(tok)
	case lexer.KwUse:
		p.advance()
		return p.parseUseOrRemember(tok, ast.FnUse)
	case lexer.KwRemember:
		p.advance()
		return p.parseUseOrRemember(tok, ast.FnRemember)
	case lexer.KwImport:
		p.advance()
		return p.parseImport(tok)
	case lexer.KwAsk:
		return p.parseAskResponse()
	}
	return nil, p.errf("unexpected token %q at statement position", tok.Text)
}

// parseDo parses `do name = expr` or `do expr`.
func (p *parser) parseDo(tok lexer.Token) (ast.Expr, error) {
	// Lookahead for `ident = expr`. An assignment path may itself be a
	// builder (obj.a[1] = v), so we parse a full expression first and then
	// check for a following '='.
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == lexer.Assign {
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnDo, Target: "", Expr: rhs, Call: &ast.CallArgs{Positional: []ast.Expr{lhs}}}, nil
	}
	return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnDo, Expr: lhs}, nil
}

// parseUseOrRemember parses `use expr as name` or `use name = expr` (and the
// `remember` equivalents).
func (p *parser) parseUseOrRemember(tok lexer.Token, kind ast.FuncExprKind) (ast.Expr, error) {
	if p.current().Kind == lexer.Ident && p.peek().Kind == lexer.Assign {
		name := p.advance().Text
		p.advance() // '='
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: kind, Target: name, Expr: rhs}, nil
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwAs); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: kind, Target: nameTok.Text, Expr: rhs}, nil
}

func (p *parser) parseImport(tok lexer.Token) (ast.Expr, error) {
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	fe := &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnImport, ImportName: nameTok.Text}
	if p.current().Kind == lexer.KwFrom {
		p.advance()
		fromTok, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		fe.ImportFrom = fromTok.Text
	}
	if p.current().Kind == lexer.KwAs {
		p.advance()
		asTok, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		fe.ImportAs = asTok.Text
	}
	return fe, nil
}

// parseGoto parses `goto step X`, `goto flow Y`, `goto X flow Y`, `goto end`
// and the bare `goto X` (step) forms.
func (p *parser) parseGoto() (ast.Expr, error) {
	tok := p.advance() // 'goto'
	switch p.current().Kind {
	case lexer.KwEnd:
		p.advance()
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnGotoEnd}, nil
	case lexer.KwStep:
		p.advance()
		nameTok, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnGotoStep, GotoStep: nameTok.Text}, nil
	case lexer.KwFlow:
		p.advance()
		flowTok, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnGotoFlow, GotoFlow: flowTok.Text}, nil
	case lexer.Ident:
		nameTok := p.advance()
		if p.current().Kind == lexer.KwFlow {
			p.advance()
			flowTok, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnGotoStepInFlow, GotoStep: nameTok.Text, GotoFlow: flowTok.Text}, nil
		}
		return &ast.FunctionExpr{Span: sp(p.iv(tok)), Kind: ast.FnGotoStep, GotoStep: nameTok.Text}, nil
	}
	return nil, p.errf("expected step name, 'step', 'flow', or 'end' after goto")
}

// parseIf parses `if (cond) { ... } else if (cond) { ... } else { ... }`.
func (p *parser) parseIf() (ast.Expr, error) {
	tok := p.advance() // 'if'
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseBracedBlock(ast.BlockIf)
	if err != nil {
		return nil, err
	}
	ifExpr := &ast.IfExpr{Span: sp(p.iv(tok)), Cond: cond, Then: then}
	if p.current().Kind == lexer.KwElse {
		p.advance()
		if p.current().Kind == lexer.KwIf {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			ifExpr.Else = elseIf
		} else {
			elseBlock, err := p.parseBracedBlock(ast.BlockElse)
			if err != nil {
				return nil, err
			}
			ifExpr.Else = elseBlock
		}
	}
	return ifExpr, nil
}

// parseBracedBlock parses `{ Stmt* }`.
func (p *parser) parseBracedBlock(typ ast.BlockType) (*ast.Block, error) {
	openTok, err := p.expect(lexer.LBrace)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Span: sp(p.iv(openTok)), Type: typ}
	for p.current().Kind != lexer.RBrace {
		if p.current().Kind == lexer.EOF {
			return nil, p.errf("unterminated block, missing '}'")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.advance() // '}'
	return block, nil
}

// parseAskResponse parses `ask [name] { ... } response { ... }`, also
// accepting the short form `ask [name] Stmt+ response { ... }` where the
// ask body is a bare statement run rather than a braced block.
func (p *parser) parseAskResponse() (ast.Expr, error) {
	tok := p.advance() // 'ask'
	name := ""
	if p.current().Kind == lexer.Ident {
		name = p.advance().Text
	}
	var askBlock *ast.Block
	if p.current().Kind == lexer.LBrace {
		blk, err := p.parseBracedBlock(ast.BlockAsk)
		if err != nil {
			return nil, err
		}
		askBlock = blk
	} else {
		askBlock = &ast.Block{Span: sp(p.iv(p.current())), Type: ast.BlockAsk}
		for p.current().Kind != lexer.KwResponse {
			if p.current().Kind == lexer.EOF {
				return nil, p.errf("expected 'response' after ask")
			}
			stmt, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			askBlock.Statements = append(askBlock.Statements, stmt)
		}
	}
	if _, err := p.expect(lexer.KwResponse); err != nil {
		return nil, err
	}
	respBlock, err := p.parseBracedBlock(ast.BlockResponse)
	if err != nil {
		return nil, err
	}
	return &ast.AskExpr{Span: sp(p.iv(tok)), Name: name, Ask: askBlock, Response: respBlock}, nil
}
