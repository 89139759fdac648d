// Package lexer tokenizes CSML flow source text (spec.md §4.1).
package lexer

// Kind identifies a token's lexical category.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Float
	Str // string literal; Token.Str holds the escape-resolved text

	// keywords
	KwFlow
	KwIf
	KwElse
	KwGoto
	KwStep
	KwEnd
	KwHold
	KwBreak
	KwSay
	KwDo
	KwUse
	KwRemember
	KwImport
	KwFrom
	KwAs
	KwAsk
	KwResponse
	KwTrue
	KwFalse
	KwNull

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Colon
	Comma
	Dot

	// operators
	Assign // =
	Plus
	Minus
	Star
	Slash
	Percent
	Bang    // !
	AndAnd  // &&
	OrOr    // ||
	Eq      // ==
	Neq     // !=
	Lt
	Lte
	Gt
	Gte
)

var keywords = map[string]Kind{
	"flow":     KwFlow,
	"if":       KwIf,
	"else":     KwElse,
	"goto":     KwGoto,
	"step":     KwStep,
	"end":      KwEnd,
	"hold":     KwHold,
	"break":    KwBreak,
	"say":      KwSay,
	"do":       KwDo,
	"use":      KwUse,
	"remember": KwRemember,
	"import":   KwImport,
	"from":     KwFrom,
	"as":       KwAs,
	"ask":      KwAsk,
	"response": KwResponse,
	"true":     KwTrue,
	"false":    KwFalse,
	"null":     KwNull,
}

// Token is one lexical unit.
type Token struct {
	Kind   Kind
	Text   string // raw source text
	Str    string // escape-resolved value, for Str tokens
	IntVal int64
	FltVal float64
	Line   int
	Column int
}
