// Package ast defines the CSML abstract syntax tree: the typed expression
// and statement nodes the parser produces from flow source text, each
// carrying the source Interval spec.md §3 requires for diagnostics and as
// the coordinate space of the Hold cursor.
package ast

import "github.com/csml-dev/csml-go/pkg/value"

// Expr is the common interface implemented by every AST node (spec.md
// §3's "Expr (AST node; tagged variant)"). The concrete type is recovered
// by the evaluator via a type switch, following the same Node-interface
// shape the teacher repo uses for its expression AST
// (pkg/expr/ast.go's `Node` interface), generalized to cover statements too
// since CSML has no syntactic distinction between "statement" and
// "expression in statement position" at the AST level.
type Expr interface {
	Pos() value.Interval
}

// Span embeds the source Interval every node carries, and is always the
// first (exported, promoted) field of a concrete node struct so callers
// outside this package can construct literals directly:
// ast.LitExpr{Span: ast.Span{Interval: iv}, ...}.
type Span struct{ Interval value.Interval }

func (s Span) Pos() value.Interval { return s.Interval }

// LitExpr wraps a literal value parsed directly from source (numbers,
// strings, true/false/null).
type LitExpr struct {
	Span
	Literal value.Literal
}

// IdentExpr is a bare identifier reference, resolved per spec.md §4.3's
// identifier resolution order.
type IdentExpr struct {
	Span
	Name string
}

// VecExpr is an array literal: `[e1, e2, ...]`.
type VecExpr struct {
	Span
	Items []Expr
}

// ObjectEntry is one key/value pair of an ObjectExpr.
type ObjectEntry struct {
	Key   string
	Value Expr
}

// ObjectExpr is an object literal: `{k1: v1, k2: v2}`.
type ObjectExpr struct {
	Span
	Entries []ObjectEntry
}

// ComplexLiteral is an interpolated string: a sequence of literal-string
// and `{{ expr }}` fragments concatenated at evaluation time.
type ComplexLiteral struct {
	Span
	Parts []Expr
}

// InfixOp enumerates binary operators.
type InfixOp int

const (
	OpOr InfixOp = iota
	OpAnd
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
)

// InfixExpr is a binary operator application.
type InfixExpr struct {
	Span
	Op    InfixOp
	Left  Expr
	Right Expr
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryNeg
)

// UnaryExpr is a unary operator application (`!x`, `-x`).
type UnaryExpr struct {
	Span
	Op      UnaryOp
	Operand Expr
}

// IfExpr is `if (cond) then [else else_]`, usable both as a statement and,
// in builder positions, as an expression (spec.md §4.4).
type IfExpr struct {
	Span
	Cond Expr
	Then *Block
	Else Expr // *Block, *IfExpr (else-if chain), or nil
}

// PathSegKind enumerates the three path segment forms spec.md §3 names.
type PathSegKind int

const (
	SegIndex PathSegKind = iota // numeric/expr index: a[i]
	SegKey                      // .field or ["key"]
	SegCall                     // method call: .method(args)
)

// PathSeg is one segment of a BuilderExpr path.
type PathSeg struct {
	Kind  PathSegKind
	Key   string // SegKey
	Index Expr   // SegIndex: the index expression (may resolve to int or string key)
	Func  *CallArgs
	Pos   value.Interval
}

// CallArgs holds positional and named arguments to a function/method call.
type CallArgs struct {
	Name       string
	Positional []Expr
	Named      map[string]Expr
}

// BuilderExpr is a base expression followed by a chain of path segments:
// `obj.a[1].f(x)` (spec.md §3's PathState).
type BuilderExpr struct {
	Span
	Base Expr
	Path []PathSeg
}

// FuncExprKind enumerates ReservedFunction variants (spec.md §3).
type FuncExprKind int

const (
	FnSay FuncExprKind = iota
	FnDo
	FnUse
	FnRemember
	FnGotoStep
	FnGotoFlow
	FnGotoStepInFlow
	FnGotoEnd
	FnHold
	FnBreak
	FnImport
	FnAs
	FnNormal // user/builtin function call by name
)

// FunctionExpr wraps a ReservedFunction statement form.
type FunctionExpr struct {
	Span
	Kind FuncExprKind

	// FnSay / FnDo / FnUse / FnRemember: Expr is the RHS expression;
	// Target is the bound name for Use/Remember/As. Do leaves Target empty:
	// its assignment target expression is Call.Positional[0], and a Do
	// without a Call only evaluates Expr and discards the value.
	Expr   Expr
	Target string

	// FnGotoStep / FnGotoFlow / FnGotoStepInFlow
	GotoStep string
	GotoFlow string

	// FnImport
	ImportName string
	ImportFrom string
	ImportAs   string

	// FnNormal
	Call *CallArgs
}

// AskExpr is the `ask [name] { ... } response { ... }` suspension construct
// (spec.md §4.5). Name is empty when the short `ask { ... }` form without a
// bound name is used, in which case the incoming event binds to `event`.
type AskExpr struct {
	Span
	Name     string
	Ask      *Block
	Response *Block
}

// BlockType enumerates the block contexts spec.md §3 names.
type BlockType int

const (
	BlockStep BlockType = iota
	BlockIf
	BlockElseIf
	BlockElse
	BlockAsk
	BlockResponse
)

// Block is an ordered statement list with a tag identifying what kind of
// block it is (used by the interpreter to decide ask/response framing).
type Block struct {
	Span
	Type       BlockType
	AskName    string // not set by the parser; AskExpr.Name holds an ask's bound name
	Statements []Expr
}

// InstructionKind enumerates Instruction.Type.
type InstructionKind int

const (
	InstrNormalStep InstructionKind = iota
	InstrStartFlow
)

// Instruction is one parsed top-level flow entry: either a named step or
// the `flow(...)` directive.
type Instruction struct {
	Kind    InstructionKind
	Name    string // step name, for InstrNormalStep
	Actions *Block
}

// Flow is a parsed flow file: step name → step body, plus the raw source
// it was parsed from (needed to compute the Hold hash guard, spec.md §4.7).
type Flow struct {
	Steps  map[string]*Block
	Order  []string // step names in declaration order, for deterministic iteration
	Source []byte
}
