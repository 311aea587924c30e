package cst

// Pos holds the zero-based source line recorded by the parser, or -1
// when the node carried no parseinfo.
type Pos struct {
	Line int
}

// Lineno returns the 1-based line for IR nodes; 0 when unknown.
func (p Pos) Lineno() int {
	if p.Line < 0 {
		return 0
	}
	return p.Line + 1
}

// Node is a template-level CST construct.
type Node interface {
	cstNode()
}

// Sequence is an ordered list of template-level constructs.
type Sequence []Node

// Text is a plain text run.
type Text string

// Print is a `{{ expr }}` construct.
type Print struct {
	Pos
	Expr Expr
}

// Tag is a single tag without a body, e.g. `{% extends "base" %}`.
// Params are only decoded for extends, from and set.
type Tag struct {
	Pos
	Name   string
	Params []Param
}

// PairedTag is a tag with a body between start and end markers. Params
// and Body stay empty for keywords the lowering drops.
type PairedTag struct {
	Pos
	Name   string
	Params []Param
	End    string
	Body   Sequence
}

// Raw is a `{% raw %}` block; its fragments are emitted verbatim.
type Raw struct {
	Pos
	Fragments []string
}

// Comment is a `{# ... #}` construct.
type Comment struct {
	Pos
}

// Unrecognized is a map node matching no known construct shape.
type Unrecognized struct {
	Pos
	Keys []string
}

func (Sequence) cstNode()      {}
func (Text) cstNode()          {}
func (*Print) cstNode()        {}
func (*Tag) cstNode()          {}
func (*PairedTag) cstNode()    {}
func (*Raw) cstNode()          {}
func (*Comment) cstNode()      {}
func (*Unrecognized) cstNode() {}

// Param is a tag, call or filter parameter. Key is set for `key=value`
// parameters; Target is set instead when the key is itself
// expression-shaped (an inline `set` tuple target).
type Param struct {
	Pos
	Key    string
	Target Expr
	Value  Expr
}

// Keyed reports whether the parameter carries any binding key.
func (p Param) Keyed() bool {
	return p.Key != "" || p.Target != nil
}

// Expr is an expression-shaped CST node.
type Expr interface {
	Lineno() int
	exprNode()
}

// Variable is an identifier or literal followed by accessors and filters.
// Exactly one of Name and Literal is set.
type Variable struct {
	Pos
	Name      string
	Literal   *Literal
	Alias     string
	Accessors []Accessor
	Filters   []FilterCall
}

// TupleTarget is a bare tuple of identifiers, used as an assignment target.
type TupleTarget struct {
	Pos
	Names []string
}

// BinaryOp is a comparison `left op right`.
type BinaryOp struct {
	Pos
	Op    string
	Left  Expr
	Right Expr
}

// Concatenate is `a ~ b ~ ...`.
type Concatenate struct {
	Pos
	Operands []Expr
}

// Conditional is `true if test else false`. False may be nil.
type Conditional struct {
	Pos
	Test  Expr
	True  Expr
	False Expr
}

// Logical is `left and right` or `left or right`.
type Logical struct {
	Pos
	Op    string
	Left  Expr
	Right Expr
}

// TestCall is `subject is [not] test [arg]`. Arg may be nil.
type TestCall struct {
	Pos
	Subject Expr
	Test    Expr
	Arg     Expr
	Negated bool
}

// UnknownExpr is a map in expression position matching no known shape.
type UnknownExpr struct {
	Pos
	Keys []string
}

func (*Variable) exprNode()    {}
func (*TupleTarget) exprNode() {}
func (*BinaryOp) exprNode()    {}
func (*Concatenate) exprNode() {}
func (*Conditional) exprNode() {}
func (*Logical) exprNode()     {}
func (*TestCall) exprNode()    {}
func (*UnknownExpr) exprNode() {}

// AccessorKind is the kind of an accessor chain link.
type AccessorKind string

// Accessor kinds.
const (
	AccessorDot      AccessorKind = "dot"
	AccessorBrackets AccessorKind = "brackets"
	AccessorCall     AccessorKind = "call"
)

// Accessor is one `.attr`, `[expr]` or `(params)` link.
type Accessor struct {
	Pos
	Kind      AccessorKind
	Attr      string
	Subscript Expr
	Params    []Param
}

// FilterCall is one `| name(args)` link.
type FilterCall struct {
	Pos
	Name string
	Args []Param
}

// LiteralKind is the literal_type tag of a literal.
type LiteralKind string

// Literal kinds. LiteralUnknown marks a literal-shaped node whose kind
// tag is absent or not one of the known kinds.
const (
	LiteralUnknown    LiteralKind = ""
	LiteralBoolean    LiteralKind = "boolean"
	LiteralString     LiteralKind = "string"
	LiteralNumber     LiteralKind = "number"
	LiteralNone       LiteralKind = "none"
	LiteralList       LiteralKind = "list"
	LiteralTuple      LiteralKind = "tuple"
	LiteralDictionary LiteralKind = "dictionary"
)

// Literal is a literal value. Which fields are set depends on Kind.
type Literal struct {
	Pos
	Kind LiteralKind
	// TypeName is the raw literal_type text, kept for diagnostics when
	// Kind is LiteralUnknown.
	TypeName string

	// Raw is the boolean value as the parser produced it.
	Raw any
	// Fragments are the string pieces of a string literal.
	Fragments []string

	Whole         string
	Fractional    string
	Exponent      string
	HasFractional bool
	HasExponent   bool

	// Items are list or tuple elements.
	Items []*Literal
	// Entries are dictionary entries.
	Entries []DictEntry
}

// DictEntry is one `key: value` entry of a dictionary literal.
type DictEntry struct {
	Pos
	Key   *Literal
	Value Expr
}
