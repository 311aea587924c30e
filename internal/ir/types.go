package ir

// Node is any IR node. The set is closed: only types in this package
// implement it.
type Node interface {
	// Kind returns the node kind name, e.g. "Output" or "Getattr".
	Kind() string
	// Line returns the 1-based source line, or 0 when unknown.
	Line() int

	irNode()
}

// Pos carries the source line of a node (1-based, 0 when unknown).
type Pos struct {
	Lineno int `json:"lineno"`
}

// Line returns the 1-based source line.
func (p Pos) Line() int { return p.Lineno }

func (Pos) irNode() {}

// Ctx is the access context of a Name, Tuple or accessor node.
type Ctx string

// Access contexts.
const (
	Load  Ctx = "load"
	Store Ctx = "store"
	Param Ctx = "param"
)

// Template is the root of a lowered template. Its line is always 1.
type Template struct {
	Pos
	Body []Node
}

// Output writes its nodes to the template output in order.
type Output struct {
	Pos
	Nodes []Node
}

// TemplateData is literal template text.
type TemplateData struct {
	Pos
	Data string
}

// Name is a variable reference.
type Name struct {
	Pos
	Name string
	Ctx  Ctx
}

// Const is a literal scalar: nil, bool, string, int64 or float64.
type Const struct {
	Pos
	Value any
}

// Getattr is `node.attr`.
type Getattr struct {
	Pos
	Node Node
	Attr string
	Ctx  Ctx
}

// Getitem is `node[arg]`.
type Getitem struct {
	Pos
	Node Node
	Arg  Node
	Ctx  Ctx
}

// Call is `node(args..., key=value...)`.
type Call struct {
	Pos
	Node      Node
	Args      []Node
	Kwargs    []*Keyword
	DynArgs   Node
	DynKwargs Node
}

// Keyword is a `key=value` argument or option.
type Keyword struct {
	Pos
	Key   string
	Value Node
}

// Filter applies the named filter to Node. Node is nil only for the
// detached filter chain of an AssignBlock.
type Filter struct {
	Pos
	Node      Node
	Name      string
	Args      []Node
	Kwargs    []*Keyword
	DynArgs   Node
	DynKwargs Node
}

// Test applies the named test to Node.
type Test struct {
	Pos
	Node      Node
	Name      string
	Args      []Node
	Kwargs    []*Keyword
	DynArgs   Node
	DynKwargs Node
}

// Compare compares Expr against each operand in order.
type Compare struct {
	Pos
	Expr Node
	Ops  []*Operand
}

// Operand is one (operator, right operand) pair of a Compare.
type Operand struct {
	Pos
	Op   string
	Expr Node
}

// And is logical conjunction.
type And struct {
	Pos
	Left  Node
	Right Node
}

// Or is logical disjunction.
type Or struct {
	Pos
	Left  Node
	Right Node
}

// Not is logical negation.
type Not struct {
	Pos
	Node Node
}

// CondExpr is `expr1 if test else expr2`. Expr2 may be nil.
type CondExpr struct {
	Pos
	Test  Node
	Expr1 Node
	Expr2 Node
}

// Concat joins the string values of its nodes.
type Concat struct {
	Pos
	Nodes []Node
}

// List is a list literal.
type List struct {
	Pos
	Items []Node
}

// Tuple is a tuple literal or a tuple assignment target.
type Tuple struct {
	Pos
	Items []Node
	Ctx   Ctx
}

// Dict is a dictionary literal.
type Dict struct {
	Pos
	Items []*Pair
}

// Pair is one key/value entry of a Dict.
type Pair struct {
	Pos
	Key   Node
	Value Node
}

// For is a loop over Iter binding Target.
type For struct {
	Pos
	Target    Node
	Iter      Node
	Body      []Node
	Else      []Node
	Test      Node
	Recursive bool
}

// If is a conditional block.
type If struct {
	Pos
	Test Node
	Body []Node
	Elif []*If
	Else []Node
}

// Block is a named, overridable template block.
type Block struct {
	Pos
	Name   string
	Body   []Node
	Scoped bool
}

// Extends declares the parent template.
type Extends struct {
	Pos
	Template Node
}

// ImportName is one imported name of a FromImport, with optional alias.
type ImportName struct {
	Name  string
	Alias string
}

// FromImport imports names from another template.
type FromImport struct {
	Pos
	Template    Node
	Names       []ImportName
	WithContext bool
}

// Assign is `set target = node`.
type Assign struct {
	Pos
	Target Node
	Node   Node
}

// AssignBlock assigns the rendered body to Target, optionally passed
// through Filter first.
type AssignBlock struct {
	Pos
	Target Node
	Filter *Filter
	Body   []Node
}

// With opens a scope binding Targets to Values.
type With struct {
	Pos
	Targets []Node
	Values  []Node
	Body    []Node
}

// Macro defines a callable macro. Defaults align with the trailing Args.
type Macro struct {
	Pos
	Name     string
	Args     []*Name
	Defaults []Node
	Body     []Node
}

// Scope opens a new variable scope.
type Scope struct {
	Pos
	Body []Node
}

// ScopedEvalContextModifier changes eval context options for its body.
type ScopedEvalContextModifier struct {
	Pos
	Options []*Keyword
	Body    []Node
}

func (*Template) Kind() string                  { return "Template" }
func (*Output) Kind() string                    { return "Output" }
func (*TemplateData) Kind() string              { return "TemplateData" }
func (*Name) Kind() string                      { return "Name" }
func (*Const) Kind() string                     { return "Const" }
func (*Getattr) Kind() string                   { return "Getattr" }
func (*Getitem) Kind() string                   { return "Getitem" }
func (*Call) Kind() string                      { return "Call" }
func (*Keyword) Kind() string                   { return "Keyword" }
func (*Filter) Kind() string                    { return "Filter" }
func (*Test) Kind() string                      { return "Test" }
func (*Compare) Kind() string                   { return "Compare" }
func (*Operand) Kind() string                   { return "Operand" }
func (*And) Kind() string                       { return "And" }
func (*Or) Kind() string                        { return "Or" }
func (*Not) Kind() string                       { return "Not" }
func (*CondExpr) Kind() string                  { return "CondExpr" }
func (*Concat) Kind() string                    { return "Concat" }
func (*List) Kind() string                      { return "List" }
func (*Tuple) Kind() string                     { return "Tuple" }
func (*Dict) Kind() string                      { return "Dict" }
func (*Pair) Kind() string                      { return "Pair" }
func (*For) Kind() string                       { return "For" }
func (*If) Kind() string                        { return "If" }
func (*Block) Kind() string                     { return "Block" }
func (*Extends) Kind() string                   { return "Extends" }
func (*FromImport) Kind() string                { return "FromImport" }
func (*Assign) Kind() string                    { return "Assign" }
func (*AssignBlock) Kind() string               { return "AssignBlock" }
func (*With) Kind() string                      { return "With" }
func (*Macro) Kind() string                     { return "Macro" }
func (*Scope) Kind() string                     { return "Scope" }
func (*ScopedEvalContextModifier) Kind() string { return "ScopedEvalContextModifier" }
