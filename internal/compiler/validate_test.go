package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tplir/internal/ir"
	tu "github.com/roach88/tplir/internal/testutil"
)

func TestValidateLoweredTemplate(t *testing.T) {
	tmpl := lower(t, []any{
		tu.Tag("extends", tu.Param(tu.Str("base.html"))),
		tu.Paired("block", tu.Params(tu.Param(tu.Ident("content"))),
			"Hi ",
			tu.Print(tu.Filtered(tu.Access(tu.Ident("user"), tu.Dot("name")), tu.Filter("title"))),
			tu.Paired("for", tu.Params(tu.Param(tu.Compare("in", tu.Ident("x"), tu.Ident("xs")))),
				tu.Print(tu.Ident("x")),
			),
			tu.Paired("set", tu.Params(tu.Param(tu.Filtered(tu.Ident("y"), tu.Filter("trim"), tu.Filter("upper")))), "v"),
			tu.Paired("macro", tu.Params(tu.Param(tu.Access(tu.Ident("m"), tu.Call(tu.Param(tu.Ident("a")), tu.KeyParam("b", tu.Int("1")))))), "m"),
			tu.Paired("with", tu.Params(tu.KeyParam("z", tu.Int("1"))), "w"),
			tu.Paired("autoescape", tu.Params(tu.Param(tu.Lit(tu.BoolLit(true)))), "a"),
		),
	})

	assert.Empty(t, Validate(tmpl), "lowered IR should satisfy every invariant")
}

func TestValidateNilTemplate(t *testing.T) {
	errs := Validate(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNilNode, errs[0].Code)
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateBrokenInvariants(t *testing.T) {
	name := func(s string) *ir.Name { return &ir.Name{Pos: ir.Pos{Lineno: 1}, Name: s, Ctx: ir.Load} }
	text := func(s string) *ir.TemplateData { return &ir.TemplateData{Data: s} }

	tests := []struct {
		name string
		body []ir.Node
		want []string
	}{
		{
			name: "adjacent outputs",
			body: []ir.Node{&ir.Output{Nodes: []ir.Node{text("a")}}, &ir.Output{Nodes: []ir.Node{text("b")}}},
			want: []string{ErrAdjacentOutputs},
		},
		{
			name: "adjacent outputs in a nested body",
			body: []ir.Node{&ir.If{Test: name("x"), Body: []ir.Node{
				&ir.Output{Nodes: []ir.Node{text("a")}}, &ir.Output{Nodes: []ir.Node{text("b")}},
			}}},
			want: []string{ErrAdjacentOutputs},
		},
		{
			name: "adjacent text",
			body: []ir.Node{&ir.Output{Nodes: []ir.Node{text("a"), text("b")}}},
			want: []string{ErrAdjacentTemplateData},
		},
		{
			name: "empty output",
			body: []ir.Node{&ir.Output{}},
			want: []string{ErrEmptyOutput},
		},
		{
			name: "nil entry",
			body: []ir.Node{nil},
			want: []string{ErrNilNode},
		},
		{
			name: "typed nil entry",
			body: []ir.Node{(*ir.Output)(nil)},
			want: []string{ErrNilNode},
		},
		{
			name: "unwrapped filter",
			body: []ir.Node{&ir.Output{Nodes: []ir.Node{&ir.Filter{Name: "upper"}}}},
			want: []string{ErrUnwrappedNode},
		},
		{
			name: "unwrapped getattr",
			body: []ir.Node{&ir.Output{Nodes: []ir.Node{&ir.Getattr{Attr: "a", Ctx: ir.Load}}}},
			want: []string{ErrUnwrappedNode},
		},
		{
			name: "attached block-set filter",
			body: []ir.Node{&ir.AssignBlock{
				Target: &ir.Name{Name: "x", Ctx: ir.Store},
				Filter: &ir.Filter{Node: name("x"), Name: "upper"},
			}},
			want: []string{ErrUnwrappedNode},
		},
		{
			name: "macro defaults exceed parameters",
			body: []ir.Node{&ir.Macro{Name: "m", Defaults: []ir.Node{&ir.Const{Value: int64(1)}}}},
			want: []string{ErrMacroArity},
		},
		{
			name: "macro parameter in load context",
			body: []ir.Node{&ir.Macro{Name: "m", Args: []*ir.Name{name("a")}}},
			want: []string{ErrInvalidContext},
		},
		{
			name: "with arity",
			body: []ir.Node{&ir.With{Targets: []ir.Node{&ir.Name{Name: "a", Ctx: ir.Param}}}},
			want: []string{ErrWithArity},
		},
		{
			name: "unknown context",
			body: []ir.Node{&ir.Output{Nodes: []ir.Node{&ir.Name{Name: "a", Ctx: "global"}}}},
			want: []string{ErrInvalidContext},
		},
		{
			name: "loop without iterable",
			body: []ir.Node{&ir.For{Target: &ir.Name{Name: "x", Ctx: ir.Store}}},
			want: []string{ErrMissingChild},
		},
		{
			name: "comparison without operands",
			body: []ir.Node{&ir.Output{Nodes: []ir.Node{&ir.Compare{Expr: name("a")}}}},
			want: []string{ErrMissingChild},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&ir.Template{Pos: ir.Pos{Lineno: 1}, Body: tt.body})
			assert.Equal(t, tt.want, codes(errs))
		})
	}
}

func TestValidateRootLine(t *testing.T) {
	errs := Validate(&ir.Template{Pos: ir.Pos{Lineno: 3}})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrRootLine, errs[0].Code)
	assert.Equal(t, "[E208] line 3: template: root must be on line 1, got 3", errs[0].Error())
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "Output.nodes", Message: "Output has no content", Code: ErrEmptyOutput}
	assert.Equal(t, "[E207] Output.nodes: Output has no content", e.Error())
}
