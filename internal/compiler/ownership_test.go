package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tplir/internal/ir"
	tu "github.com/roach88/tplir/internal/testutil"
)

// TestCheckOwnership_Empty tests that an empty template has no violations.
func TestCheckOwnership_Empty(t *testing.T) {
	assert.Empty(t, CheckOwnership(&ir.Template{Pos: ir.Pos{Lineno: 1}}))
	assert.Empty(t, CheckOwnership(nil))
}

// TestCheckOwnership_Lowered tests that lowering never shares nodes.
func TestCheckOwnership_Lowered(t *testing.T) {
	tmpl := lower(t, []any{
		"a",
		tu.Print(tu.Ident("x")),
		tu.Paired("macro", tu.Params(tu.Param(tu.Access(tu.Ident("m"), tu.Call(tu.Param(tu.Ident("p")), tu.KeyParam("q", tu.Int("1")))))),
			tu.Print(tu.Ident("p")),
		),
		tu.Paired("set", tu.Params(tu.Param(tu.Filtered(tu.Ident("y"), tu.Filter("upper")))), "b"),
	})
	assert.Empty(t, CheckOwnership(tmpl))
}

// TestCheckOwnership_SharedChild tests that one node under two parents is reported once.
func TestCheckOwnership_SharedChild(t *testing.T) {
	shared := &ir.Name{Pos: ir.Pos{Lineno: 4}, Name: "x", Ctx: ir.Load}
	tmpl := &ir.Template{Pos: ir.Pos{Lineno: 1}, Body: []ir.Node{
		&ir.Output{Nodes: []ir.Node{shared}},
		&ir.If{Test: &ir.Not{Node: shared}},
	}}

	violations := CheckOwnership(tmpl)
	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, "Name", v.Kind)
	assert.Equal(t, 4, v.Line)
	assert.Equal(t, []string{"Output", "Not"}, v.Parents)
	assert.False(t, v.Cycle)
	assert.Contains(t, v.Message, "shared by 2 parents")
}

// TestCheckOwnership_SharedSubtree tests that descendants of a shared node are not double-reported.
func TestCheckOwnership_SharedSubtree(t *testing.T) {
	shared := &ir.Getattr{Node: &ir.Name{Name: "a", Ctx: ir.Load}, Attr: "b", Ctx: ir.Load}
	tmpl := &ir.Template{Pos: ir.Pos{Lineno: 1}, Body: []ir.Node{
		&ir.Output{Nodes: []ir.Node{shared, &ir.TemplateData{Data: "-"}, shared}},
	}}

	violations := CheckOwnership(tmpl)
	require.Len(t, violations, 1)
	assert.Equal(t, "Getattr", violations[0].Kind)
	assert.Equal(t, []string{"Output", "Output"}, violations[0].Parents)
}

// TestCheckOwnership_Cycle tests that a cyclic tree terminates and is flagged.
func TestCheckOwnership_Cycle(t *testing.T) {
	out := &ir.Output{}
	scope := &ir.Scope{Body: []ir.Node{out}}
	out.Nodes = []ir.Node{&ir.Concat{Nodes: []ir.Node{scope}}}
	tmpl := &ir.Template{Pos: ir.Pos{Lineno: 1}, Body: []ir.Node{scope}}

	violations := CheckOwnership(tmpl)
	require.Len(t, violations, 1)
	assert.Equal(t, "Scope", violations[0].Kind)
	assert.True(t, violations[0].Cycle)
	assert.Equal(t, []string{"Template", "Concat"}, violations[0].Parents)
}

func TestOwnershipViolationAsValidationError(t *testing.T) {
	v := OwnershipViolation{Kind: "Name", Line: 4, Message: "Name shared by 2 parents: Output, Not"}
	e := v.AsValidationError()
	assert.Equal(t, ErrSharedNode, e.Code)
	assert.Equal(t, "[E210] line 4: Name: Name shared by 2 parents: Output, Not", e.Error())
}
