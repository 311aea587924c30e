package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDump(t *testing.T) {
	name := func(s string) *Name { return &Name{Name: s, Ctx: Load} }

	tests := []struct {
		name     string
		node     Node
		expected string
	}{
		{"nil", nil, "nil"},
		{
			"output",
			&Output{Nodes: []Node{&TemplateData{Data: "Hi "}, name("x")}},
			`Output(nodes=[TemplateData(data="Hi "), Name(name="x", ctx="load")])`,
		},
		{
			"filter",
			&Filter{Node: name("x"), Name: "upper", Args: []Node{}, Kwargs: []*Keyword{{Key: "k", Value: &Const{Value: int64(1)}}}},
			`Filter(node=Name(name="x", ctx="load"), name="upper", args=[], kwargs=[Keyword(key="k", value=Const(value=1))], dyn_args=nil, dyn_kwargs=nil)`,
		},
		{
			"compare",
			&Compare{Expr: name("a"), Ops: []*Operand{{Op: "lt", Expr: name("b")}}},
			`Compare(expr=Name(name="a", ctx="load"), ops=[Operand(op="lt", expr=Name(name="b", ctx="load"))])`,
		},
		{
			"for",
			&For{Target: &Name{Name: "x", Ctx: Store}, Iter: name("xs"), Body: []Node{}, Else: []Node{}},
			`For(target=Name(name="x", ctx="store"), iter=Name(name="xs", ctx="load"), body=[], else_=[], test=nil, recursive=false)`,
		},
		{
			"from import",
			&FromImport{Template: &Const{Value: "f.html"}, Names: []ImportName{{Name: "a"}, {Name: "b", Alias: "c"}}},
			`FromImport(template=Const(value="f.html"), names=["a", ("b", "c")], with_context=false)`,
		},
		{
			"assign block without filter",
			&AssignBlock{Target: &Name{Name: "x", Ctx: Store}, Body: []Node{}},
			`AssignBlock(target=Name(name="x", ctx="store"), filter=nil, body=[])`,
		},
		{
			"dict",
			&Dict{Items: []*Pair{{Key: &Const{Value: "k"}, Value: &Const{Value: true}}}},
			`Dict(items=[Pair(key=Const(value="k"), value=Const(value=true))])`,
		},
		{
			"macro",
			&Macro{Name: "m", Args: []*Name{{Name: "a", Ctx: Param}}, Defaults: []Node{}, Body: []Node{}},
			`Macro(name="m", args=[Name(name="a", ctx="param")], defaults=[], body=[])`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Dump(tt.node))
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, "nil"},
		{true, "true"},
		{"a\"b", `"a\"b"`},
		{int64(-3), "-3"},
		{42, "42"},
		{1.0, "1.0"},
		{1000.0, "1000.0"},
		{0.5, "0.5"},
		{1e100, "1e+100"},
		{math.Inf(1), "+Inf"},
		{math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.value))
		})
	}
}
