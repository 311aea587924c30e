package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tplir/internal/ir"
	tu "github.com/roach88/tplir/internal/testutil"
)

func TestLowerLiterals(t *testing.T) {
	tests := []struct {
		name string
		lit  tu.M
		want string
	}{
		{"true", tu.BoolLit(true), `Const(value=true)`},
		{"false", tu.BoolLit(false), `Const(value=false)`},
		{"none", tu.NoneLit(), `Const(value=nil)`},
		{"string", tu.StrLit("hello"), `Const(value="hello")`},
		{"string fragments", tu.StrLit("a", "", "b"), `Const(value="ab")`},
		{"empty string", tu.StrLit(), `Const(value="")`},
		{"integer", tu.IntLit("42"), `Const(value=42)`},
		{"integer leading zeros", tu.IntLit("007"), `Const(value=7)`},
		{"float", tu.NumberLit("3", "14", ""), `Const(value=3.14)`},
		{"float zero fraction", tu.NumberLit("1", "0", ""), `Const(value=1.0)`},
		{"exponent only", tu.NumberLit("1", "", "3"), `Const(value=1000.0)`},
		{"fraction and negative exponent", tu.NumberLit("2", "5", "-1"), `Const(value=0.25)`},
		{"list", tu.ListLit(tu.IntLit("1"), tu.StrLit("x")), `List(items=[Const(value=1), Const(value="x")])`},
		{"empty list", tu.ListLit(), `List(items=[])`},
		{"tuple", tu.TupleLit(tu.IntLit("1"), tu.NoneLit()), `Tuple(items=[Const(value=1), Const(value=nil)], ctx="load")`},
		{
			"nested list",
			tu.ListLit(tu.ListLit(tu.BoolLit(true))),
			`List(items=[List(items=[Const(value=true)])])`,
		},
		{
			"dictionary",
			tu.DictLit(
				tu.Entry(tu.StrLit("k"), tu.Ident("v")),
				tu.Entry(tu.IntLit("2"), tu.Filtered(tu.Ident("w"), tu.Filter("upper"))),
			),
			`Dict(items=[Pair(key=Const(value="k"), value=Name(name="v", ctx="load")), Pair(key=Const(value=2), value=Filter(node=Name(name="w", ctx="load"), name="upper", args=[], kwargs=[], dyn_args=nil, dyn_kwargs=nil))])`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ir.Dump(printed(t, tu.Lit(tt.lit))))
		})
	}
}

func TestLowerNumberTypes(t *testing.T) {
	c := printed(t, tu.Int("12")).(*ir.Const)
	assert.IsType(t, int64(0), c.Value)

	c = printed(t, tu.Lit(tu.NumberLit("12", "5", ""))).(*ir.Const)
	assert.IsType(t, float64(0), c.Value)
	assert.InDelta(t, 12.5, c.Value, 0)
}

func TestLowerLiteralLines(t *testing.T) {
	lit := tu.At(2, tu.DictLit(tu.At(3, tu.Entry(tu.At(3, tu.StrLit("k")), tu.At(4, tu.Ident("v"))))))
	dict := printed(t, tu.Lit(lit)).(*ir.Dict)

	assert.Equal(t, 3, dict.Line())
	require.Len(t, dict.Items, 1)
	assert.Equal(t, 4, dict.Items[0].Line())
	assert.Equal(t, 4, dict.Items[0].Key.Line())
	assert.Equal(t, 5, dict.Items[0].Value.Line())
}

func TestLowerLiteralErrors(t *testing.T) {
	tests := []struct {
		name     string
		lit      tu.M
		sentinel error
		contains string
	}{
		{
			name:     "no kind tag",
			lit:      tu.At(2, tu.M{"value": 1}),
			sentinel: ErrMissingLiteralKind,
			contains: "no literal_type",
		},
		{
			name:     "unknown kind tag",
			lit:      tu.At(2, tu.M{"literal_type": "complex", "value": "1j"}),
			sentinel: ErrMissingLiteralKind,
			contains: `"complex"`,
		},
		{
			name:     "unknown kind nested in a list",
			lit:      tu.At(2, tu.ListLit(tu.At(2, tu.M{"literal_type": "set"}))),
			sentinel: ErrMissingLiteralKind,
			contains: `"set"`,
		},
		{
			name:     "integer text",
			lit:      tu.At(2, tu.IntLit("12abc")),
			sentinel: ErrMalformedNumber,
			contains: "12abc",
		},
		{
			name:     "integer overflow",
			lit:      tu.At(2, tu.IntLit("99999999999999999999")),
			sentinel: ErrMalformedNumber,
			contains: "integer",
		},
		{
			name:     "float text",
			lit:      tu.At(2, tu.NumberLit("1", "x", "")),
			sentinel: ErrMalformedNumber,
			contains: "1.x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lowerErr(t, []any{tu.Print(tu.Lit(tt.lit))})
			assert.ErrorIs(t, err, tt.sentinel)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, 3, ce.Line)
			assert.Equal(t, "literal", ce.Field)
			assert.Contains(t, ce.Message, tt.contains)
		})
	}
}

func TestNumberText(t *testing.T) {
	assert.Equal(t, "1", NumberText("1", "", false, "", false))
	assert.Equal(t, "1.5", NumberText("1", "5", true, "", false))
	assert.Equal(t, "1e-2", NumberText("1", "", false, "-2", true))
	assert.Equal(t, "1.5e10", NumberText("1", "5", true, "10", true))
}
