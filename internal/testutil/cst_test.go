package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtOverridesDefaultLine(t *testing.T) {
	n := At(4, Ident("x"))
	assert.Equal(t, M{"line": 4}, n["parseinfo"])

	n = Ident("y")
	assert.Equal(t, M{"line": 0}, n["parseinfo"])
}

func TestNumberLitOmitsAbsentParts(t *testing.T) {
	n := NumberLit("1", "", "")
	_, hasFrac := n["fractional"]
	_, hasExp := n["exponent"]
	assert.False(t, hasFrac)
	assert.False(t, hasExp)

	n = NumberLit("1", "5", "3")
	assert.Equal(t, "5", n["fractional"])
	assert.Equal(t, "3", n["exponent"])
}

func TestChainBuildersAppend(t *testing.T) {
	v := Filtered(Access(Ident("user"), Dot("name"), Index(Int("0"))), Filter("upper"))

	require.Len(t, v["accessors"], 2)
	require.Len(t, v["filters"], 1)
	assert.Equal(t, "upper", v["filters"].([]any)[0].(M)["name"])
}

func TestPairedDefaultsToEmptyBody(t *testing.T) {
	n := Paired("if", Params(Param(Ident("x"))))
	assert.Equal(t, []any{}, n["contents"])
	assert.Equal(t, M{"name": "endif"}, n["end"])
}

func TestIsOmitsAbsentArgument(t *testing.T) {
	n := Is(Ident("x"), "defined", nil, true)
	assert.Nil(t, n["test_function_parameter"])
	assert.Equal(t, true, n["negated"])
}
