package ir

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalTemplate(t *testing.T) {
	tmpl := &Template{Pos: Pos{Lineno: 1}, Body: []Node{
		&Output{Pos: Pos{Lineno: 1}, Nodes: []Node{
			&TemplateData{Data: "Hello "},
			&Name{Pos: Pos{Lineno: 1}, Name: "name", Ctx: Load},
		}},
	}}

	result, err := MarshalCanonical(tmpl)
	require.NoError(t, err)
	assert.Equal(t,
		`{"body":[{"kind":"Output","lineno":1,"nodes":[`+
			`{"data":"Hello ","kind":"TemplateData","lineno":0},`+
			`{"ctx":"load","kind":"Name","lineno":1,"name":"name"}]}],`+
			`"kind":"Template","lineno":1}`,
		string(result))
}

func TestMarshalCanonicalConst(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, "null"},
		{"true", true, "true"},
		{"string", "x", `"x"`},
		{"int64", int64(-42), "-42"},
		{"int", 7, "7"},
		{"whole float", 1.0, "1.0"},
		{"fraction", 0.25, "0.25"},
		{"large float", 1e21, "1e+21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(&Const{Value: tt.value})
			require.NoError(t, err)
			assert.Equal(t, `{"kind":"Const","lineno":0,"value":`+tt.expected+`}`, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(&Output{Nodes: []Node{&Const{Value: f}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-finite float")
	}
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(&TemplateData{Data: "<a href=\"x\">&</a>"})
	require.NoError(t, err)
	assert.Equal(t, `{"data":"<a href=\"x\">&</a>","kind":"TemplateData","lineno":0}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed, err := MarshalCanonical(&TemplateData{Data: "cafe\u0301"})
	require.NoError(t, err)
	composed, err := MarshalCanonical(&TemplateData{Data: "caf\u00e9"})
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(&TemplateData{Data: "a\u2028b\u2029c"})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(result, []byte("a\u2028b\u2029c")), "separators stay literal: %s", result)

	result, err = MarshalCanonical(&TemplateData{Data: `\u2028`})
	require.NoError(t, err)
	assert.Equal(t, `{"data":"\\u2028","kind":"TemplateData","lineno":0}`, string(result))
}

func TestMarshalCanonicalFromImportNames(t *testing.T) {
	n := &FromImport{
		Pos:      Pos{Lineno: 2},
		Template: &Const{Pos: Pos{Lineno: 2}, Value: "forms.html"},
		Names:    []ImportName{{Name: "input"}, {Name: "field", Alias: "f"}},
	}

	result, err := MarshalCanonical(n)
	require.NoError(t, err)
	assert.Equal(t,
		`{"kind":"FromImport","lineno":2,"names":["input",["field","f"]],`+
			`"template":{"kind":"Const","lineno":2,"value":"forms.html"},"with_context":false}`,
		string(result))
}

func TestMarshalCanonicalAssignBlockWithoutFilter(t *testing.T) {
	n := &AssignBlock{
		Target: &Name{Name: "x", Ctx: Store},
		Body:   []Node{},
	}

	result, err := MarshalCanonical(n)
	require.NoError(t, err)
	assert.Equal(t,
		`{"body":[],"filter":null,"kind":"AssignBlock","lineno":0,"target":{"ctx":"store","kind":"Name","lineno":0,"name":"x"}}`,
		string(result))
}

func TestMarshalCanonicalOptionalFields(t *testing.T) {
	n := &CondExpr{
		Test:  &Name{Name: "a", Ctx: Load},
		Expr1: &Const{Value: int64(1)},
	}

	result, err := MarshalCanonical(n)
	require.NoError(t, err)
	assert.Contains(t, string(result), `"expr2":null`)
}

func TestCompareKeysRFC8785(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, below U+E000.
	assert.Negative(t, compareKeysRFC8785("\U00010000", "\ue000"))
	assert.Negative(t, compareKeysRFC8785("a", "ab"))
	assert.Zero(t, compareKeysRFC8785("kind", "kind"))
	assert.Positive(t, compareKeysRFC8785("lineno", "kind"))
}

func TestMarshalCanonicalUnsupportedValue(t *testing.T) {
	_, err := MarshalCanonical(&Const{Value: []int{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}
