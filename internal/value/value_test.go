package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Number("1.5")
	var _ Value = String("test")
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysUTF16Order(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"Aa": Int(5),
		"AA": Int(6),
	}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aa"}, obj.SortedKeys())
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"null", `null`, Null{}},
		{"true", `true`, Bool(true)},
		{"int", `42`, Number("42")},
		{"float keeps literal", `1.50`, Number("1.50")},
		{"exponent", `1e3`, Number("1e3")},
		{"string", `"hi"`, String("hi")},
		{"array", `[1,"a",null]`, Array{Number("1"), String("a"), Null{}}},
		{"object", `{"b":false,"a":[]}`, Object{"a": Array{}, "b": Bool(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, input := range []string{``, `{`, `[1,`, `"unterminated`, `1 2`, `["a","k"]]`, `["a","k"]}`, `{"a":1}}`} {
		_, err := Parse([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseAllowsTrailingWhitespace(t *testing.T) {
	v, err := Parse([]byte("[1]\n \t"))
	require.NoError(t, err)
	assert.True(t, Equal(Array{Number("1")}, v))
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"n":    1,
		"f":    2.5,
		"s":    "x",
		"list": []any{true, nil},
	})
	require.NoError(t, err)

	want := Object{
		"n":    Number("1"),
		"f":    Number("2.5"),
		"s":    String("x"),
		"list": Array{Bool(true), Null{}},
	}
	assert.True(t, Equal(want, v))

	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}

func TestFromGoJSONNumber(t *testing.T) {
	v, err := FromGo(json.Number("12345678901234567890"))
	require.NoError(t, err)
	assert.Equal(t, Number("12345678901234567890"), v)
}

func TestNumberConversions(t *testing.T) {
	n, err := Number("42").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	f, err := Number("2.5").Float64()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 0)

	_, err = Number("2.5").Int64()
	assert.Error(t, err)
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("")))
	assert.False(t, IsNull(Bool(false)))
}
