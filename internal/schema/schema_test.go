package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBuiltins(t *testing.T) {
	def, err := Resolve("default")
	require.NoError(t, err)
	assert.Equal(t, "default", def.Name)
	require.Len(t, def.Fields(), 2)
	assert.Equal(t, "prompt", def.Fields()[0].Name)
	assert.Equal(t, "completion", def.Fields()[1].Name)

	def, err = Resolve("with-reasoning")
	require.NoError(t, err)
	require.Len(t, def.Fields(), 3)
	assert.Equal(t, "reasoning", def.Fields()[2].Name)
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("nonsense")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown schema "nonsense"`)
	assert.Contains(t, err.Error(), "default")
	assert.Contains(t, err.Error(), "with-reasoning")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	_, err := Register("default", "again", DefaultSample{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterRejectsNonStruct(t *testing.T) {
	_, err := Register("bad", "not a struct", 42)
	require.Error(t, err)
}

func TestJSONSchema(t *testing.T) {
	def, err := Resolve("default")
	require.NoError(t, err)

	rendered, err := def.JSONSchema()
	require.NoError(t, err)
	assert.Contains(t, rendered, `"properties"`)
	assert.Contains(t, rendered, `"prompt"`)
	assert.Contains(t, rendered, `"completion"`)
	assert.NotContains(t, rendered, `"$ref"`)
}

func TestDecode(t *testing.T) {
	def, err := Resolve("default")
	require.NoError(t, err)

	got, err := def.Decode(`{"prompt": "p", "completion": "c", "extra": 1}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"prompt": "p", "completion": "c"}, got)
}

func TestDecodeStripsFence(t *testing.T) {
	def, err := Resolve("default")
	require.NoError(t, err)

	got, err := def.Decode("```json\n{\"prompt\": \"p\", \"completion\": \"c\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "p", got["prompt"])
}

func TestDecodeFailures(t *testing.T) {
	def, err := Resolve("default")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", "once upon a time", "not valid JSON"},
		{"missing field", `{"prompt": "p"}`, `missing required field "completion"`},
		{"null field", `{"prompt": "p", "completion": null}`, `missing required field "completion"`},
		{"wrong type", `{"prompt": 7, "completion": "c"}`, "expected a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := def.Decode(tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence(`{"a": 1}`))
	assert.Equal(t, "plain", StripCodeFence("  plain  "))
}

func TestCoerce(t *testing.T) {
	got, err := coerce(3.0, reflect.Int)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = coerce(true, reflect.Bool)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	_, err = coerce("nope", reflect.Float64)
	require.Error(t, err)
}
