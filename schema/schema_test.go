package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsIndex(t *testing.T) {
	s, err := New("Report",
		Integer("score").WithRange(0, 30),
		String("sex").WithEnum("male", "female"),
		Object("fluency", Integer("total").WithMinimum(0)),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"score", "sex", "fluency"}, s.Names())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 4, s.Count())
	assert.Equal(t, 2, s.Depth())

	f, ok := s.Field("fluency")
	require.True(t, ok)
	assert.Equal(t, KindObject, f.Kind)

	nested, ok := f.Schema.Field("total")
	require.True(t, ok)
	assert.Equal(t, 0.0, *nested.Minimum)

	_, ok = s.Field("missing")
	assert.False(t, ok)
}

func TestNew_RejectsInconsistentDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		fields  []*Field
		wantMsg string
	}{
		{
			name:    "duplicate name",
			fields:  []*Field{Integer("a"), String("a")},
			wantMsg: "duplicate field name",
		},
		{
			name:    "missing name",
			fields:  []*Field{Integer("")},
			wantMsg: "field name is required",
		},
		{
			name:    "unknown kind",
			fields:  []*Field{{Name: "a", Kind: "decimal"}},
			wantMsg: "unknown kind",
		},
		{
			name:    "bounds on string",
			fields:  []*Field{String("a").WithMinimum(1)},
			wantMsg: "bounds are not allowed",
		},
		{
			name:    "inverted bounds",
			fields:  []*Field{Integer("a").WithRange(10, 1)},
			wantMsg: "exceeds maximum",
		},
		{
			name:    "enum on integer",
			fields:  []*Field{{Name: "a", Kind: KindInteger, Enum: []string{"1"}}},
			wantMsg: "enumerations are only allowed",
		},
		{
			name:    "array without items",
			fields:  []*Field{{Name: "a", Kind: KindArray}},
			wantMsg: "requires an element specification",
		},
		{
			name:    "object without schema",
			fields:  []*Field{{Name: "a", Kind: KindObject}},
			wantMsg: "requires a nested schema",
		},
		{
			name:    "duplicate nested name",
			fields:  []*Field{Object("a", Integer("x"), Integer("x"))},
			wantMsg: "a.x: duplicate field name",
		},
		{
			name:    "nil field",
			fields:  []*Field{nil},
			wantMsg: "nil field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", tt.fields...)
			require.Error(t, err)

			var descErr *DescriptorError
			require.ErrorAs(t, err, &descErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNew("bad", Integer("a"), Integer("a"))
	})
}

func TestBuiltin(t *testing.T) {
	minimal, err := Builtin(BuiltinNBSE)
	require.NoError(t, err)
	assert.Equal(t, 1, minimal.Depth())

	vac, ok := minimal.Field("vac")
	require.True(t, ok)
	assert.Equal(t, 3000.0, *vac.Maximum)

	diagnosis, ok := minimal.Field("diagnosis")
	require.True(t, ok)
	assert.Len(t, diagnosis.Enum, 7)

	detailed, err := Builtin(BuiltinNBSEDetailed)
	require.NoError(t, err)
	assert.Equal(t, 3, detailed.Depth(), "fluencytest.letter_fluency is two levels deep")

	_, err = Builtin("unknown")
	assert.Error(t, err)
}
