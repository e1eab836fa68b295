package identifier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/clinicalnotes/reportrepair/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		label string
		want  int64
	}{
		{"report_VAC_00123.txt", 123},
		{"report_VAC_00123.json", 123},
		{"VAC42.txt", 42},
		{"nbse vac 7 final.txt", 7},
		{"NBSE_Vac-0815.json", 815},
		{"results/VAC.19_redacted.txt", 19},
		{"VAC_0000.txt", 0},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Extract(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_NotFound(t *testing.T) {
	for _, label := range []string{
		"report_00123.txt",
		"VACATION.txt",
		"",
		"VAC_99999999999999999999999.txt",
	} {
		t.Run(label, func(t *testing.T) {
			_, err := Extract(label)
			require.Error(t, err)
			assert.True(t, IsNotFound(err))
			assert.True(t, types.IsErrorCode(err, types.ErrIdentifierNotFound))

			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, label, e.Label)
		})
	}
}

func TestExtract_LeftmostWins(t *testing.T) {
	e := MustNew(DefaultMarker)

	id, err := e.Extract("VAC_12_copy_of_VAC_34.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.Equal(t, []int64{12, 34}, e.Candidates("VAC_12_copy_of_VAC_34.txt"))
	assert.Empty(t, e.Candidates("no marker"))
}

func TestNew_CustomMarker(t *testing.T) {
	e, err := New("MRN")
	require.NoError(t, err)
	assert.Equal(t, "MRN", e.Marker())

	id, err := e.Extract("visit_mrn_555.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)

	_, err = e.Extract("report_VAC_1.txt")
	assert.True(t, IsNotFound(err))

	// Regex metacharacters in the marker are literal.
	dot := MustNew("ID.")
	_, err = dot.Extract("IDX7")
	assert.True(t, IsNotFound(err))
	id, err = dot.Extract("ID.7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = New("")
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfig))
	assert.Panics(t, func() { MustNew("") })
}

// Feature: report-repair, Property 4: identifier round trip
// Any label built from the marker and a number yields that number.
func TestProperty_Extract_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.Int64Range(0, 1_000_000).Draw(rt, "id")
		pad := rapid.IntRange(0, 6).Draw(rt, "pad")
		sep := rapid.SampledFrom([]string{"", "_", " ", ".", "-", "__"}).Draw(rt, "sep")
		marker := rapid.SampledFrom([]string{"VAC", "vac", "Vac"}).Draw(rt, "marker")
		prefix := rapid.StringMatching(`[a-z_]{0,10}`).Draw(rt, "prefix")

		label := fmt.Sprintf("%s%s%s%0*d.txt", prefix, marker, sep, pad, id)
		got, err := Extract(label)
		require.NoError(rt, err)
		assert.Equal(rt, id, got)
	})
}
