package recovery

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/clinicalnotes/reportrepair/types"
)

// Feature: report-repair, Property 5: recovery is total
// For any input text Recover returns either a value or a RECOVERY_FAILURE, never panics.
func TestProperty_Recover_Total(t *testing.T) {
	alphabet := []rune(`{}[]:,"\ abc123-.` + "\n\t`")

	rapid.Check(t, func(rt *rapid.T) {
		runes := rapid.SliceOfN(rapid.SampledFrom(alphabet), 0, 64).Draw(rt, "text")
		text := string(runes)

		res, err := Recover("fuzz", text)
		if err != nil {
			assert.Nil(rt, res)
			assert.True(rt, types.IsErrorCode(err, types.ErrRecoveryFailure))
			return
		}
		require.NotNil(rt, res)
	})
}

// Feature: report-repair, Property 6: fenced valid JSON round-trips without repair
func TestProperty_Recover_FencedRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z_]{1,12}`), 1, 8, rapid.ID[string]).Draw(rt, "keys")
		record := make(map[string]any, len(keys))
		for _, k := range keys {
			switch rapid.IntRange(0, 3).Draw(rt, "kind_"+k) {
			case 0:
				record[k] = rapid.IntRange(-100, 3000).Draw(rt, "int_"+k)
			case 1:
				record[k] = rapid.StringMatching(`[A-Za-z ,.]{0,20}`).Draw(rt, "str_"+k)
			case 2:
				record[k] = rapid.Bool().Draw(rt, "bool_"+k)
			default:
				record[k] = nil
			}
		}

		raw, err := json.MarshalIndent(record, "", "  ")
		require.NoError(rt, err)
		text := "```json\n" + string(raw) + "\n```"

		res, err := Recover("prop", text)
		require.NoError(rt, err)
		assert.False(rt, res.Repaired)
		assert.Equal(rt, 2, res.Stripped)

		obj, ok := res.Object()
		require.True(rt, ok)
		assert.Len(rt, obj, len(record))
	})
}

// Feature: report-repair, Property 7: a single trailing comma is always repaired
func TestProperty_Recover_TrailingComma(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "n")
		items := make([]string, n)
		for i := range items {
			items[i] = `"m` + strings.Repeat("x", i) + `"`
		}
		text := `{"medications": [` + strings.Join(items, ", ") + `,]}`

		res, err := Recover("prop", text)
		require.NoError(rt, err)
		assert.True(rt, res.Repaired)

		obj, _ := res.Object()
		assert.Len(rt, obj["medications"], n)
	})
}
