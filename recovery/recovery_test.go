package recovery

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicalnotes/reportrepair/types"
)

func TestStripFenceLines(t *testing.T) {
	text := "```json\n{\n  \"a\": 1\n}\n```"
	got, removed := StripFenceLines(text, DefaultFenceMarker)
	assert.Equal(t, "{\n  \"a\": 1\n}", got)
	assert.Equal(t, 2, removed)

	got, removed = StripFenceLines("no fences here", DefaultFenceMarker)
	assert.Equal(t, "no fences here", got)
	assert.Zero(t, removed)

	// Lines are dropped whole, even when the marker is mid-line.
	got, removed = StripFenceLines("a\nsee ``` below\nb", DefaultFenceMarker)
	assert.Equal(t, "a\nb", got)
	assert.Equal(t, 1, removed)
}

func TestRecover_Strict(t *testing.T) {
	res, err := Recover("report_VAC_1.json", `{"score": 12, "sex": "male", "ok": true, "none": null}`)
	require.NoError(t, err)

	assert.False(t, res.Repaired)
	assert.Empty(t, res.Fixes)

	obj, ok := res.Object()
	require.True(t, ok)
	assert.Equal(t, json.Number("12"), obj["score"])
	assert.Equal(t, "male", obj["sex"])
	assert.Equal(t, true, obj["ok"])
	assert.Nil(t, obj["none"])
	assert.Contains(t, obj, "none")
}

func TestRecover_FencedTrailingComma(t *testing.T) {
	text := "```json\n{\"medications\": [\"aspirin 81mg\", \"donepezil 10mg\",]}\n```\n"

	res, err := Recover("report_VAC_00123.txt", text)
	require.NoError(t, err)

	assert.True(t, res.Repaired)
	assert.Equal(t, 2, res.Stripped)
	assert.Equal(t, []FixKind{FixTrailingComma}, res.FixKinds())

	obj, ok := res.Object()
	require.True(t, ok)
	assert.Equal(t, []any{"aspirin 81mg", "donepezil 10mg"}, obj["medications"])
}

func TestRecover_TolerantRepairs(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		fixes []FixKind
	}{
		{
			name:  "trailing comma in object",
			text:  `{"a": 1, "b": 2,}`,
			want:  `{"a": 1, "b": 2}`,
			fixes: []FixKind{FixTrailingComma},
		},
		{
			name:  "unquoted keys",
			text:  `{score: 12, sex_code: "m"}`,
			want:  `{"score": 12, "sex_code": "m"}`,
			fixes: []FixKind{FixUnquotedKey},
		},
		{
			name:  "missing closers",
			text:  `{"a": {"b": [1, 2`,
			want:  `{"a": {"b": [1, 2]}}`,
			fixes: []FixKind{FixUnbalancedBracket},
		},
		{
			name:  "unterminated string",
			text:  `{"notes": "patient was coope`,
			want:  `{"notes": "patient was coope"}`,
			fixes: []FixKind{FixUnterminatedString, FixUnbalancedBracket},
		},
		{
			name:  "dangling colon",
			text:  `{"a": 1, "b":`,
			want:  `{"a": 1, "b": null}`,
			fixes: []FixKind{FixUnbalancedBracket, FixTruncatedValue},
		},
		{
			name:  "dangling key",
			text:  `{"a": 1, "b"`,
			want:  `{"a": 1, "b": null}`,
			fixes: []FixKind{FixUnbalancedBracket, FixTruncatedValue},
		},
		{
			name:  "mismatched closer closes inner container",
			text:  `{"a": [1, 2}`,
			want:  `{"a": [1, 2]}`,
			fixes: []FixKind{FixUnbalancedBracket},
		},
		{
			name:  "stray closer dropped",
			text:  `{"a": 1]}`,
			want:  `{"a": 1}`,
			fixes: []FixKind{FixUnbalancedBracket},
		},
		{
			name:  "raw newline in string",
			text:  "{\"history\": \"line one\nline two\"}",
			want:  `{"history": "line one\nline two"}`,
			fixes: []FixKind{FixControlChar},
		},
		{
			name:  "prose around value",
			text:  "Here is the extracted JSON:\n{\"a\": 1}\nLet me know if you need anything else.",
			want:  `{"a": 1}`,
			fixes: []FixKind{FixLeadingText, FixTrailingText},
		},
		{
			name:  "think block",
			text:  "<think>\nThe MoCA total is {30}.\n</think>\n{\"moca_total_score\": 30}",
			want:  `{"moca_total_score": 30}`,
			fixes: []FixKind{FixThinkBlock},
		},
		{
			name:  "orphan think close",
			text:  "reasoning cut short }]\n</think>\n{\"a\": 1}",
			want:  `{"a": 1}`,
			fixes: []FixKind{FixThinkBlock},
		},
		{
			name:  "bracket in leading prose",
			text:  "Here is the result [JSON] for the report:\n{\"age\": 70, \"sex\": \"male\",}",
			want:  `{"age": 70, "sex": "male"}`,
			fixes: []FixKind{FixLeadingText, FixTrailingComma},
		},
		{
			name:  "bracket in prose before fenced block",
			text:  "Values in [brackets] are estimates.\n```json\n{\"age\": 70}\n```",
			want:  `{"age": 70}`,
			fixes: []FixKind{FixLeadingText},
		},
		{
			name:  "citation array before object",
			text:  "Scores follow the manual [1].\n{\"moca_total_score\": 26,}",
			want:  `{"moca_total_score": 26}`,
			fixes: []FixKind{FixLeadingText, FixTrailingComma},
		},
		{
			name:  "cut inside literal",
			text:  `{"a": 1, "b": tr`,
			want:  `{"a": 1, "b": null}`,
			fixes: []FixKind{FixTruncatedValue, FixUnbalancedBracket},
		},
		{
			name:  "cut inside null",
			text:  `{"a": nu`,
			want:  `{"a": null}`,
			fixes: []FixKind{FixTruncatedValue, FixUnbalancedBracket},
		},
		{
			name:  "cut inside number",
			text:  `{"a": 1, "b": 2.`,
			want:  `{"a": 1, "b": null}`,
			fixes: []FixKind{FixTruncatedValue, FixUnbalancedBracket},
		},
		{
			name:  "cut inside exponent",
			text:  `{"a": 1e-`,
			want:  `{"a": null}`,
			fixes: []FixKind{FixTruncatedValue, FixUnbalancedBracket},
		},
		{
			name:  "cut array element dropped",
			text:  `{"flags": [true, fa`,
			want:  `{"flags": [true]}`,
			fixes: []FixKind{FixTruncatedValue, FixUnbalancedBracket, FixTrailingComma},
		},
		{
			name:  "complete number at end kept",
			text:  `{"a": 1, "b": 25`,
			want:  `{"a": 1, "b": 25}`,
			fixes: []FixKind{FixUnbalancedBracket},
		},
		{
			name:  "nested object never replaces its container",
			text:  `[{"a": 1},]`,
			want:  `[{"a": 1}]`,
			fixes: []FixKind{FixTrailingComma},
		},
		{
			name:  "top-level array",
			text:  `[1, 2, 3,]`,
			want:  `[1, 2, 3]`,
			fixes: []FixKind{FixTrailingComma},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Recover("label", tt.text)
			require.NoError(t, err)
			assert.True(t, res.Repaired)

			var want any
			dec := json.NewDecoder(strings.NewReader(tt.want))
			dec.UseNumber()
			require.NoError(t, dec.Decode(&want))

			assert.Equal(t, want, res.Value)
			assert.ElementsMatch(t, tt.fixes, res.FixKinds())
		})
	}
}

func TestRecover_Failure(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"prose only", "I could not find any assessment in this report."},
		{"broken literal", `{"a": tru}`},
		{"brackets in prose only", "See [appendix] and [notes]; no data was extracted."},
		{"missing comma", `{"a": 1 "b": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Recover("report_VAC_7.json", tt.text)
			require.Error(t, err)
			assert.Nil(t, res)

			assert.True(t, types.IsErrorCode(err, types.ErrRecoveryFailure))
			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, "report_VAC_7.json", e.Label)
			assert.NotNil(t, e.Cause)
		})
	}
}

func TestRecoverer_StrictOnly(t *testing.T) {
	r := New(WithTolerance(false))

	_, err := r.Recover("x", `{"a": 1,}`)
	assert.True(t, types.IsErrorCode(err, types.ErrRecoveryFailure))

	res, err := r.Recover("x", `{"a": 1}`)
	require.NoError(t, err)
	assert.False(t, res.Repaired)
}

func TestRecoverer_CustomFence(t *testing.T) {
	r := New(WithFenceMarker("~~~"))

	res, err := r.Recover("x", "~~~\n{\"a\": 1}\n~~~")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stripped)
	assert.False(t, res.Repaired)
}

func TestResult_ObjectRejectsScalars(t *testing.T) {
	res, err := Recover("x", `42`)
	require.NoError(t, err)
	_, ok := res.Object()
	assert.False(t, ok)
}
