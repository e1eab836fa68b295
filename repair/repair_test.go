package repair

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/clinicalnotes/reportrepair/diagnostics"
	"github.com/clinicalnotes/reportrepair/schema"
)

var testClock = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&out))
	return out
}

func TestRepair_WorkedExamples(t *testing.T) {
	tests := []struct {
		name       string
		schema     *schema.Schema
		input      string
		want       map[string]any
		wantPath   string
		wantReason string
	}{
		{
			name:       "score out of bounds",
			schema:     schema.MustNew("t", schema.Integer("score").WithRange(0, 30)),
			input:      `{"score": 45}`,
			want:       map[string]any{"score": nil},
			wantPath:   "score",
			wantReason: "out of bounds",
		},
		{
			name:       "sex not in enumeration",
			schema:     schema.MustNew("t", schema.String("sex").WithEnum("male", "female")),
			input:      `{"sex": "M"}`,
			want:       map[string]any{"sex": nil},
			wantPath:   "sex",
			wantReason: "not in enumeration",
		},
		{
			name: "scalar where object expected",
			schema: schema.MustNew("t",
				schema.Object("fluency", schema.Integer("total").WithMinimum(0)),
			),
			input:      `{"fluency": "high"}`,
			want:       map[string]any{"fluency": nil},
			wantPath:   "fluency",
			wantReason: "type mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := diagnostics.NewMemorySink()
			r := New(tt.schema, WithClock(testClock))

			res := r.Repair("report_VAC_00123.json", decode(t, tt.input), sink)

			assert.Equal(t, tt.want, res.Record)
			require.Len(t, res.Entries, 1)
			assert.Equal(t, tt.wantPath, res.Entries[0].Path)
			assert.Equal(t, tt.wantReason, res.Entries[0].Reason)
			assert.Equal(t, "report_VAC_00123.json", res.Entries[0].Label)
			assert.Equal(t, testClock(), res.Entries[0].Time)
			assert.NotEmpty(t, res.Entries[0].Detail)
			assert.Equal(t, res.Entries, sink.Entries())
			assert.True(t, res.Repaired())
			assert.Empty(t, schema.Validate(res.Record, tt.schema))
		})
	}
}

func TestRepair_ConformantRecordUnchanged(t *testing.T) {
	s := schema.NBSEReport()
	input := decode(t, `{
		"vac": 123, "completed": "2024-05-01", "age": 74, "sex": "female",
		"encounter_type": "VVC", "moca_total_score": 24, "trailsa_time_in_seconds": 41.5,
		"medications": ["donepezil 10mg"], "adl_impaired": false,
		"diagnosis": "Mild Cognitive Impairment (MCI)"
	}`)

	sink := diagnostics.NewMemorySink()
	res := New(s).Repair("a", input, sink)

	assert.Equal(t, input, res.Record)
	assert.False(t, res.Repaired())
	assert.Zero(t, res.Iterations)
	assert.Equal(t, 1, res.Passes)
	assert.Zero(t, sink.Len())
}

func TestRepair_NestedLevels(t *testing.T) {
	s := schema.NBSEReportDetailed()
	input := decode(t, `{
		"sex": "F",
		"moca": {"naming": 3, "attention": 9, "total_score": 26, "notes": "ok"},
		"fluencytest": {
			"letter_fluency": {"total": 31, "F_score": "eleven", "A_score": 10},
			"category_fluency": "normal"
		},
		"cerad": {"encoding_trials": [5, 7, 12], "rapid_forgetting_words": {"butter": 2}},
		"gds": {"total_score": 3}
	}`)

	sink := diagnostics.NewMemorySink()
	res := New(s).Repair("report_VAC_7.json", input, sink)

	assert.Equal(t, []string{
		"sex",
		"moca.attention",
		"cerad.encoding_trials",
		"fluencytest.category_fluency",
		"fluencytest.letter_fluency.F_score",
	}, res.Paths())

	moca := res.Record["moca"].(map[string]any)
	assert.Nil(t, moca["attention"])
	assert.Equal(t, json.Number("26"), moca["total_score"])

	letter := res.Record["fluencytest"].(map[string]any)["letter_fluency"].(map[string]any)
	assert.Nil(t, letter["F_score"])
	assert.Equal(t, json.Number("10"), letter["A_score"])

	cerad := res.Record["cerad"].(map[string]any)
	assert.Nil(t, cerad["encoding_trials"])
	assert.Equal(t, map[string]any{"butter": json.Number("2")}, cerad["rapid_forgetting_words"])

	assert.Empty(t, schema.Validate(res.Record, s))
	assert.Equal(t, 5, res.Iterations, "one repair round per level with violations")
}

func TestRepair_StructuralViolationDropsSubtree(t *testing.T) {
	s := schema.MustNew("t",
		schema.Object("fluency",
			schema.Integer("total").WithMinimum(0),
			schema.Object("letter", schema.Integer("F").WithMinimum(0)),
		),
	)

	res := New(s).Repair("x", decode(t, `{"fluency": [{"total": -1}]}`), nil)
	assert.Equal(t, map[string]any{"fluency": nil}, res.Record)
	assert.Equal(t, []string{"fluency"}, res.Paths(), "no entries for nested paths")
}

func TestRepair_CopyOnWrite(t *testing.T) {
	s := schema.MustNew("t",
		schema.Integer("score").WithRange(0, 30),
		schema.Object("nested", schema.Integer("n").WithMaximum(1)),
	)
	input := decode(t, `{"score": 45, "nested": {"n": 5}}`)

	res := New(s).Repair("x", input, nil)

	assert.Equal(t, json.Number("45"), input["score"])
	assert.Equal(t, json.Number("5"), input["nested"].(map[string]any)["n"])
	assert.Nil(t, res.Record["score"])
	assert.Nil(t, res.Record["nested"].(map[string]any)["n"])
}

func TestRepair_UndescribedKeysUntouched(t *testing.T) {
	s := schema.MustNew("t", schema.Integer("score").WithRange(0, 30))

	res := New(s).Repair("x", decode(t, `{"score": 45, "comment": {"free": "form"}}`), nil)
	assert.Nil(t, res.Record["score"])
	assert.Equal(t, map[string]any{"free": "form"}, res.Record["comment"])
}

func TestRepair_NilRecord(t *testing.T) {
	res := New(schema.NBSEReport()).Repair("x", nil, nil)
	assert.NotNil(t, res.Record)
	assert.Empty(t, res.Record)
	assert.False(t, res.Repaired())
}

type failingSink struct{}

func (failingSink) Append(...diagnostics.Entry) error { return errors.New("sink unavailable") }

func TestRepair_SinkErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := schema.MustNew("t", schema.Integer("score").WithRange(0, 30))

	res := New(s, WithLogger(zap.New(core))).Repair("x", map[string]any{"score": 99}, failingSink{})

	assert.Nil(t, res.Record["score"])
	errs := logs.FilterMessage("failed to append diagnostic entries").All()
	require.Len(t, errs, 1)
	assert.Equal(t, "repair", errs[0].ContextMap()["component"])
}
