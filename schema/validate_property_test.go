package schema

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Feature: report-repair, Property 1: absent and null fields never violate
func TestProperty_Validate_OptionalityOfFields(t *testing.T) {
	s := NBSEReportDetailed()
	names := s.Names()

	rapid.Check(t, func(rt *rapid.T) {
		record := make(map[string]any)
		for _, name := range names {
			switch rapid.IntRange(0, 1).Draw(rt, "mode_"+name) {
			case 0:
				// absent
			case 1:
				record[name] = nil
			}
		}
		assert.Empty(rt, Validate(record, s))
	})
}

// Feature: report-repair, Property 2: in-range integers are accepted, out-of-range rejected
func TestProperty_Validate_IntegerBounds(t *testing.T) {
	s := MustNew("t", Integer("score").WithRange(0, 30))

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(-1000, 1000).Draw(rt, "n")
		vs := Validate(map[string]any{"score": n}, s)

		if n >= 0 && n <= 30 {
			assert.Empty(rt, vs)
		} else {
			if assert.Len(rt, vs, 1) {
				assert.Equal(rt, ReasonOutOfBounds, vs[0].Reason)
			}
		}
	})
}

// Feature: report-repair, Property 3: every violation path names a described field
func TestProperty_Validate_PathsAreDescribed(t *testing.T) {
	s := NBSEReport()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("violations only reference schema fields", prop.ForAll(
		func(values []string) bool {
			record := make(map[string]any)
			for i, name := range s.Names() {
				record[name] = values[i%len(values)]
			}
			record["unrelated_"+fmt.Sprint(len(values))] = 42

			for _, v := range Validate(record, s) {
				if _, ok := s.Field(v.Path); !ok {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(5, gen.AlphaString()).SuchThat(func(v []string) bool { return len(v) > 0 }),
	))

	properties.TestingRun(t)
}
