package tabular

import (
	"context"
	"strings"
)

// DefaultMedicationField is the record field listing medications.
const DefaultMedicationField = "medications"

// Standardizer maps a drug name to its ingredient names.
// *rxnorm.Client satisfies it.
type Standardizer interface {
	StandardizeAll(ctx context.Context, terms []string) (map[string][]string, error)
}

// ExplodeMedications returns the non-blank string items of record[field],
// trimmed, in order. Anything else yields nil.
func ExplodeMedications(record map[string]any, field string) []string {
	items, ok := record[field].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BuildMedications explodes the medications of every row and, when std is
// not nil, standardizes each distinct name once. A name with several
// ingredients yields one row per ingredient.
func BuildMedications(ctx context.Context, runID string, rows []Row, field string, std Standardizer) ([]Medication, error) {
	if field == "" {
		field = DefaultMedicationField
	}
	var names []string
	exploded := make([][]string, len(rows))
	for i, r := range rows {
		exploded[i] = ExplodeMedications(r.Record, field)
		names = append(names, exploded[i]...)
	}

	var ingredients map[string][]string
	if std != nil && len(names) > 0 {
		var err error
		if ingredients, err = std.StandardizeAll(ctx, names); err != nil {
			return nil, err
		}
	}

	var meds []Medication
	for i, r := range rows {
		for _, name := range exploded[i] {
			base := Medication{RunID: runID, VAC: r.Identifier, Filename: r.Filename, Name: name}
			found := ingredients[name]
			if len(found) == 0 {
				meds = append(meds, base)
				continue
			}
			for _, in := range found {
				m := base
				m.Ingredient = &in
				meds = append(meds, m)
			}
		}
	}
	return meds, nil
}
