package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/clinicalnotes/reportrepair/schema"
)

// FilenameColumn is the last CSV column, holding the record's label.
const FilenameColumn = "filename"

// Row is a projected record ready for export.
type Row struct {
	Identifier int64
	Filename   string
	Record     map[string]any
}

// WriteCSV writes a header followed by one line per row. Columns follow the
// schema field order with nested objects flattened, then the filename.
func WriteCSV(w io.Writer, s *schema.Schema, idField string, rows []Row) error {
	cols := Columns(s, idField)
	cw := csv.NewWriter(w)
	if err := cw.Write(append(cols, FilenameColumn)); err != nil {
		return fmt.Errorf("csv: %w", err)
	}

	line := make([]string, len(cols)+1)
	for _, r := range rows {
		flat := Flatten(r.Record, s)
		if idField != "" {
			flat[idField] = r.Identifier
		}
		for i, c := range cols {
			line[i] = FormatValue(flat[c])
		}
		line[len(cols)] = r.Filename
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}
