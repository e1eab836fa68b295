package tabular

import (
	"unicode/utf8"

	"github.com/clinicalnotes/reportrepair/identifier"
	"github.com/clinicalnotes/reportrepair/pipeline"
)

// CollectTexts turns source reports into ReportText rows, skipping reports
// whose label carries no identifier. Skipped labels are returned in order.
func CollectTexts(docs []pipeline.Document, ext *identifier.Extractor) (texts []ReportText, skipped []string) {
	for _, d := range docs {
		id, err := ext.Extract(d.Label)
		if err != nil {
			skipped = append(skipped, d.Label)
			continue
		}
		texts = append(texts, ReportText{
			VAC:       id,
			Filename:  d.Label,
			Content:   d.Text,
			CharCount: utf8.RuneCountInString(d.Text),
		})
	}
	return texts, skipped
}
