package extract

import "strings"

// Template placeholders.
const (
	SchemaPlaceholder = "{schema}"
	ReportPlaceholder = "{report}"
)

const fence = "```"

// DefaultTemplate asks the generator for a JSON record of a Neurobehavioral
// Status Exam report complying with the embedded JSON Schema.
const DefaultTemplate = `Your task is to convert a Neurobehavioral Report into JSON format.
Use 'null' if you cannot safely determine the value of a key. You must output valid JSON.
Comply with the provided JSON schema. Do not use extra keys, do not include extra information. Pay attention to the field descriptions.

Dates will be provided in USA month-first format: mm/dd/yy or mm.dd.yy, convert them to ISO format yyyy-mm-dd

The encounter type is specified at the beginning of the report. If it is missing, use notes and summaries to help you determine the encounter type.
If you still cannot determine the encounter type, output null.

When reporting medications, only keep medication name and strength, remove origin (e.g. non-va), purpose, and directions about usage.

JSON Schema:

` + fence + `
{schema}
` + fence + `

Neurobehavioral Report:

{report}
`

// BuildPrompt substitutes schemaJSON and report into template. Both
// placeholders are replaced in a single pass, so braces inside the report
// are never interpreted.
func BuildPrompt(template, schemaJSON, report string) string {
	return strings.NewReplacer(
		SchemaPlaceholder, schemaJSON,
		ReportPlaceholder, report,
	).Replace(template)
}

// validTemplate reports whether template carries the report placeholder.
func validTemplate(template string) bool {
	return strings.Contains(template, ReportPlaceholder)
}
