package tabular

import "time"

// Run is one tabulation run.
type Run struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	SchemaTitle string     `gorm:"size:255;not null" json:"schema_title"`
	Source      string     `gorm:"size:1024" json:"source"`
	Records     int        `gorm:"not null;default:0" json:"records"`
	Repaired    int        `gorm:"not null;default:0" json:"repaired"`
	Failed      int        `gorm:"not null;default:0" json:"failed"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func (Run) TableName() string { return "runs" }

// Report is a projected record stored as JSON.
type Report struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     string    `gorm:"size:36;not null;index:idx_reports_run;uniqueIndex:idx_reports_run_filename,priority:1" json:"run_id"`
	VAC       int64     `gorm:"column:vac;index:idx_reports_vac" json:"vac"`
	Filename  string    `gorm:"size:512;not null;uniqueIndex:idx_reports_run_filename,priority:2" json:"filename"`
	Record    string    `gorm:"type:text;not null" json:"record"`
	Repairs   int       `gorm:"not null;default:0" json:"repairs"`
	CreatedAt time.Time `json:"created_at"`
}

func (Report) TableName() string { return "reports" }

// ReportText is the full text of a source report.
type ReportText struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VAC       int64     `gorm:"column:vac;index:idx_report_texts_vac" json:"vac"`
	Filename  string    `gorm:"size:512;not null;uniqueIndex:idx_report_texts_filename" json:"filename"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CharCount int       `gorm:"not null;default:0" json:"char_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReportText) TableName() string { return "report_texts" }

// Medication is one medication of one record, with its standardized
// ingredient. A multi-ingredient drug yields one row per ingredient; a drug
// without a known ingredient has a nil Ingredient.
type Medication struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RunID      string    `gorm:"size:36;not null;index:idx_medications_run" json:"run_id"`
	VAC        int64     `gorm:"column:vac;index:idx_medications_vac" json:"vac"`
	Filename   string    `gorm:"size:512;not null" json:"filename"`
	Name       string    `gorm:"type:text;not null" json:"name"`
	Ingredient *string   `gorm:"type:text" json:"ingredient"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Medication) TableName() string { return "medications" }

// Models lists the tables managed by Store.AutoMigrate.
func Models() []any {
	return []any{&Run{}, &Report{}, &ReportText{}, &Medication{}}
}
