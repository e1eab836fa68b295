package diagnostics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Record is the persisted form of an Entry.
type Record struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     string    `gorm:"size:36;index:idx_diagnostics_run" json:"run_id"`
	Label     string    `gorm:"size:255;not null;index:idx_diagnostics_label" json:"label"`
	Path      string    `gorm:"size:255" json:"path"`
	Reason    string    `gorm:"size:64;not null;index:idx_diagnostics_reason" json:"reason"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName implements gorm's tabler.
func (Record) TableName() string {
	return "diagnostics"
}

// StoreSink persists entries to the diagnostics table, tagged with a run ID.
type StoreSink struct {
	db        *gorm.DB
	runID     string
	batchSize int
}

// NewStoreSink creates a sink writing rows for runID.
func NewStoreSink(db *gorm.DB, runID string) *StoreSink {
	return &StoreSink{db: db, runID: runID, batchSize: 200}
}

// AutoMigrate creates the diagnostics table when migrations are not used.
func (s *StoreSink) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate diagnostics table: %w", err)
	}
	return nil
}

// Append implements Sink. The rows of one call are inserted in one
// transaction so a record's entries are stored together.
func (s *StoreSink) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]Record, len(entries))
	for i, e := range entries {
		created := e.Time
		if created.IsZero() {
			created = time.Now()
		}
		rows[i] = Record{
			RunID:     s.runID,
			Label:     e.Label,
			Path:      e.Path,
			Reason:    e.Reason,
			Detail:    e.Detail,
			CreatedAt: created,
		}
	}
	if err := s.db.CreateInBatches(rows, s.batchSize).Error; err != nil {
		return fmt.Errorf("failed to store diagnostic entries: %w", err)
	}
	return nil
}

// Entries loads the entries of a run in insertion order.
func (s *StoreSink) Entries(ctx context.Context, runID string) ([]Entry, error) {
	var rows []Record
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load diagnostic entries: %w", err)
	}
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{Label: r.Label, Path: r.Path, Reason: r.Reason, Detail: r.Detail, Time: r.CreatedAt}
	}
	return entries, nil
}
