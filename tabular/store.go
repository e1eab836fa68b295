package tabular

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clinicalnotes/reportrepair/internal/database"
	"github.com/clinicalnotes/reportrepair/pipeline"
	"github.com/clinicalnotes/reportrepair/schema"
	"github.com/clinicalnotes/reportrepair/types"
)

const (
	batchSize  = 200
	maxRetries = 3
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store persists tabulation runs, projected records, report texts and
// medications.
type Store struct {
	pool   *database.PoolManager
	logger *zap.Logger
}

// NewStore creates a Store on pool.
func NewStore(pool *database.PoolManager, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger.With(zap.String("component", "tabular"))}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.pool.DB().WithContext(ctx)
}

// AutoMigrate creates the tables when migrations are not used.
func (s *Store) AutoMigrate() error {
	if err := s.pool.DB().AutoMigrate(Models()...); err != nil {
		return types.NewError(types.ErrStorage, "failed to migrate tabular tables").WithCause(err)
	}
	return nil
}

// CreateRun inserts run. StartedAt defaults to now.
func (s *Store) CreateRun(ctx context.Context, run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if err := s.db(ctx).Create(run).Error; err != nil {
		return types.NewError(types.ErrStorage, "failed to create run").WithCause(err)
	}
	return nil
}

// FinishRun stores the counters of report on its run.
func (s *Store) FinishRun(ctx context.Context, report *pipeline.Report) error {
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	res := s.db(ctx).Model(&Run{}).Where("id = ?", report.RunID).Updates(map[string]any{
		"records":     report.Total(),
		"repaired":    report.Repaired,
		"failed":      len(report.Failures),
		"finished_at": finished.UTC(),
	})
	if res.Error != nil {
		return types.NewError(types.ErrStorage, "failed to finish run").WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, report.RunID)
	}
	return nil
}

// Run loads a run by ID.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to load run").WithCause(err)
	}
	return &run, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	err := s.db(ctx).Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to load latest run").WithCause(err)
	}
	return &run, nil
}

// SaveOutcomes projects the surviving records of outcomes onto sc and stores
// them under runID in one transaction. Saving the same run twice replaces
// the rows of each filename. Returns the number of stored rows.
func (s *Store) SaveOutcomes(ctx context.Context, runID string, sc *schema.Schema, idField string, outcomes []*pipeline.Outcome) (int, error) {
	rows := make([]Report, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		data, err := json.Marshal(Project(o.Record, sc, idField, o.Identifier))
		if err != nil {
			return 0, fmt.Errorf("failed to encode record %s: %w", o.Label, err)
		}
		repairs := 0
		if o.Repair != nil {
			repairs = len(o.Repair.Entries)
		}
		rows = append(rows, Report{RunID: runID, VAC: o.Identifier, Filename: o.Label, Record: string(data), Repairs: repairs})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := s.pool.WithTransactionRetry(ctx, maxRetries, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "filename"}},
			DoUpdates: clause.AssignmentColumns([]string{"vac", "record", "repairs"}),
		}).CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return 0, types.NewError(types.ErrStorage, "failed to store reports").WithCause(err)
	}
	s.logger.Info("reports stored", zap.String("run_id", runID), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// Reports loads the stored reports of a run ordered by identifier.
func (s *Store) Reports(ctx context.Context, runID string) ([]Report, error) {
	var reports []Report
	if err := s.db(ctx).Where("run_id = ?", runID).Order("vac, filename").Find(&reports).Error; err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to load reports").WithCause(err)
	}
	return reports, nil
}

// Rows loads the stored reports of a run as decoded rows.
func (s *Store) Rows(ctx context.Context, runID string) ([]Row, error) {
	reports, err := s.Reports(ctx, runID)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(reports))
	for i, r := range reports {
		record, err := decodeRecord(r.Record)
		if err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", r.Filename, err)
		}
		rows[i] = Row{Identifier: r.VAC, Filename: r.Filename, Record: record}
	}
	return rows, nil
}

// SaveTexts upserts report texts by filename.
func (s *Store) SaveTexts(ctx context.Context, texts []ReportText) error {
	if len(texts) == 0 {
		return nil
	}
	err := s.pool.WithTransactionRetry(ctx, maxRetries, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "filename"}},
			DoUpdates: clause.AssignmentColumns([]string{"vac", "content", "char_count"}),
		}).CreateInBatches(texts, batchSize).Error
	})
	if err != nil {
		return types.NewError(types.ErrStorage, "failed to store report texts").WithCause(err)
	}
	return nil
}

// Texts loads every report text ordered by identifier.
func (s *Store) Texts(ctx context.Context) ([]ReportText, error) {
	var texts []ReportText
	if err := s.db(ctx).Order("vac, filename").Find(&texts).Error; err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to load report texts").WithCause(err)
	}
	return texts, nil
}

// ReplaceMedications stores meds as the medication table of runID,
// replacing rows from an earlier standardization of the same run.
func (s *Store) ReplaceMedications(ctx context.Context, runID string, meds []Medication) error {
	err := s.pool.WithTransactionRetry(ctx, maxRetries, func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&Medication{}).Error; err != nil {
			return err
		}
		if len(meds) == 0 {
			return nil
		}
		return tx.CreateInBatches(meds, batchSize).Error
	})
	if err != nil {
		return types.NewError(types.ErrStorage, "failed to store medications").WithCause(err)
	}
	return nil
}

// Medications loads the medication rows of a run.
func (s *Store) Medications(ctx context.Context, runID string) ([]Medication, error) {
	var meds []Medication
	if err := s.db(ctx).Where("run_id = ?", runID).Order("vac, id").Find(&meds).Error; err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to load medications").WithCause(err)
	}
	return meds, nil
}

func decodeRecord(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}
