package journal

import (
	"context"
	"fmt"
	"time"
)

// Run is the audit row written once per ingestion run.
type Run struct {
	RunID             string    `json:"run_id" gorm:"column:run_id;primaryKey;size:26"`
	SourceFile        string    `json:"source_file" gorm:"column:source_file"`
	Mode              string    `json:"mode" gorm:"column:mode;size:16"`
	StartedAt         time.Time `json:"started_at" gorm:"column:started_at"`
	FinishedAt        time.Time `json:"finished_at" gorm:"column:finished_at"`
	RowsRead          int       `json:"rows_read" gorm:"column:rows_read"`
	ExitRowsRemoved   int       `json:"exit_rows_removed" gorm:"column:exit_rows_removed"`
	IncompleteDropped int       `json:"incomplete_dropped" gorm:"column:incomplete_dropped"`
	Inserted          int       `json:"inserted" gorm:"column:inserted"`
	Skipped           int       `json:"skipped" gorm:"column:skipped"`
	Failed            int       `json:"failed" gorm:"column:failed"`
	Error             string    `json:"error,omitempty" gorm:"column:error"`
}

func (Run) TableName() string { return "ingest_runs" }

// Duration is how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordRun stores the audit row for a finished run.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("%w: record run %s: %w", ErrUnavailable, run.RunID, err)
	}
	return nil
}

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var runs []Run
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Limit(1).Find(&runs).Error; err != nil {
		return Run{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("run %q not found", runID)
	}
	return runs[0], nil
}

// ListRuns returns the most recent runs first. Run ids sort by start time.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := s.db.WithContext(ctx).Order("run_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return runs, nil
}
