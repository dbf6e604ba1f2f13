package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mode selects how the writer inserts records.
type Mode string

const (
	// ModePerRecord looks up each record's natural key and inserts it in its
	// own transaction.
	ModePerRecord Mode = "per_record"
	// ModeBatch inserts chunks with ON CONFLICT DO NOTHING.
	ModeBatch Mode = "batch"
)

// Failure is a record rejected by a store integrity constraint.
type Failure struct {
	Trade Trade
	Err   error
}

// WriteReport summarizes one Write call.
type WriteReport struct {
	Inserted   int
	Skipped    int
	Failed     int
	Duplicates []Trade
	Failures   []Failure
}

// Writer inserts normalized trades, skipping rows already in the store.
type Writer struct {
	db        *gorm.DB
	mode      Mode
	batchSize int
	log       zerolog.Logger
}

// NewWriter returns a writer on s. A batch size below 1 means 100.
func NewWriter(s *Store, mode Mode, batchSize int) *Writer {
	if batchSize < 1 {
		batchSize = 100
	}
	if mode == "" {
		mode = ModePerRecord
	}
	return &Writer{
		db:        s.db,
		mode:      mode,
		batchSize: batchSize,
		log:       s.log.With().Str("component", "writer").Str("mode", string(mode)).Logger(),
	}
}

// Write persists trades. Integrity violations are recorded in the report and
// the remaining records are still written. Any other storage error stops
// the run and is returned wrapped in ErrUnavailable.
func (w *Writer) Write(ctx context.Context, trades []Trade) (WriteReport, error) {
	switch w.mode {
	case ModeBatch:
		return w.writeBatches(ctx, trades)
	case ModePerRecord:
		return w.writeEach(ctx, trades)
	default:
		return WriteReport{}, fmt.Errorf("unknown writer mode %q", w.mode)
	}
}

func (w *Writer) writeEach(ctx context.Context, trades []Trade) (WriteReport, error) {
	var rep WriteReport
	for _, t := range trades {
		rec := t
		rec.ID = 0

		var duplicate bool
		err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&Trade{}).Where(rec.NaturalKey()).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				duplicate = true
				return nil
			}
			return tx.Create(&rec).Error
		})

		switch {
		case err == nil && duplicate:
			rep.Skipped++
			rep.Duplicates = append(rep.Duplicates, t)
			w.log.Debug().Str("date", t.Date).Str("time", t.Time).Str("type", t.Type).Msg("duplicate skipped")
		case err == nil:
			rep.Inserted++
		case IsIntegrityViolation(err):
			rep.Failed++
			rep.Failures = append(rep.Failures, Failure{Trade: t, Err: err})
			w.log.Warn().Err(err).Str("date", t.Date).Str("time", t.Time).Msg("record rolled back")
		default:
			return rep, fmt.Errorf("%w: insert trade %s %s: %w", ErrUnavailable, t.Date, t.Time, err)
		}
	}
	return rep, nil
}

func (w *Writer) writeBatches(ctx context.Context, trades []Trade) (WriteReport, error) {
	var rep WriteReport
	for start := 0; start < len(trades); start += w.batchSize {
		end := min(start+w.batchSize, len(trades))

		chunk := make([]Trade, end-start)
		copy(chunk, trades[start:end])
		for i := range chunk {
			chunk[i].ID = 0
		}

		res := w.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&chunk)
		switch {
		case res.Error == nil:
			inserted := int(res.RowsAffected)
			rep.Inserted += inserted
			rep.Skipped += len(chunk) - inserted
		case IsIntegrityViolation(res.Error):
			rep.Failed += len(chunk)
			for _, t := range trades[start:end] {
				rep.Failures = append(rep.Failures, Failure{Trade: t, Err: res.Error})
			}
			w.log.Warn().Err(res.Error).Int("records", len(chunk)).Msg("batch rolled back")
		default:
			return rep, fmt.Errorf("%w: insert batch at %d: %w", ErrUnavailable, start, res.Error)
		}
	}
	return rep, nil
}

// IsIntegrityViolation reports whether err came from a constraint the
// database enforces (unique, check, not null, foreign key).
func IsIntegrityViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrCheckConstraintViolated) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23: integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}
