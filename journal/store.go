package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rustyeddy/tradeview/config"
)

// ErrUnavailable marks a store that cannot be reached or a storage failure
// that is not a per-record integrity violation.
var ErrUnavailable = errors.New("trade store unavailable")

// Store wraps the relational database holding trades and ingest runs.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the configured database and migrates the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, creds config.Credentials, log zerolog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN(creds))
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN(creds))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	log = log.With().Str("component", "store").Str("driver", cfg.Driver).Logger()
	log.Debug().Str("dsn", cfg.RedactedDSN(creds)).Msg("opening store")

	return OpenDialector(ctx, dialector, log)
}

// OpenSQLite opens (creating if needed) a sqlite database file.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*Store, error) {
	return OpenDialector(ctx, sqlite.Open(path), log)
}

// OpenDialector opens a store on an already built gorm dialector.
func OpenDialector(ctx context.Context, dialector gorm.Dialector, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: &gormLog{log: log, slow: 200 * time.Millisecond},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if db.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&Trade{}, &Run{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrUnavailable, err)
	}

	return &Store{db: db, log: log}, nil
}

// DB exposes the underlying handle for queries outside this package.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormLog routes gorm's statement log into zerolog. Statement failures are
// reported at debug level; callers decide whether they matter.
type gormLog struct {
	log  zerolog.Logger
	slow time.Duration
}

func (l *gormLog) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (l *gormLog) Info(_ context.Context, msg string, args ...any) {
	l.log.Info().Msgf(msg, args...)
}

func (l *gormLog) Warn(_ context.Context, msg string, args ...any) {
	l.log.Warn().Msgf(msg, args...)
}

func (l *gormLog) Error(_ context.Context, msg string, args ...any) {
	l.log.Error().Msgf(msg, args...)
}

func (l *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Debug().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("statement failed")
	case l.slow > 0 && elapsed > l.slow:
		sql, rows := fc()
		l.log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow statement")
	case l.log.GetLevel() <= zerolog.TraceLevel:
		sql, rows := fc()
		l.log.Trace().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("statement")
	}
}
