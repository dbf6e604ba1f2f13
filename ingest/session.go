package ingest

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/rustyeddy/tradeview/config"
	"github.com/rustyeddy/tradeview/journal"
)

// SessionClock classifies a wall-clock time against the exchange's regular
// trading hours.
type SessionClock struct {
	source   *time.Location
	exchange *time.Location
	open     int
	close    int
}

// NewSessionClock builds a clock from the session configuration.
func NewSessionClock(cfg config.SessionConfig) (SessionClock, error) {
	source, err := time.LoadLocation(cfg.SourceTimezone)
	if err != nil {
		return SessionClock{}, fmt.Errorf("source timezone: %w", err)
	}
	exchange, err := time.LoadLocation(cfg.ExchangeTimezone)
	if err != nil {
		return SessionClock{}, fmt.Errorf("exchange timezone: %w", err)
	}
	open, err := config.ParseClock(cfg.Open)
	if err != nil {
		return SessionClock{}, fmt.Errorf("session open: %w", err)
	}
	closing, err := config.ParseClock(cfg.Close)
	if err != nil {
		return SessionClock{}, fmt.Errorf("session close: %w", err)
	}
	if closing <= open {
		return SessionClock{}, fmt.Errorf("session close %s is not after open %s", cfg.Close, cfg.Open)
	}
	return SessionClock{source: source, exchange: exchange, open: open, close: closing}, nil
}

// Classify reads the wall clock of t in the source timezone and places the
// equivalent exchange time before, inside, or after regular hours.
func (c SessionClock) Classify(t time.Time) journal.Session {
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, c.source)
	at := local.In(c.exchange)
	minute := at.Hour()*60 + at.Minute()
	switch {
	case minute < c.open:
		return journal.PreMarket
	case minute < c.close:
		return journal.MarketHours
	default:
		return journal.PostMarket
	}
}
