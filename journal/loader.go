package journal

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Entry is a stored trade with the fields the analysis views derive.
type Entry struct {
	Trade
	CumulativeProfit float64 `json:"cumulative_profit"`
	Equity           float64 `json:"equity"`
	DayName          string  `json:"day_name"`
	HourOfDay        int     `json:"hour_of_day"`
	HasHour          bool    `json:"has_hour"`
}

// Dataset is every stored trade, newest first, with running equity.
type Dataset struct {
	Entries         []Entry
	StartingBalance float64
}

// Empty reports whether the dataset holds no trades.
func (d Dataset) Empty() bool { return len(d.Entries) == 0 }

// Load reads all trades ordered by date then time, both descending. A load
// failure is logged and yields an empty dataset.
func (s *Store) Load(ctx context.Context, startingBalance float64) Dataset {
	var trades []Trade
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "time"}, Desc: true}).
		Find(&trades).Error
	if err != nil {
		s.log.Error().Err(err).Msg("load trades")
		return Dataset{StartingBalance: startingBalance}
	}
	return Derive(trades, startingBalance, s.log)
}

// Derive computes cumulative profit and equity over trades in the order
// given, plus weekday name and hour of day.
func Derive(trades []Trade, startingBalance float64, log zerolog.Logger) Dataset {
	ds := Dataset{
		Entries:         make([]Entry, 0, len(trades)),
		StartingBalance: startingBalance,
	}

	start := decimal.NewFromFloat(startingBalance)
	cum := decimal.Zero
	for _, t := range trades {
		cum = cum.Add(decimal.NewFromFloat(t.ProfitUSD))
		e := Entry{
			Trade:            t,
			CumulativeProfit: cum.InexactFloat64(),
			Equity:           start.Add(cum).InexactFloat64(),
			DayName:          dayName(t),
		}
		if h, ok := HourOf(t.Time); ok {
			e.HourOfDay, e.HasHour = h, true
		} else {
			log.Warn().Str("date", t.Date).Str("time", t.Time).Msg("unrecognized time, hour left empty")
		}
		ds.Entries = append(ds.Entries, e)
	}
	return ds
}

// HourOf extracts the hour from "HH:MM:SS" or "HH:MM".
func HourOf(clock string) (int, bool) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}

func dayName(t Trade) string {
	if d, err := time.Parse(time.DateOnly, t.Date); err == nil {
		return d.Weekday().String()
	}
	return t.Weekday
}
