package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeview/config"
	"github.com/rustyeddy/tradeview/journal"
)

// dateTimeLayouts are the Date/Time representations seen in exports.
var dateTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"2006-01-02",
}

// ParseDateTime parses an export Date/Time cell.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", s)
}

// Result is the output of one Normalize call.
type Result struct {
	Trades            []journal.Trade
	RowsRead          int
	ExitRowsRemoved   int
	IncompleteDropped int
}

// Normalizer turns export rows into storage-ready trades.
type Normalizer struct {
	symbol     string
	strategy   string
	margin     decimal.Decimal
	commission decimal.Decimal
	exitTypes  map[string]bool
	clock      SessionClock
}

// NewNormalizer builds a normalizer from the ingest settings.
func NewNormalizer(cfg config.IngestConfig, clock SessionClock) *Normalizer {
	exits := make(map[string]bool, len(cfg.ExitTypes))
	for _, t := range cfg.ExitTypes {
		exits[t] = true
	}
	return &Normalizer{
		symbol:     cfg.Symbol,
		strategy:   cfg.Strategy,
		margin:     decimal.NewFromFloat(cfg.MarginPerContract),
		commission: decimal.NewFromFloat(cfg.CommissionPerContract),
		exitTypes:  exits,
		clock:      clock,
	}
}

// Normalize transforms a parsed frame. It performs no I/O. An unparseable
// Date/Time or a non-numeric contracts or profit value aborts with
// ErrMalformedInput; blank required values drop the row.
func (n *Normalizer) Normalize(f Frame) (Result, error) {
	res := Result{RowsRead: len(f.Rows)}

	for i, row := range f.Rows {
		line := i + 2

		rawTime := row[ColDateTime]
		var at time.Time
		if rawTime != "" {
			var err error
			at, err = ParseDateTime(rawTime)
			if err != nil {
				return Result{}, fmt.Errorf("%w: line %d: %w", ErrMalformedInput, line, err)
			}
		}

		typ := row[ColType]
		if n.exitTypes[typ] {
			res.ExitRowsRemoved++
			continue
		}

		rawContracts, rawProfit := row[ColContracts], row[ColProfit]
		if typ == "" || rawTime == "" || rawContracts == "" || rawProfit == "" {
			res.IncompleteDropped++
			continue
		}

		contracts, err := parseContracts(rawContracts)
		if err != nil {
			return Result{}, fmt.Errorf("%w: line %d: %w", ErrMalformedInput, line, err)
		}
		profit, err := parseAmount(rawProfit)
		if err != nil {
			return Result{}, fmt.Errorf("%w: line %d: %w", ErrMalformedInput, line, err)
		}

		res.Trades = append(res.Trades, n.trade(typ, at, contracts, profit))
	}
	return res, nil
}

func (n *Normalizer) trade(typ string, at time.Time, contracts int, profit float64) journal.Trade {
	_, week := at.ISOWeek()
	qty := decimal.NewFromInt(int64(contracts))
	return journal.Trade{
		Symbol:        n.symbol,
		Type:          typ,
		Date:          at.Format(time.DateOnly),
		Time:          at.Format(time.TimeOnly),
		Day:           at.Day(),
		Hour:          at.Hour(),
		Minute:        at.Minute(),
		Weekday:       at.Weekday().String(),
		WeekNum:       week,
		Month:         at.Month().String(),
		Year:          at.Year(),
		Contracts:     contracts,
		Margin:        qty.Mul(n.margin).Round(2).InexactFloat64(),
		Commission:    qty.Mul(n.commission).Round(2).InexactFloat64(),
		ProfitUSD:     profit,
		WinLoss:       journal.ClassifyProfit(profit),
		Strategy:      n.strategy,
		MarketSession: n.clock.Classify(at),
	}
}

func parseContracts(s string) (int, error) {
	v, err := parseAmount(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("contracts %q is not a whole number", s)
	}
	if v < 0 || v > math.MaxInt32 {
		return 0, fmt.Errorf("contracts %q out of range", s)
	}
	return int(v), nil
}

func parseAmount(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
