package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeview/journal"
)

// EquityPoint is one step of the equity curve.
type EquityPoint struct {
	Date             string  `json:"date"`
	Time             string  `json:"time,omitempty"`
	Profit           float64 `json:"profit_usd"`
	CumulativeProfit float64 `json:"cumulative_profit"`
	Equity           float64 `json:"equity"`
}

// Curve re-sorts trades by date ascending, keeping the given order within a
// date, and accumulates profit on top of startingBalance. The input slice is
// not modified.
func Curve(trades []journal.Trade, startingBalance float64) []EquityPoint {
	if len(trades) == 0 {
		return nil
	}

	ordered := make([]journal.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date < ordered[j].Date
	})

	start := decimal.NewFromFloat(startingBalance)
	cum := decimal.Zero
	points := make([]EquityPoint, 0, len(ordered))
	for _, t := range ordered {
		cum = cum.Add(decimal.NewFromFloat(t.ProfitUSD))
		points = append(points, EquityPoint{
			Date:             t.Date,
			Time:             t.Time,
			Profit:           t.ProfitUSD,
			CumulativeProfit: cum.InexactFloat64(),
			Equity:           start.Add(cum).InexactFloat64(),
		})
	}
	return points
}

// Trades unwraps the stored trades of entries.
func Trades(entries []journal.Entry) []journal.Trade {
	out := make([]journal.Trade, len(entries))
	for i, e := range entries {
		out[i] = e.Trade
	}
	return out
}
