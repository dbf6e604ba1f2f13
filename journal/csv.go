package journal

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader is the storage column order used by WriteCSV.
var CSVHeader = []string{
	"symbol", "type", "date", "time", "day", "hour", "minute", "weekday",
	"weeknum", "month", "year", "contracts", "margin", "commission",
	"profit_usd", "win_loss", "strategy", "market_session",
}

// WriteCSV writes trades with a header row in storage column order.
func WriteCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write([]string{
			t.Symbol,
			t.Type,
			t.Date,
			t.Time,
			strconv.Itoa(t.Day),
			strconv.Itoa(t.Hour),
			strconv.Itoa(t.Minute),
			t.Weekday,
			strconv.Itoa(t.WeekNum),
			t.Month,
			strconv.Itoa(t.Year),
			strconv.Itoa(t.Contracts),
			money(t.Margin),
			money(t.Commission),
			money(t.ProfitUSD),
			string(t.WinLoss),
			t.Strategy,
			string(t.MarketSession),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
