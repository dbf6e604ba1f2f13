// Package journal persists normalized trades and reads them back for
// analysis.
package journal

// WinLoss classifies a trade by the sign of its profit.
type WinLoss string

const (
	Win  WinLoss = "Win"
	Loss WinLoss = "Loss"
)

// ClassifyProfit returns Win for a strictly positive profit and Loss
// otherwise. A flat trade is a Loss.
func ClassifyProfit(profit float64) WinLoss {
	if profit > 0 {
		return Win
	}
	return Loss
}

// Session places a trade relative to the exchange's regular hours.
type Session string

const (
	PreMarket   Session = "Pre-Market"
	MarketHours Session = "Market Hours"
	PostMarket  Session = "Post-Market"
)

// Trade is one entry row of a backtest export after normalization.
//
// (symbol, type, date, time, contracts, profit_usd) is the natural key; the
// writer never inserts a second row with the same tuple.
type Trade struct {
	ID            uint    `json:"-" gorm:"primaryKey"`
	Symbol        string  `json:"symbol" gorm:"column:symbol;size:10;not null;uniqueIndex:idx_trades_natural_key,priority:1"`
	Type          string  `json:"type" gorm:"column:type;size:20;not null;uniqueIndex:idx_trades_natural_key,priority:2"`
	Date          string  `json:"date" gorm:"column:date;size:10;not null;index;uniqueIndex:idx_trades_natural_key,priority:3"`
	Time          string  `json:"time" gorm:"column:time;size:8;not null;uniqueIndex:idx_trades_natural_key,priority:4"`
	Day           int     `json:"day" gorm:"column:day"`
	Hour          int     `json:"hour" gorm:"column:hour"`
	Minute        int     `json:"minute" gorm:"column:minute"`
	Weekday       string  `json:"weekday" gorm:"column:weekday;size:10"`
	WeekNum       int     `json:"weeknum" gorm:"column:weeknum"`
	Month         string  `json:"month" gorm:"column:month;size:10"`
	Year          int     `json:"year" gorm:"column:year"`
	Contracts     int     `json:"contracts" gorm:"column:contracts;not null;uniqueIndex:idx_trades_natural_key,priority:5"`
	Margin        float64 `json:"margin" gorm:"column:margin"`
	Commission    float64 `json:"commission" gorm:"column:commission"`
	ProfitUSD     float64 `json:"profit_usd" gorm:"column:profit_usd;not null;uniqueIndex:idx_trades_natural_key,priority:6"`
	WinLoss       WinLoss `json:"win_loss" gorm:"column:win_loss;size:4;check:chk_trades_win_loss,win_loss IN ('Win','Loss')"`
	Strategy      string  `json:"strategy" gorm:"column:strategy;size:50"`
	MarketSession Session `json:"market_session" gorm:"column:market_session;size:20;check:chk_trades_market_session,market_session IN ('Pre-Market','Market Hours','Post-Market')"`
}

// TableName pins the table name regardless of the naming strategy.
func (Trade) TableName() string { return "trades" }

// NaturalKey returns the duplicate-detection tuple as column conditions.
func (t Trade) NaturalKey() map[string]any {
	return map[string]any{
		"symbol":     t.Symbol,
		"type":       t.Type,
		"date":       t.Date,
		"time":       t.Time,
		"contracts":  t.Contracts,
		"profit_usd": t.ProfitUSD,
	}
}
