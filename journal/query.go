package journal

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Filter narrows trade listings. Empty fields match everything; From and To
// are inclusive YYYY-MM-DD bounds.
type Filter struct {
	Symbol string
	Type   string
	From   string
	To     string
	Limit  int
}

// ListTrades returns matching trades in chronological order.
func (s *Store) ListTrades(ctx context.Context, f Filter) ([]Trade, error) {
	q := s.db.WithContext(ctx).Model(&Trade{})
	if f.Symbol != "" {
		q = q.Where(clause.Eq{Column: clause.Column{Name: "symbol"}, Value: f.Symbol})
	}
	if f.Type != "" {
		q = q.Where(clause.Eq{Column: clause.Column{Name: "type"}, Value: f.Type})
	}
	if f.From != "" {
		q = q.Where(clause.Gte{Column: clause.Column{Name: "date"}, Value: f.From})
	}
	if f.To != "" {
		q = q.Where(clause.Lte{Column: clause.Column{Name: "date"}, Value: f.To})
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "time"}})
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []Trade
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: list trades: %w", ErrUnavailable, err)
	}
	return out, nil
}

// CountTrades returns the number of stored trades.
func (s *Store) CountTrades(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Trade{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count trades: %w", ErrUnavailable, err)
	}
	return n, nil
}

// Summary is the win/loss breakdown of a set of trades.
type Summary struct {
	Trades       int
	Wins         int
	Losses       int
	NetProfit    float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	Commission   float64
}

// Summarize totals trades. ProfitFactor is zero when there are no losses.
func Summarize(trades []Trade) Summary {
	var gross, loss, net, fees decimal.Decimal
	var s Summary
	for _, t := range trades {
		p := decimal.NewFromFloat(t.ProfitUSD)
		net = net.Add(p)
		fees = fees.Add(decimal.NewFromFloat(t.Commission))
		if t.ProfitUSD > 0 {
			s.Wins++
			gross = gross.Add(p)
		} else {
			s.Losses++
			loss = loss.Add(p.Abs())
		}
	}
	s.Trades = len(trades)
	s.NetProfit = net.Round(2).InexactFloat64()
	s.GrossProfit = gross.Round(2).InexactFloat64()
	s.GrossLoss = loss.Round(2).InexactFloat64()
	s.Commission = fees.Round(2).InexactFloat64()
	if loss.IsPositive() {
		s.ProfitFactor = gross.Div(loss).Round(2).InexactFloat64()
	}
	return s
}
