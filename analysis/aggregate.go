// Package analysis summarizes loaded trades by day and hour and builds the
// equity curve.
package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeview/journal"
)

// Grouping is the first aggregation key; every grouping is crossed with hour.
type Grouping string

const (
	ByDay     Grouping = "day"
	ByDate    Grouping = "date"
	ByWeekday Grouping = "weekday"
	ByWeekNum Grouping = "weeknum"
	ByType    Grouping = "type"
)

// Groupings lists the supported groupings, default first.
var Groupings = []Grouping{ByDay, ByDate, ByWeekday, ByWeekNum, ByType}

// ParseGrouping accepts a grouping name; empty means ByDay.
func ParseGrouping(s string) (Grouping, error) {
	if s == "" {
		return ByDay, nil
	}
	for _, g := range Groupings {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown grouping %q", s)
}

// WeekdayOrder is the fixed display order of day names.
var WeekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var weekdayRank = func() map[string]int {
	m := make(map[string]int, len(WeekdayOrder))
	for i, d := range WeekdayOrder {
		m[d] = i
	}
	return m
}()

// Row is one (group, hour) bucket.
type Row struct {
	Group       string  `json:"group"`
	Hour        int     `json:"hour"`
	Label       string  `json:"label"`
	AvgProfit   float64 `json:"avg_profit"`
	TotalProfit float64 `json:"total_profit"`
	TradeCount  int     `json:"trade_count"`
	WinRate     float64 `json:"win_rate"`
}

// Table is an aggregation result. Excluded counts entries without an hour.
type Table struct {
	Grouping Grouping `json:"grouping"`
	Rows     []Row    `json:"rows"`
	Excluded int      `json:"excluded"`
}

type bucketKey struct {
	group string
	hour  int
}

type bucket struct {
	total decimal.Decimal
	count int
	wins  int
}

// Build groups entries by g crossed with hour of day. Metrics are rounded to
// two decimals. Entries whose time had no recognizable hour are skipped and
// counted in Excluded.
func Build(entries []journal.Entry, g Grouping) Table {
	if g == "" {
		g = ByDay
	}
	t := Table{Grouping: g}

	buckets := make(map[bucketKey]*bucket)
	for _, e := range entries {
		if !e.HasHour {
			t.Excluded++
			continue
		}
		k := bucketKey{group: groupKey(e, g), hour: e.HourOfDay}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.total = b.total.Add(decimal.NewFromFloat(e.ProfitUSD))
		b.count++
		if e.ProfitUSD > 0 {
			b.wins++
		}
	}

	t.Rows = make([]Row, 0, len(buckets))
	for k, b := range buckets {
		n := decimal.NewFromInt(int64(b.count))
		t.Rows = append(t.Rows, Row{
			Group:       k.group,
			Hour:        k.hour,
			Label:       fmt.Sprintf("%s %02d:00", k.group, k.hour),
			AvgProfit:   b.total.Div(n).Round(2).InexactFloat64(),
			TotalProfit: b.total.Round(2).InexactFloat64(),
			TradeCount:  b.count,
			WinRate:     decimal.NewFromInt(int64(b.wins)).Div(n).Round(2).InexactFloat64(),
		})
	}

	less := groupLess(g)
	sort.Slice(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if a.Group != b.Group {
			return less(a.Group, b.Group)
		}
		return a.Hour < b.Hour
	})
	return t
}

func groupKey(e journal.Entry, g Grouping) string {
	switch g {
	case ByDate:
		return e.Date
	case ByWeekday:
		return e.Weekday
	case ByWeekNum:
		return strconv.Itoa(e.WeekNum)
	case ByType:
		return e.Type
	default:
		return e.DayName
	}
}

func groupLess(g Grouping) func(a, b string) bool {
	switch g {
	case ByDay, ByWeekday:
		return weekdayLess
	case ByWeekNum:
		return func(a, b string) bool {
			x, _ := strconv.Atoi(a)
			y, _ := strconv.Atoi(b)
			return x < y
		}
	default:
		return func(a, b string) bool { return a < b }
	}
}

// weekdayLess orders day names Monday first; unknown names sort last.
func weekdayLess(a, b string) bool {
	ra, ok := weekdayRank[a]
	if !ok {
		ra = len(WeekdayOrder)
	}
	rb, ok := weekdayRank[b]
	if !ok {
		rb = len(WeekdayOrder)
	}
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// DayRank returns the Monday-first position of a day name, or -1.
func DayRank(day string) int {
	if r, ok := weekdayRank[day]; ok {
		return r
	}
	return -1
}
