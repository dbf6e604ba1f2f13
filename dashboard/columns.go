package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rustyeddy/tradeview/journal"
)

// cell is a trade table value: numeric columns compare as numbers, the
// rest as text.
type cell struct {
	num   float64
	str   string
	isNum bool
	blank bool
}

func numCell(v float64) cell {
	return cell{num: v, str: strconv.FormatFloat(v, 'f', -1, 64), isNum: true}
}

func intCell(v int) cell { return numCell(float64(v)) }

func strCell(s string) cell { return cell{str: s, blank: s == ""} }

// Column describes one column of the raw trade table.
type Column struct {
	ID    string
	Title string
	value func(e journal.Entry) cell
}

// TradeColumns are the raw trade table's columns in display order.
var TradeColumns = []Column{
	{"date", "Date", func(e journal.Entry) cell { return strCell(e.Date) }},
	{"time", "Time", func(e journal.Entry) cell { return strCell(e.Time) }},
	{"day", "Day", func(e journal.Entry) cell { return strCell(e.DayName) }},
	{"hour", "Hour", func(e journal.Entry) cell {
		if !e.HasHour {
			return cell{blank: true}
		}
		return intCell(e.HourOfDay)
	}},
	{"type", "Type", func(e journal.Entry) cell { return strCell(e.Type) }},
	{"contracts", "Contracts", func(e journal.Entry) cell { return intCell(e.Contracts) }},
	{"profit_usd", "Profit USD", func(e journal.Entry) cell { return numCell(e.ProfitUSD) }},
	{"cumulative_profit", "Cum. Profit", func(e journal.Entry) cell { return numCell(e.CumulativeProfit) }},
	{"equity", "Equity", func(e journal.Entry) cell { return numCell(e.Equity) }},
	{"win_loss", "Win/Loss", func(e journal.Entry) cell { return strCell(string(e.WinLoss)) }},
	{"market_session", "Session", func(e journal.Entry) cell { return strCell(string(e.MarketSession)) }},
	{"margin", "Margin", func(e journal.Entry) cell { return numCell(e.Margin) }},
	{"commission", "Commission", func(e journal.Entry) cell { return numCell(e.Commission) }},
	{"weeknum", "Week", func(e journal.Entry) cell { return intCell(e.WeekNum) }},
	{"month", "Month", func(e journal.Entry) cell { return strCell(e.Month) }},
	{"strategy", "Strategy", func(e journal.Entry) cell { return strCell(e.Strategy) }},
}

var columnByID = func() map[string]Column {
	m := make(map[string]Column, len(TradeColumns))
	for _, c := range TradeColumns {
		m[c.ID] = c
	}
	return m
}()

// Display formats a column value for the HTML table.
func (c Column) Display(e journal.Entry) string {
	v := c.value(e)
	if v.blank {
		return ""
	}
	if v.isNum {
		switch c.ID {
		case "hour", "contracts", "weeknum":
			return strconv.Itoa(int(v.num))
		}
		return strconv.FormatFloat(v.num, 'f', 2, 64)
	}
	return v.str
}

type filterOp int

const (
	opContains filterOp = iota
	opEq
	opNe
	opGt
	opGe
	opLt
	opLe
)

// columnFilter is one parsed filter expression.
type columnFilter struct {
	col     Column
	op      filterOp
	operand string
	num     float64
}

// filterPrefixes are tried longest first so ">=" wins over ">".
var filterPrefixes = []struct {
	prefix string
	op     filterOp
}{
	{">=", opGe},
	{"<=", opLe},
	{"!=", opNe},
	{">", opGt},
	{"<", opLt},
	{"=", opEq},
}

// parseFilter reads expressions like ">= 100", "!= Loss" or "Mon". A bare
// value matches case-insensitively anywhere in the cell text.
func parseFilter(colID, expr string) (columnFilter, error) {
	col, ok := columnByID[colID]
	if !ok {
		return columnFilter{}, fmt.Errorf("unknown column %q", colID)
	}
	f := columnFilter{col: col, op: opContains}

	expr = strings.TrimSpace(expr)
	for _, p := range filterPrefixes {
		if rest, ok := strings.CutPrefix(expr, p.prefix); ok {
			f.op = p.op
			expr = strings.TrimSpace(rest)
			break
		}
	}
	f.operand = strings.Trim(expr, `"'`)

	if f.op != opContains && isNumericColumn(col) {
		v, err := strconv.ParseFloat(f.operand, 64)
		if err != nil {
			return columnFilter{}, fmt.Errorf("column %s: %q is not a number", colID, f.operand)
		}
		f.num = v
	}
	return f, nil
}

func isNumericColumn(c Column) bool {
	return c.value(journal.Entry{HasHour: true}).isNum
}

func (f columnFilter) match(e journal.Entry) bool {
	v := f.col.value(e)
	if f.op == opContains {
		return strings.Contains(strings.ToLower(v.str), strings.ToLower(f.operand))
	}
	if v.blank {
		return f.op == opNe
	}

	var cmp int
	if v.isNum {
		switch {
		case v.num < f.num:
			cmp = -1
		case v.num > f.num:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(v.str, f.operand)
	}

	switch f.op {
	case opEq:
		return cmp == 0
	case opNe:
		return cmp != 0
	case opGt:
		return cmp > 0
	case opGe:
		return cmp >= 0
	case opLt:
		return cmp < 0
	default:
		return cmp <= 0
	}
}

// compareCells orders blanks last, numbers numerically and text lexically.
func compareCells(a, b cell) int {
	switch {
	case a.blank && b.blank:
		return 0
	case a.blank:
		return 1
	case b.blank:
		return -1
	case a.isNum && b.isNum:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.str, b.str)
}
