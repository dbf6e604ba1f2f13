package analysis

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/tradeview/journal"
)

// Workbook sheet names.
const (
	PerformanceSheet = "Performance"
	TradesSheet      = "Trades"
)

var (
	performanceHeader = []any{"Group", "Hour", "Label", "Avg Profit", "Total Profit", "Trades", "Win Rate"}
	tradesHeader      = []any{"Date", "Time", "Day", "Hour", "Type", "Contracts", "Profit USD", "Cumulative Profit", "Equity", "Session", "Win/Loss"}
)

// Built-in excelize number formats.
const (
	fmtMoney   = 4  // #,##0.00
	fmtPercent = 10 // 0.00%
)

type workbookStyles struct {
	header, money, pos, neg, percent int
}

// WriteWorkbook writes the aggregation table and the trade list to w as an
// .xlsx workbook. Profit cells are green when positive and red when negative.
func WriteWorkbook(w io.Writer, t Table, entries []journal.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", PerformanceSheet); err != nil {
		return err
	}
	if err := writePerformance(f, styles, t); err != nil {
		return fmt.Errorf("performance sheet: %w", err)
	}

	if _, err := f.NewSheet(TradesSheet); err != nil {
		return err
	}
	if err := writeTrades(f, styles, entries); err != nil {
		return fmt.Errorf("trades sheet: %w", err)
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: fmtMoney}); err != nil {
		return s, err
	}
	if s.pos, err = f.NewStyle(&excelize.Style{
		NumFmt: fmtMoney,
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	}); err != nil {
		return s, err
	}
	if s.neg, err = f.NewStyle(&excelize.Style{
		NumFmt: fmtMoney,
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
	}); err != nil {
		return s, err
	}
	if s.percent, err = f.NewStyle(&excelize.Style{NumFmt: fmtPercent}); err != nil {
		return s, err
	}
	return s, nil
}

func writePerformance(f *excelize.File, s workbookStyles, t Table) error {
	sheet := PerformanceSheet
	header := append([]any(nil), performanceHeader...)
	header[0] = groupTitle(t.Grouping)
	if err := writeHeader(f, sheet, s.header, header); err != nil {
		return err
	}

	for i, r := range t.Rows {
		row := i + 2
		if err := setRow(f, sheet, row, []any{
			r.Group, r.Hour, r.Label, r.AvgProfit, r.TotalProfit, r.TradeCount, r.WinRate,
		}); err != nil {
			return err
		}
		if err := setSigned(f, sheet, s, 4, row, r.AvgProfit); err != nil {
			return err
		}
		if err := setSigned(f, sheet, s, 5, row, r.TotalProfit); err != nil {
			return err
		}
		if err := setStyle(f, sheet, s.percent, 7, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "G", 14)
}

func writeTrades(f *excelize.File, s workbookStyles, entries []journal.Entry) error {
	sheet := TradesSheet
	if err := writeHeader(f, sheet, s.header, tradesHeader); err != nil {
		return err
	}

	for i, e := range entries {
		row := i + 2
		var hour any
		if e.HasHour {
			hour = e.HourOfDay
		}
		if err := setRow(f, sheet, row, []any{
			e.Date, e.Time, e.DayName, hour, e.Type, e.Contracts, e.ProfitUSD,
			e.CumulativeProfit, e.Equity, string(e.MarketSession), string(e.WinLoss),
		}); err != nil {
			return err
		}
		if err := setSigned(f, sheet, s, 7, row, e.ProfitUSD); err != nil {
			return err
		}
		if err := setStyle(f, sheet, s.money, 8, row); err != nil {
			return err
		}
		if err := setStyle(f, sheet, s.money, 9, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "K", 14)
}

func writeHeader(f *excelize.File, sheet string, style int, header []any) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func setSigned(f *excelize.File, sheet string, s workbookStyles, col, row int, v float64) error {
	style := s.money
	switch {
	case v > 0:
		style = s.pos
	case v < 0:
		style = s.neg
	}
	return setStyle(f, sheet, style, col, row)
}

func setStyle(f *excelize.File, sheet string, style, col, row int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func groupTitle(g Grouping) string {
	switch g {
	case ByDate:
		return "Date"
	case ByWeekday:
		return "Weekday"
	case ByWeekNum:
		return "Week"
	case ByType:
		return "Type"
	default:
		return "Day"
	}
}
