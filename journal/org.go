package journal

import (
	"fmt"
	"strings"
)

// FormatTradeOrg renders a Trade as an Org-mode block for a trading journal.
// Structured facts go in the PROPERTIES drawer; the narrative headings are
// left for the reader to fill in.
func FormatTradeOrg(t Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s %s %s (%s)\n", t.Date, t.Time, t.Symbol, t.Type, t.WinLoss)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":TYPE: %s\n", t.Type)
	fmt.Fprintf(&b, ":DATE: %s\n", t.Date)
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time)
	fmt.Fprintf(&b, ":WEEKDAY: %s\n", t.Weekday)
	fmt.Fprintf(&b, ":SESSION: %s\n", t.MarketSession)
	fmt.Fprintf(&b, ":CONTRACTS: %d\n", t.Contracts)
	fmt.Fprintf(&b, ":MARGIN: %.2f\n", t.Margin)
	fmt.Fprintf(&b, ":COMMISSION: %.2f\n", t.Commission)
	fmt.Fprintf(&b, ":PROFIT_USD: %.2f\n", t.ProfitUSD)
	fmt.Fprintf(&b, ":STRATEGY: %s\n", t.Strategy)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Setup\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}
