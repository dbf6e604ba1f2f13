package dashboard

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeview/analysis"
)

const (
	chartWidth  = 960
	chartHeight = 320

	padLeft   = 70
	padRight  = 20
	padTop    = 20
	padBottom = 30
)

// BaselineLabel captions the starting balance reference line.
const BaselineLabel = "Initial Capital"

// AxisLabel is a tick caption placed at X, Y.
type AxisLabel struct {
	X, Y float64
	Text string
}

// Chart is the geometry of the equity line, ready for an SVG template.
type Chart struct {
	Width, Height float64
	Path          string
	Markers       []AxisLabel
	BaselineY     float64
	BaselineLabel string
	PlotLeft      float64
	PlotRight     float64
	YLabels       []AxisLabel
	XLabels       []AxisLabel
	Empty         bool
}

// NewChart scales points into a width x height canvas. The y range always
// includes the starting balance so the reference line is on the chart. No
// points yields an empty chart.
func NewChart(points []analysis.EquityPoint, startingBalance float64, width, height float64) Chart {
	c := Chart{
		Width:         width,
		Height:        height,
		BaselineLabel: BaselineLabel,
		PlotLeft:      padLeft,
		PlotRight:     width - padRight,
	}
	if len(points) == 0 {
		c.Empty = true
		return c
	}

	lo, hi := startingBalance, startingBalance
	for _, p := range points {
		lo = min(lo, p.Equity)
		hi = max(hi, p.Equity)
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}

	plotW := width - padLeft - padRight
	plotH := height - padTop - padBottom
	x := func(i int) float64 {
		if len(points) == 1 {
			return padLeft + plotW/2
		}
		return padLeft + plotW*float64(i)/float64(len(points)-1)
	}
	y := func(v float64) float64 {
		return padTop + plotH*(hi-v)/(hi-lo)
	}

	var b strings.Builder
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&b, "%s%.1f,%.1f ", cmd, x(i), y(p.Equity))
		c.Markers = append(c.Markers, AxisLabel{
			X:    x(i),
			Y:    y(p.Equity),
			Text: fmt.Sprintf("%s %s: %s", p.Date, p.Time, money(p.Equity)),
		})
	}
	c.Path = strings.TrimSpace(b.String())
	c.BaselineY = y(startingBalance)

	c.YLabels = []AxisLabel{
		{X: padLeft - 6, Y: y(hi), Text: money(hi)},
		{X: padLeft - 6, Y: y(lo), Text: money(lo)},
	}
	c.XLabels = []AxisLabel{{X: x(0), Y: height - 8, Text: points[0].Date}}
	if n := len(points) - 1; n > 0 {
		c.XLabels = append(c.XLabels, AxisLabel{X: x(n), Y: height - 8, Text: points[n].Date})
	}
	return c
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
