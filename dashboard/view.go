// Package dashboard computes and serves the interactive performance view.
package dashboard

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rustyeddy/tradeview/analysis"
	"github.com/rustyeddy/tradeview/journal"
)

// SortKey orders the trade table by one column.
type SortKey struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// ViewState is everything the user can change on the dashboard. Empty day
// and hour selections mean all. Pages are 1-based.
type ViewState struct {
	Days      []string          `json:"days"`
	Hours     []int             `json:"hours"`
	Filters   map[string]string `json:"filters"`
	Sort      []SortKey         `json:"sort"`
	PerfPage  int               `json:"perf_page"`
	TradePage int               `json:"trade_page"`
}

// ParseViewState reads a ViewState from query parameters:
//
//	day=Monday&day=Friday&hour=9&f.profit_usd=>100&sort=profit_usd:desc,date&perf_page=2
func ParseViewState(q url.Values) (ViewState, error) {
	s := ViewState{Filters: map[string]string{}}

	for _, d := range q["day"] {
		if d = strings.TrimSpace(d); d != "" {
			s.Days = append(s.Days, d)
		}
	}
	for _, h := range q["hour"] {
		if h = strings.TrimSpace(h); h == "" {
			continue
		}
		v, err := strconv.Atoi(h)
		if err != nil || v < 0 || v > 23 {
			return ViewState{}, fmt.Errorf("invalid hour %q", h)
		}
		s.Hours = append(s.Hours, v)
	}

	for key, vals := range q {
		col, ok := strings.CutPrefix(key, "f.")
		if !ok || len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			continue
		}
		if _, err := parseFilter(col, vals[0]); err != nil {
			return ViewState{}, err
		}
		s.Filters[col] = vals[0]
	}

	if raw := q.Get("sort"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			col, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
			if _, ok := columnByID[col]; !ok {
				return ViewState{}, fmt.Errorf("unknown sort column %q", col)
			}
			switch dir {
			case "", "asc":
				s.Sort = append(s.Sort, SortKey{Column: col})
			case "desc":
				s.Sort = append(s.Sort, SortKey{Column: col, Desc: true})
			default:
				return ViewState{}, fmt.Errorf("invalid sort direction %q", dir)
			}
		}
	}

	var err error
	if s.PerfPage, err = pageParam(q, "perf_page"); err != nil {
		return ViewState{}, err
	}
	if s.TradePage, err = pageParam(q, "trade_page"); err != nil {
		return ViewState{}, err
	}
	return s, nil
}

func pageParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 1, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

// Values encodes the state back into query parameters.
func (s ViewState) Values() url.Values {
	q := url.Values{}
	for _, d := range s.Days {
		q.Add("day", d)
	}
	for _, h := range s.Hours {
		q.Add("hour", strconv.Itoa(h))
	}
	for col, expr := range s.Filters {
		q.Set("f."+col, expr)
	}
	if len(s.Sort) > 0 {
		parts := make([]string, len(s.Sort))
		for i, k := range s.Sort {
			parts[i] = k.Column
			if k.Desc {
				parts[i] += ":desc"
			}
		}
		q.Set("sort", strings.Join(parts, ","))
	}
	if s.PerfPage > 1 {
		q.Set("perf_page", strconv.Itoa(s.PerfPage))
	}
	if s.TradePage > 1 {
		q.Set("trade_page", strconv.Itoa(s.TradePage))
	}
	return q
}

// Page is one screen of a paged table.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// paginate returns page (1-based, clamped) of items.
func paginate[T any](items []T, page, size int) Page[T] {
	p := Page[T]{Total: len(items), Pages: 1, Page: 1}
	if size < 1 {
		size = len(items)
	}
	if len(items) > 0 && size > 0 {
		p.Pages = (len(items) + size - 1) / size
	}
	p.Page = min(max(page, 1), p.Pages)

	start := min((p.Page-1)*size, len(items))
	end := min(start+size, len(items))
	p.Items = items[start:end]
	return p
}

// PerformanceRow is an aggregation row with the CSS classes for its
// profit cells.
type PerformanceRow struct {
	analysis.Row
	AvgClass   string `json:"avg_class"`
	TotalClass string `json:"total_class"`
}

func signClass(v float64) string {
	switch {
	case v > 0:
		return "pos"
	case v < 0:
		return "neg"
	}
	return ""
}

// View is the computed dashboard for one ViewState.
type View struct {
	State           ViewState              `json:"state"`
	Performance     Page[PerformanceRow]   `json:"performance"`
	Trades          Page[journal.Entry]    `json:"trades"`
	Visible         []journal.Entry        `json:"-"`
	Equity          []analysis.EquityPoint `json:"equity"`
	Chart           Chart                  `json:"-"`
	DayOptions      []string               `json:"day_options"`
	HourOptions     []int                  `json:"hour_options"`
	Excluded        int                    `json:"excluded"`
	StartingBalance float64                `json:"starting_balance"`
	Filtered        []analysis.Row         `json:"-"`
}

// Presenter holds the loaded dataset and its aggregation.
type Presenter struct {
	data      journal.Dataset
	table     analysis.Table
	perfSize  int
	tradeSize int
}

// NewPresenter aggregates ds by day and hour once; Compute reuses it.
func NewPresenter(ds journal.Dataset, perfSize, tradeSize int) *Presenter {
	return &Presenter{
		data:      ds,
		table:     analysis.Build(ds.Entries, analysis.ByDay),
		perfSize:  perfSize,
		tradeSize: tradeSize,
	}
}

// Dataset returns the loaded trades.
func (p *Presenter) Dataset() journal.Dataset { return p.data }

// Compute derives the full view for state. It is a pure function of the
// dataset and state.
func (p *Presenter) Compute(state ViewState) (View, error) {
	v := View{
		State:           state,
		StartingBalance: p.data.StartingBalance,
		Excluded:        p.table.Excluded,
	}

	v.Filtered = FilterPerformance(p.table.Rows, state.Days, state.Hours)
	rows := make([]PerformanceRow, len(v.Filtered))
	for i, r := range v.Filtered {
		rows[i] = PerformanceRow{Row: r, AvgClass: signClass(r.AvgProfit), TotalClass: signClass(r.TotalProfit)}
	}
	v.Performance = paginate(rows, state.PerfPage, p.perfSize)

	visible, err := VisibleTrades(p.data.Entries, state.Filters, state.Sort)
	if err != nil {
		return View{}, err
	}
	v.Visible = visible
	v.Trades = paginate(visible, state.TradePage, p.tradeSize)

	v.Equity = analysis.Curve(analysis.Trades(visible), p.data.StartingBalance)
	v.Chart = NewChart(v.Equity, p.data.StartingBalance, chartWidth, chartHeight)

	v.DayOptions, v.HourOptions = options(p.table.Rows)
	return v, nil
}

// FilterPerformance keeps rows whose group is in days and hour is in hours.
// An empty selection keeps everything.
func FilterPerformance(rows []analysis.Row, days []string, hours []int) []analysis.Row {
	out := make([]analysis.Row, 0, len(rows))
	for _, r := range rows {
		if len(days) > 0 && !slices.Contains(days, r.Group) {
			continue
		}
		if len(hours) > 0 && !slices.Contains(hours, r.Hour) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// VisibleTrades applies column filters then a stable multi-column sort. The
// input is not modified.
func VisibleTrades(entries []journal.Entry, filters map[string]string, keys []SortKey) ([]journal.Entry, error) {
	parsed := make([]columnFilter, 0, len(filters))
	for col, expr := range filters {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		f, err := parseFilter(col, expr)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, f)
	}

	out := make([]journal.Entry, 0, len(entries))
	for _, e := range entries {
		keep := true
		for _, f := range parsed {
			if !f.match(e) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}

	if len(keys) == 0 {
		return out, nil
	}
	cols := make([]Column, len(keys))
	for i, k := range keys {
		c, ok := columnByID[k.Column]
		if !ok {
			return nil, fmt.Errorf("unknown sort column %q", k.Column)
		}
		cols[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool {
		for n, k := range keys {
			c := compareCells(cols[n].value(out[i]), cols[n].value(out[j]))
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out, nil
}

// options lists the selectable days (Monday first) and hours present in the
// aggregation.
func options(rows []analysis.Row) ([]string, []int) {
	var days []string
	var hours []int
	for _, r := range rows {
		if !slices.Contains(days, r.Group) {
			days = append(days, r.Group)
		}
		if !slices.Contains(hours, r.Hour) {
			hours = append(hours, r.Hour)
		}
	}
	sort.Ints(hours)
	return days, hours
}
