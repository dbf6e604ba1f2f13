package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradeview/analysis"
	"github.com/rustyeddy/tradeview/journal"
)

//go:embed templates/*.html
var templateFS embed.FS

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server serves the dashboard page and its JSON API.
type Server struct {
	presenter *Presenter
	log       zerolog.Logger
	metrics   *Metrics
	registry  *prometheus.Registry
	tmpl      *template.Template
	router    chi.Router
}

// NewServer builds the router. Metrics are registered on a registry owned by
// the server and exposed at /metrics.
func NewServer(p *Presenter, log zerolog.Logger) (*Server, error) {
	tmpl, err := template.New("dashboard.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		presenter: p,
		log:       log.With().Str("component", "dashboard").Logger(),
		metrics:   NewMetrics(reg),
		registry:  reg,
		tmpl:      tmpl,
	}
	s.metrics.trades.Set(float64(len(p.Dataset().Entries)))
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware(s.log, time.Second))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/export/performance.xlsx", s.handleExport)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/performance", s.handlePerformance)
		r.Get("/trades", s.handleTrades)
		r.Post("/equity", s.handleEquity)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("dashboard listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info().Msg("dashboard shutting down")
	return srv.Shutdown(shutdownCtx)
}

type indexPage struct {
	View
	Columns  []Column
	Weekdays []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, ok := s.compute(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.tmpl.ExecuteTemplate(w, "dashboard.html", indexPage{
		View:     view,
		Columns:  TradeColumns,
		Weekdays: analysis.WeekdayOrder,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("render dashboard")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "ok",
		"trades": len(s.presenter.Dataset().Entries),
	})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	view, ok := s.compute(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]any{
		"page":         view.Performance,
		"day_options":  view.DayOptions,
		"hour_options": view.HourOptions,
		"excluded":     view.Excluded,
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	view, ok := s.compute(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]any{
		"page":             view.Trades,
		"equity":           emptyIfNil(view.Equity),
		"starting_balance": view.StartingBalance,
	})
}

// handleEquity recomputes the equity curve from rows posted by the client,
// typically the trade table's visible rows. Rows lacking a date or profit
// produce an empty curve rather than an error.
func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	var rows []map[string]any
	if err := render.DecodeJSON(r.Body, &rows); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "body must be a JSON array of rows"})
		return
	}

	start := s.presenter.Dataset().StartingBalance
	trades, err := tradesFromRows(rows)
	if err != nil {
		s.log.Error().Err(err).Int("rows", len(rows)).Msg("equity rows malformed")
		trades = nil
	}

	render.JSON(w, r, map[string]any{
		"points":           emptyIfNil(analysis.Curve(trades, start)),
		"starting_balance": start,
		"baseline_label":   BaselineLabel,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	view, ok := s.compute(w, r)
	if !ok {
		return
	}
	table := analysis.Table{Grouping: analysis.ByDay, Rows: view.Filtered, Excluded: view.Excluded}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="performance.xlsx"`)
	if err := analysis.WriteWorkbook(w, table, view.Visible); err != nil {
		s.log.Error().Err(err).Msg("write workbook")
	}
}

func (s *Server) compute(w http.ResponseWriter, r *http.Request) (View, bool) {
	state, err := ParseViewState(r.URL.Query())
	if err == nil {
		var view View
		if view, err = s.presenter.Compute(state); err == nil {
			return view, true
		}
	}
	s.log.Debug().Err(err).Str("query", r.URL.RawQuery).Msg("bad view state")
	http.Error(w, err.Error(), http.StatusBadRequest)
	return View{}, false
}

// tradesFromRows reads the date, time and profit_usd fields of table rows.
func tradesFromRows(rows []map[string]any) ([]journal.Trade, error) {
	out := make([]journal.Trade, 0, len(rows))
	for i, row := range rows {
		date, _ := row["date"].(string)
		if date == "" {
			return nil, fmt.Errorf("row %d: missing date", i)
		}
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		var profit float64
		switch v := row["profit_usd"].(type) {
		case float64:
			profit = v
		case string:
			p, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
				return nil, fmt.Errorf("row %d: profit_usd %q", i, v)
			}
			profit = p
		default:
			return nil, fmt.Errorf("row %d: missing profit_usd", i)
		}

		clock, _ := row["time"].(string)
		out = append(out, journal.Trade{Date: date, Time: clock, ProfitUSD: profit})
	}
	return out, nil
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var templateFuncs = template.FuncMap{
	"money": money,
	"pct": func(v float64) string {
		return strconv.FormatFloat(v*100, 'f', 0, 64) + "%"
	},
	"cell": func(c Column, e journal.Entry) string { return c.Display(e) },
	"hasDay": func(s ViewState, d string) bool {
		return slices.Contains(s.Days, d)
	},
	"hasHour": func(s ViewState, h int) bool {
		return slices.Contains(s.Hours, h)
	},
	"filterValue": func(s ViewState, col string) string {
		return s.Filters[col]
	},
	"pageLink": func(s ViewState, table string, n int) string {
		if table == "perf" {
			s.PerfPage = n
		} else {
			s.TradePage = n
		}
		return "?" + s.Values().Encode()
	},
	"sortLink": func(s ViewState, col string) string {
		s.Sort = toggleSort(s.Sort, col)
		s.TradePage = 1
		return "?" + s.Values().Encode()
	},
	"sortMark": func(s ViewState, col string) string {
		for _, k := range s.Sort {
			if k.Column == col {
				if k.Desc {
					return "▼"
				}
				return "▲"
			}
		}
		return ""
	},
	"add": func(a, b int) int { return a + b },
}

// toggleSort moves col to the front of the sort keys, flipping its
// direction when it is already the primary key. At most three keys are kept.
func toggleSort(keys []SortKey, col string) []SortKey {
	next := SortKey{Column: col}
	if len(keys) > 0 && keys[0].Column == col {
		next.Desc = !keys[0].Desc
	}
	out := []SortKey{next}
	for _, k := range keys {
		if k.Column != col && len(out) < 3 {
			out = append(out, k)
		}
	}
	return out
}
