// Package ingest locates daily backtest exports, normalizes their rows and
// hands them to the trade store.
package ingest

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradeview/journal"
	"github.com/rustyeddy/tradeview/pkg/id"
)

// TradeWriter persists normalized trades.
type TradeWriter interface {
	Write(ctx context.Context, trades []journal.Trade) (journal.WriteReport, error)
}

// RunRecorder stores the audit row of an ingestion run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run journal.Run) error
}

// Pipeline runs one ingestion: locate, normalize, write, record.
type Pipeline struct {
	locator    *Locator
	normalizer *Normalizer
	writer     TradeWriter
	runs       RunRecorder
	mode       string
	log        zerolog.Logger
	now        func() time.Time
}

// NewPipeline wires an ingestion run. runs may be nil.
func NewPipeline(l *Locator, n *Normalizer, w TradeWriter, runs RunRecorder, mode string, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		locator:    l,
		normalizer: n,
		writer:     w,
		runs:       runs,
		mode:       mode,
		log:        log.With().Str("component", "ingest").Logger(),
		now:        time.Now,
	}
}

// Outcome describes a finished ingestion run.
type Outcome struct {
	Run     journal.Run
	Path    string
	Widened bool
	Report  journal.WriteReport
}

// Run ingests path, or the newest export found by the locator when path is
// empty. The audit row is recorded whether or not the run succeeds.
func (p *Pipeline) Run(ctx context.Context, path string) (Outcome, error) {
	started := p.now()
	out := Outcome{
		Run: journal.Run{RunID: id.At(started), Mode: p.mode, StartedAt: started.UTC()},
	}
	log := p.log.With().Str("run_id", out.Run.RunID).Logger()

	err := p.run(ctx, log, path, &out)

	out.Run.FinishedAt = p.now().UTC()
	if err != nil {
		out.Run.Error = err.Error()
	}
	if p.runs != nil && out.Run.SourceFile != "" {
		if rerr := p.runs.RecordRun(ctx, out.Run); rerr != nil {
			log.Error().Err(rerr).Msg("record ingest run")
		}
	}
	return out, err
}

func (p *Pipeline) run(ctx context.Context, log zerolog.Logger, path string, out *Outcome) error {
	if path == "" {
		found, widened, err := p.locator.Find()
		if err != nil {
			log.Error().Err(err).Str("dir", p.locator.Dir).Msg("no export found")
			return err
		}
		if widened {
			log.Warn().Int("lookback_days", p.locator.Lookback).Msg("no export for today, used lookback window")
		}
		path, out.Widened = found, widened
	}
	out.Path = path
	out.Run.SourceFile = filepath.Base(path)
	log = log.With().Str("file", out.Run.SourceFile).Logger()
	log.Info().Msg("processing export")

	frame, err := ReadFile(path)
	if err != nil {
		log.Error().Err(err).Msg("read export")
		return err
	}

	res, err := p.normalizer.Normalize(frame)
	if err != nil {
		log.Error().Err(err).Msg("normalize export")
		return err
	}
	out.Run.RowsRead = res.RowsRead
	out.Run.ExitRowsRemoved = res.ExitRowsRemoved
	out.Run.IncompleteDropped = res.IncompleteDropped
	log.Info().
		Int("rows", res.RowsRead).
		Int("exit_rows_removed", res.ExitRowsRemoved).
		Int("incomplete_dropped", res.IncompleteDropped).
		Int("trades", len(res.Trades)).
		Msg("normalized export")

	rep, err := p.writer.Write(ctx, res.Trades)
	out.Report = rep
	out.Run.Inserted, out.Run.Skipped, out.Run.Failed = rep.Inserted, rep.Skipped, rep.Failed
	if err != nil {
		log.Error().Err(err).Msg("write trades")
		return err
	}
	for _, f := range rep.Failures {
		log.Warn().Err(f.Err).Str("date", f.Trade.Date).Str("time", f.Trade.Time).Msg("trade rejected by store")
	}
	log.Info().Int("inserted", rep.Inserted).Int("skipped", rep.Skipped).Int("failed", rep.Failed).Msg("ingest complete")
	return nil
}
