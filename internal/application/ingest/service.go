// Package ingest descarga la historia de precios de cada instrumento y la
// persiste como un artefacto por instrumento.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/alejandrodnm/pairbot/internal/metrics"
	"github.com/alejandrodnm/pairbot/internal/ports"
)

// DefaultLookbackPeriod es el rango por defecto cuando no se indica inicio.
const DefaultLookbackPeriod = 365 * 24 * time.Hour

// Request describe una descarga.
type Request struct {
	Symbols  []string
	Start    time.Time
	End      time.Time
	Interval domain.Interval
}

// Report resume el resultado por instrumento. Los instrumentos vacíos o con
// error no hacen fallar la descarga.
type Report struct {
	Saved  map[string]int // símbolo → velas escritas
	Empty  []string
	Failed map[string]error
}

// Service orquesta provider → sink.
type Service struct {
	provider ports.HistoryProvider
	sink     ports.HistorySink
}

// NewService crea el servicio con sus dependencias inyectadas.
func NewService(provider ports.HistoryProvider, sink ports.HistorySink) *Service {
	return &Service{provider: provider, sink: sink}
}

// Normalize aplica los valores por defecto (último año, diario) y valida.
func (r Request) Normalize(now time.Time) (Request, error) {
	if len(r.Symbols) == 0 {
		return r, errors.New("ingest: no symbols requested")
	}
	if r.End.IsZero() {
		r.End = now
	}
	if r.Start.IsZero() {
		r.Start = r.End.Add(-DefaultLookbackPeriod)
	}
	if r.Interval == "" {
		r.Interval = domain.Interval1d
	}
	if _, err := domain.ParseInterval(string(r.Interval)); err != nil {
		return r, fmt.Errorf("ingest: %w", err)
	}
	if !r.End.After(r.Start) {
		return r, fmt.Errorf("ingest: end %s is not after start %s", r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	// Un rango más corto que una barra no puede devolver velas.
	if span := r.End.Sub(r.Start); span < r.Interval.Duration() {
		return r, fmt.Errorf("ingest: range %s is shorter than one %s bar", span, r.Interval)
	}
	return r, nil
}

// Run descarga cada símbolo secuencialmente. Solo devuelve error si la
// petición es inválida o el contexto se cancela.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	req, err := req.Normalize(time.Now().UTC())
	if err != nil {
		return Report{}, err
	}

	rep := Report{Saved: make(map[string]int), Failed: make(map[string]error)}
	for _, sym := range req.Symbols {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		slog.Info("fetching history",
			"symbol", sym,
			"start", req.Start.Format(time.DateOnly),
			"end", req.End.Format(time.DateOnly),
			"interval", req.Interval,
		)
		bars, err := s.provider.FetchHistory(ctx, sym, req.Start, req.End, req.Interval)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			slog.Error("fetch failed", "symbol", sym, "err", err)
			rep.Failed[sym] = err
			metrics.IngestTotal.WithLabelValues("failed").Inc()
			continue
		}
		if len(bars) == 0 {
			slog.Warn("no data returned", "symbol", sym)
			rep.Empty = append(rep.Empty, sym)
			metrics.IngestTotal.WithLabelValues("empty").Inc()
			continue
		}
		if err := s.sink.WriteHistory(ctx, sym, bars); err != nil {
			slog.Error("save failed", "symbol", sym, "err", err)
			rep.Failed[sym] = err
			metrics.IngestTotal.WithLabelValues("failed").Inc()
			continue
		}
		rep.Saved[sym] = len(bars)
		metrics.IngestTotal.WithLabelValues("saved").Inc()
		slog.Info("saved history", "symbol", sym, "bars", len(bars))
	}
	return rep, nil
}
