package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/pairbot/config"
	"github.com/alejandrodnm/pairbot/internal/adapters/csvdir"
	"github.com/alejandrodnm/pairbot/internal/adapters/yahoo"
	"github.com/alejandrodnm/pairbot/internal/application/ingest"
	"github.com/alejandrodnm/pairbot/internal/domain"
)

// runFetch descarga la historia de cada símbolo a cfg.Data.Dir.
func runFetch(ctx context.Context, cfg *config.Config, start, end string) error {
	if len(cfg.Data.Symbols) == 0 {
		return errors.New("no symbols: use -tickers or data.symbols in config")
	}

	req := ingest.Request{Symbols: cfg.Data.Symbols, Interval: domain.Interval(cfg.Fetch.Interval)}
	var err error
	if req.Start, err = parseDate(start); err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	if req.End, err = parseDate(end); err != nil {
		return fmt.Errorf("-end: %w", err)
	}

	slog.Info("=== FETCH MODE ===", "symbols", len(req.Symbols), "dir", cfg.Data.Dir, "interval", req.Interval)

	svc := ingest.NewService(yahoo.NewClient(cfg.Fetch.BaseURL), csvdir.NewWriter(cfg.Data.Dir))
	rep, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	slog.Info("fetch complete", "saved", len(rep.Saved), "empty", len(rep.Empty), "failed", len(rep.Failed))
	if len(rep.Empty) > 0 {
		slog.Warn("symbols without data", "symbols", strings.Join(rep.Empty, ","))
	}
	if len(rep.Saved) == 0 {
		return errors.New("no symbol could be downloaded")
	}
	return nil
}

// parseDate acepta YYYY-MM-DD; vacío = zero time (valor por defecto del servicio).
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// parsePairs convierte "X,Y;Z,W" en pares ordenados (X, Y).
func parsePairs(s string) ([][2]string, error) {
	var out [][2]string
	for _, item := range splitList(s, ";") {
		legs := splitList(item, ",")
		if len(legs) != 2 {
			return nil, fmt.Errorf("pair %q: want X,Y", item)
		}
		out = append(out, [2]string{legs[0], legs[1]})
	}
	return out, nil
}
