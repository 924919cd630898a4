// Package analysis orquesta el pipeline completo: precios → tabla → escaneo
// de cointegración → señales por par → persistencia, notificación y export.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/alejandrodnm/pairbot/internal/engine"
	"github.com/alejandrodnm/pairbot/internal/metrics"
	"github.com/alejandrodnm/pairbot/internal/ports"
)

// Config contiene la configuración del pipeline.
type Config struct {
	Universe       []string // vacío = todos los instrumentos de la tabla
	Scan           engine.ScanOptions
	Workers        int // goroutines del escaneo (0 = NumCPU, 1 = secuencial)
	Lookback       int // ventana del z-score
	EntryThreshold float64
	ExitThreshold  float64
	Pairs          [][2]string   // pares explícitos (X, Y); vacío = pares del escaneo
	ExportPath     string        // xlsx de salida; vacío = sin export
	Interval       time.Duration // 0 = un solo ciclo
}

// Report es el resultado de un ciclo.
type Report struct {
	Scan    domain.ScanResult
	Signals []domain.SignalSeries
}

// Service es el orquestador del pipeline de análisis.
type Service struct {
	cfg      Config
	source   ports.PriceSource
	storage  ports.ScanStorage    // opcional
	notifier ports.Notifier       // opcional
	exporter ports.SignalExporter // opcional
}

// New crea el servicio con sus dependencias inyectadas. storage, notifier y
// exporter pueden ser nil.
func New(
	cfg Config,
	source ports.PriceSource,
	storage ports.ScanStorage,
	notifier ports.Notifier,
	exporter ports.SignalExporter,
) (*Service, error) {
	if err := engine.ValidateThresholds(cfg.EntryThreshold, cfg.ExitThreshold); err != nil {
		return nil, fmt.Errorf("analysis.New: %w", err)
	}
	if cfg.Lookback < 2 {
		return nil, fmt.Errorf("analysis.New: lookback must be >= 2, got %d", cfg.Lookback)
	}
	return &Service{
		cfg:      cfg,
		source:   source,
		storage:  storage,
		notifier: notifier,
		exporter: exporter,
	}, nil
}

// Run ejecuta ciclos hasta que el contexto se cancele. Con Interval == 0
// ejecuta un único ciclo y devuelve su error.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("analysis starting",
		"interval", s.cfg.Interval,
		"workers", s.cfg.Workers,
		"lookback", s.cfg.Lookback,
		"pvalue", s.cfg.Scan.PValueThreshold,
	)

	if _, err := s.RunOnce(ctx); err != nil {
		if s.cfg.Interval <= 0 {
			return err
		}
		slog.Error("analysis cycle failed", "err", err)
	}
	if s.cfg.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("analysis stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.Error("analysis cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo: carga, construye, escanea y genera
// señales. Los errores de storage, notifier y export se registran pero no
// interrumpen el ciclo.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	start := time.Now()

	sources, err := s.source.LoadSeries(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("analysis.RunOnce: load prices: %w", err)
	}
	session, err := engine.NewSession(sources)
	if err != nil {
		return Report{}, fmt.Errorf("analysis.RunOnce: build table: %w", err)
	}

	scan, err := session.Scan(ctx, s.cfg.Universe, s.cfg.Scan, s.cfg.Workers)
	if err != nil {
		return Report{}, fmt.Errorf("analysis.RunOnce: scan: %w", err)
	}
	metrics.ObserveScan(scan)

	if s.notifier != nil {
		if err := s.notifier.NotifyScan(ctx, scan); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	if s.storage != nil {
		if err := s.storage.SaveScan(ctx, scan); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	rep := Report{Scan: scan}
	explicit := len(s.cfg.Pairs) > 0
	for _, pair := range s.targets(session) {
		series, err := session.Signals(pair[0], pair[1], s.cfg.Lookback, s.cfg.EntryThreshold, s.cfg.ExitThreshold)
		if err != nil {
			if explicit {
				return rep, fmt.Errorf("analysis.RunOnce: signals %s: %w", domain.PairKey(pair[0], pair[1]), err)
			}
			slog.Warn("signals failed", "pair", domain.PairKey(pair[0], pair[1]), "err", err)
			continue
		}
		rep.Signals = append(rep.Signals, series)
		metrics.ObservePosition(series)

		if s.notifier != nil {
			if err := s.notifier.NotifySignals(ctx, series); err != nil {
				slog.Warn("notifier error", "err", err)
			}
		}
	}

	if s.exporter != nil && s.cfg.ExportPath != "" {
		if err := s.exporter.ExportSignals(s.cfg.ExportPath, scan, rep.Signals); err != nil {
			slog.Warn("export error", "path", s.cfg.ExportPath, "err", err)
		} else {
			slog.Info("signals exported", "path", s.cfg.ExportPath, "pairs", len(rep.Signals))
		}
	}

	slog.Info("analysis cycle complete",
		"symbols", session.Prices().Len(),
		"tested", scan.Tested,
		"pairs", len(scan.Pairs),
		"signals", len(rep.Signals),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return rep, nil
}

// targets devuelve los pares para los que se generan señales: los explícitos
// de la config o, si no hay, los cointegrados del último escaneo.
func (s *Service) targets(session *engine.Session) [][2]string {
	if len(s.cfg.Pairs) > 0 {
		return s.cfg.Pairs
	}
	pairs := session.CointegratedPairs()
	out := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, [2]string{p.X, p.Y})
	}
	return out
}
