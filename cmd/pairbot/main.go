package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alejandrodnm/pairbot/config"
	"github.com/alejandrodnm/pairbot/internal/adapters/csvdir"
	"github.com/alejandrodnm/pairbot/internal/adapters/export"
	"github.com/alejandrodnm/pairbot/internal/adapters/notify"
	"github.com/alejandrodnm/pairbot/internal/adapters/storage"
	"github.com/alejandrodnm/pairbot/internal/application/analysis"
	"github.com/alejandrodnm/pairbot/internal/engine"
	"github.com/alejandrodnm/pairbot/internal/metrics"
	"github.com/alejandrodnm/pairbot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	dataDir := flag.String("data", "", "directory with one <SYMBOL>.csv per instrument (overrides config)")
	fetch := flag.Bool("fetch", false, "download price history instead of analysing")
	tickers := flag.String("tickers", "", "comma-separated symbols (default: config data.symbols)")
	start := flag.String("start", "", "fetch start date YYYY-MM-DD (default: one year ago)")
	end := flag.String("end", "", "fetch end date YYYY-MM-DD (default: today)")
	interval := flag.String("interval", "", "fetch interval: 1m|5m|15m|1h|1d (overrides config)")
	pair := flag.String("pair", "", "generate signals only for X,Y (repeat with ';' for several)")
	exportPath := flag.String("export", "", "write scan + signals to this .xlsx file")
	noStore := flag.Bool("no-store", false, "do not persist scan results")
	history := flag.Bool("history", false, "print pairs found in previous scans and exit")
	watch := flag.Duration("watch", 0, "re-run the analysis every interval (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, flagSet("config"))
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *interval != "" {
		cfg.Fetch.Interval = *interval
	}
	if *tickers != "" {
		cfg.Data.Symbols = splitList(*tickers, ",")
	}
	if *watch > 0 {
		cfg.Engine.WatchSeconds = int(watch.Seconds())
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr)
		defer srv.Close()
		slog.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}

	switch {
	case *fetch:
		if err := runFetch(ctx, cfg, *start, *end); err != nil {
			slog.Error("fetch failed", "err", err)
			os.Exit(1)
		}
		return
	case *history:
		if err := runHistory(ctx, cfg, *table); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("pairbot starting",
		"config", *configPath,
		"data", cfg.Data.Dir,
		"lookback", cfg.Engine.Lookback,
		"pvalue", cfg.Engine.PValueThreshold,
		"entry", cfg.Engine.EntryThreshold,
		"exit", cfg.Engine.ExitThreshold,
		"watch", cfg.WatchInterval(),
	)

	var store ports.ScanStorage
	if !*noStore {
		s, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	var exporter ports.SignalExporter
	if *exportPath != "" {
		exporter = export.NewXLSX()
	}

	pairs, err := parsePairs(*pair)
	if err != nil {
		slog.Error("invalid -pair", "err", err)
		os.Exit(2)
	}

	svc, err := analysis.New(analysis.Config{
		Scan: engine.ScanOptions{
			PValueThreshold: cfg.Engine.PValueThreshold,
			MinWindow:       cfg.Engine.Lookback,
		},
		Workers:        cfg.Engine.Workers,
		Lookback:       cfg.Engine.Lookback,
		EntryThreshold: cfg.Engine.EntryThreshold,
		ExitThreshold:  cfg.Engine.ExitThreshold,
		Pairs:          pairs,
		ExportPath:     *exportPath,
		Interval:       cfg.WatchInterval(),
	},
		csvdir.NewSource(cfg.Data.Dir, cfg.Data.Symbols...),
		store,
		notify.NewConsole(*table),
		exporter,
	)
	if err != nil {
		slog.Error("invalid engine config", "err", err)
		os.Exit(1)
	}

	if err := svc.Run(ctx); err != nil {
		slog.Error("analysis exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("pairbot stopped cleanly")
}

// loadConfig exige el archivo si se pasó -config; con la ruta por defecto
// arranca con la configuración por defecto cuando no existe.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if explicit {
		return config.Load(path)
	}
	cfg, found, err := config.LoadOrDefault(path)
	if err == nil && !found {
		slog.Warn("config file not found, using defaults", "path", path)
	}
	return cfg, err
}

// flagSet indica si el flag se pasó en la línea de comandos.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func runHistory(ctx context.Context, cfg *config.Config, table bool) error {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.GetPairStats(ctx)
	if err != nil {
		return err
	}
	console := notify.NewConsole(table)
	console.PrintPairStats(stats)

	if table {
		now := time.Now().UTC()
		scans, err := store.GetHistory(ctx, now.AddDate(0, 0, -7), now)
		if err != nil {
			return err
		}
		for _, s := range scans {
			if err := console.NotifyScan(ctx, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
