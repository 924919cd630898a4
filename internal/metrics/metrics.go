package metrics

import (
	"net/http"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pairbot_pairs_total", Help: "Candidate pairs evaluated by outcome"},
		[]string{"outcome"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "pairbot_scan_duration_seconds", Help: "Wall time of a cointegration scan", Buckets: prometheus.DefBuckets},
	)
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pairbot_ingest_symbols_total", Help: "Instruments processed by the downloader"},
		[]string{"status"},
	)
	Position = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "pairbot_position", Help: "Latest position per pair (-1 short spread, 0 flat, 1 long spread)"},
		[]string{"pair"},
	)
)

func init() {
	prometheus.MustRegister(PairsTotal, ScanDuration, IngestTotal, Position)
}

// ObserveScan records the outcome counts and duration of one scan.
func ObserveScan(r domain.ScanResult) {
	accepted := len(r.Pairs)
	PairsTotal.WithLabelValues("accepted").Add(float64(accepted))
	PairsTotal.WithLabelValues("rejected").Add(float64(r.Tested - r.Failed - accepted))
	PairsTotal.WithLabelValues("failed").Add(float64(r.Failed))
	PairsTotal.WithLabelValues("skipped").Add(float64(r.Skipped))
	ScanDuration.Observe(r.Duration.Seconds())
}

// ObservePosition publishes the last position of a signal series.
func ObservePosition(s domain.SignalSeries) {
	if last, ok := s.Last(); ok {
		Position.WithLabelValues(domain.PairKey(s.X, s.Y)).Set(float64(last.Position))
	}
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
