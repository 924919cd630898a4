package engine

// concurrent.go: worker pool para escanear universos grandes.
//
// Cada par se evalúa de forma independiente sobre la tabla inmutable, así que
// los workers no comparten estado mutable. Los resultados se recolocan por
// índice para devolver exactamente el mismo orden que Scan.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// ScanConcurrent is Scan with the pair evaluations spread over a worker pool.
// If workers <= 0 it uses runtime.NumCPU(). The result is identical to Scan's
// except for ID, timing fields, and when ctx is cancelled midway, in which
// case ctx.Err() is returned.
func ScanConcurrent(ctx context.Context, table *domain.PriceTable, universe []string, opts ScanOptions, workers int) (domain.ScanResult, error) {
	res, cands, err := prepareScan(table, universe, opts)
	if err != nil {
		return domain.ScanResult{}, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type work struct {
		idx int
		c   candidate
	}

	workCh := make(chan work)
	results := make([]pairResult, len(cands))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				results[w.idx] = evaluatePair(table, w.c, opts)
			}
		}()
	}

	var cancelled error
feed:
	for i, c := range cands {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case workCh <- work{idx: i, c: c}:
		}
	}
	close(workCh)
	wg.Wait()

	if cancelled != nil {
		return domain.ScanResult{}, cancelled
	}

	slog.Debug("concurrent scan complete",
		"pairs", len(cands),
		"workers", workers,
	)
	return finishScan(res, results), nil
}
