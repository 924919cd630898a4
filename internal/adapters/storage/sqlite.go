package storage

// sqlite.go: histórico de escaneos.
//
// Estrategia:
//   - `scans`: resumen por escaneo (universo, umbral, conteos). Siempre 1 fila.
//   - `scan_pairs`: los pares aceptados en cada escaneo, con su p-value y hedge ratio.
//   - `pair_stats`: UNA fila por par (UPSERT) con first/last seen, veces encontrado
//     y el mejor p-value. Es lo que se consulta para ver pares recurrentes.
//   - Los timestamps se guardan como unix millis (INTEGER) para comparar sin parsear.
//   - Prune automático al arrancar: scans > 90d.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
    id               TEXT PRIMARY KEY,
    started_at       INTEGER NOT NULL,
    duration_ms      INTEGER NOT NULL DEFAULT 0,
    universe         TEXT    NOT NULL,
    pvalue_threshold REAL    NOT NULL,
    min_window       INTEGER NOT NULL,
    tested           INTEGER NOT NULL DEFAULT 0,
    skipped          INTEGER NOT NULL DEFAULT 0,
    failed           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scan_pairs (
    scan_id      TEXT    NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
    seq          INTEGER NOT NULL,
    x            TEXT    NOT NULL,
    y            TEXT    NOT NULL,
    pvalue       REAL    NOT NULL,
    adf_stat     REAL    NOT NULL,
    used_lag     INTEGER NOT NULL,
    hedge_ratio  REAL    NOT NULL,
    intercept    REAL    NOT NULL,
    observations INTEGER NOT NULL,
    PRIMARY KEY (scan_id, seq)
);

-- Una fila por par, sin duplicados
CREATE TABLE IF NOT EXISTS pair_stats (
    x           TEXT    NOT NULL,
    y           TEXT    NOT NULL,
    first_seen  INTEGER NOT NULL,
    last_seen   INTEGER NOT NULL,
    times_found INTEGER NOT NULL DEFAULT 0,
    best_pvalue REAL    NOT NULL,
    last_pvalue REAL    NOT NULL,
    last_hedge  REAL    NOT NULL,
    PRIMARY KEY (x, y)
);

CREATE INDEX IF NOT EXISTS idx_scans_at     ON scans(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_pairs_scan   ON scan_pairs(scan_id);
CREATE INDEX IF NOT EXISTS idx_stats_last   ON pair_stats(last_seen DESC);
`

const retentionScans = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.ScanStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia escaneos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveScan persiste el resumen, los pares aceptados y actualiza pair_stats,
// todo en una transacción.
func (s *SQLiteStorage) SaveScan(ctx context.Context, r domain.ScanResult) error {
	if r.ID == "" {
		return fmt.Errorf("storage.SaveScan: scan without id")
	}
	startedAt := r.StartedAt.UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scans (id, started_at, duration_ms, universe, pvalue_threshold, min_window, tested, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, startedAt, r.Duration.Milliseconds(), strings.Join(r.Universe, ","),
		r.PValueThreshold, r.MinWindow, r.Tested, r.Skipped, r.Failed,
	); err != nil {
		return fmt.Errorf("storage.SaveScan: insert scan: %w", err)
	}

	if len(r.Pairs) > 0 {
		pairStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO scan_pairs
				(scan_id, seq, x, y, pvalue, adf_stat, used_lag, hedge_ratio, intercept, observations)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("storage.SaveScan: prepare pairs: %w", err)
		}
		defer pairStmt.Close()

		statStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO pair_stats (x, y, first_seen, last_seen, times_found, best_pvalue, last_pvalue, last_hedge)
			VALUES (?, ?, ?, ?, 1, ?, ?, ?)
			ON CONFLICT(x, y) DO UPDATE SET
				last_seen   = MAX(last_seen, excluded.last_seen),
				times_found = times_found + 1,
				best_pvalue = MIN(best_pvalue, excluded.best_pvalue),
				last_pvalue = excluded.last_pvalue,
				last_hedge  = excluded.last_hedge`)
		if err != nil {
			return fmt.Errorf("storage.SaveScan: prepare stats: %w", err)
		}
		defer statStmt.Close()

		for i, p := range r.Pairs {
			if _, err := pairStmt.ExecContext(ctx,
				r.ID, i, p.X, p.Y, p.PValue, p.ADFStat, p.UsedLag, p.HedgeRatio, p.Intercept, p.Observations,
			); err != nil {
				return fmt.Errorf("storage.SaveScan: insert pair %s: %w", p.Key(), err)
			}
			if _, err := statStmt.ExecContext(ctx,
				p.X, p.Y, startedAt, startedAt, p.PValue, p.PValue, p.HedgeRatio,
			); err != nil {
				return fmt.Errorf("storage.SaveScan: upsert stats %s: %w", p.Key(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveScan: commit: %w", err)
	}
	return nil
}

// GetHistory devuelve los escaneos iniciados en [from, to], más recientes primero,
// cada uno con sus pares en el orden original.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.ScanResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, universe, pvalue_threshold, min_window, tested, skipped, failed
		FROM scans
		WHERE started_at BETWEEN ? AND ?
		ORDER BY started_at DESC
	`, from.UTC().UnixMilli(), to.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}

	var scans []domain.ScanResult
	for rows.Next() {
		var r domain.ScanResult
		var startedAt, durationMs int64
		var universe string
		if err := rows.Scan(&r.ID, &startedAt, &durationMs, &universe,
			&r.PValueThreshold, &r.MinWindow, &r.Tested, &r.Skipped, &r.Failed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedAt).UTC()
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if universe != "" {
			r.Universe = strings.Split(universe, ",")
		}
		scans = append(scans, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("storage.GetHistory: rows: %w", err)
	}
	rows.Close()

	// Con MaxOpenConns=1 los pares se leen después de cerrar el cursor de scans.
	for i := range scans {
		pairs, err := s.pairsOf(ctx, scans[i].ID)
		if err != nil {
			return nil, err
		}
		scans[i].Pairs = pairs
	}
	return scans, nil
}

// GetPairStats devuelve los pares encontrados alguna vez, los más recientes primero.
func (s *SQLiteStorage) GetPairStats(ctx context.Context) ([]domain.PairStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, first_seen, last_seen, times_found, best_pvalue, last_pvalue, last_hedge
		FROM pair_stats
		ORDER BY last_seen DESC, times_found DESC, x, y
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetPairStats: query: %w", err)
	}
	defer rows.Close()

	var out []domain.PairStat
	for rows.Next() {
		var st domain.PairStat
		var first, last int64
		if err := rows.Scan(&st.X, &st.Y, &first, &last, &st.TimesFound,
			&st.BestPValue, &st.LastPValue, &st.LastHedge); err != nil {
			return nil, fmt.Errorf("storage.GetPairStats: scan row: %w", err)
		}
		st.FirstSeen = time.UnixMilli(first).UTC()
		st.LastSeen = time.UnixMilli(last).UTC()
		out = append(out, st)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func (s *SQLiteStorage) pairsOf(ctx context.Context, scanID string) ([]domain.CointegratedPair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, pvalue, adf_stat, used_lag, hedge_ratio, intercept, observations
		FROM scan_pairs WHERE scan_id = ? ORDER BY seq
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("storage.pairsOf: query: %w", err)
	}
	defer rows.Close()

	var pairs []domain.CointegratedPair
	for rows.Next() {
		var p domain.CointegratedPair
		if err := rows.Scan(&p.X, &p.Y, &p.PValue, &p.ADFStat, &p.UsedLag,
			&p.HedgeRatio, &p.Intercept, &p.Observations); err != nil {
			return nil, fmt.Errorf("storage.pairsOf: scan row: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// pruneOld elimina escaneos antiguos (sus pares caen por ON DELETE CASCADE).
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionScans).UnixMilli()
	s.db.ExecContext(ctx, `DELETE FROM scans WHERE started_at < ?`, cutoff)
}
