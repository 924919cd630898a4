package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// maxTransitions limita las transiciones impresas por par en modo tabla.
const maxTransitions = 20

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyScan imprime el resultado de un escaneo en el modo configurado.
func (c *Console) NotifyScan(_ context.Context, r domain.ScanResult) error {
	now := r.StartedAt.Local().Format("15:04:05")
	if len(r.Pairs) == 0 {
		fmt.Fprintf(c.out, "[%s] %d symbols, %d/%d pairs tested → no cointegrated pairs found (p < %.2f)\n",
			now, len(r.Universe), r.Tested, r.Candidates(), r.PValueThreshold)
		return nil
	}

	if !c.table {
		c.printScanCompact(r)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d symbols | candidates:%d tested:%d skipped:%d failed:%d | %d pairs with p < %.2f (%s)\n",
		now, len(r.Universe), r.Candidates(), r.Tested, r.Skipped, r.Failed, len(r.Pairs),
		r.PValueThreshold, r.Duration.Round(time.Millisecond))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "X", "Y", "p-value", "ADF", "Lag", "Hedge β", "α", "Obs")
	for i, p := range r.Pairs {
		table.Append(
			fmt.Sprintf("%d", i+1),
			p.X,
			p.Y,
			fmt.Sprintf("%.4f", p.PValue),
			fmt.Sprintf("%.3f", p.ADFStat),
			fmt.Sprintf("%d", p.UsedLag),
			fmt.Sprintf("%.4f", p.HedgeRatio),
			fmt.Sprintf("%.4f", p.Intercept),
			fmt.Sprintf("%d", p.Observations),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  spread = Y - β·X | p-value = MacKinnon sobre los residuos (ADF, lag por AIC)")
	return nil
}

// NotifySignals imprime las transiciones de posición de un par y su estado final.
func (c *Console) NotifySignals(_ context.Context, s domain.SignalSeries) error {
	last, ok := s.Last()
	if !ok {
		fmt.Fprintf(c.out, "[%s] no data\n", domain.PairKey(s.X, s.Y))
		return nil
	}

	transitions := s.Transitions()
	zLabel := "n/a"
	if last.Valid {
		zLabel = fmt.Sprintf("%+.2f", last.ZScore)
	}

	if !c.table {
		fmt.Fprintf(c.out, "[%s] β=%.4f z=%s pos=%s (%d changes, entry ±%.1f exit ±%.1f)\n",
			domain.PairKey(s.X, s.Y), s.HedgeRatio, zLabel, last.Position,
			len(transitions), s.EntryThreshold, s.ExitThreshold)
		return nil
	}

	fmt.Fprintf(c.out, "\n=== %s  β=%.4f  entry ±%.2f  exit ±%.2f ===\n",
		domain.PairKey(s.X, s.Y), s.HedgeRatio, s.EntryThreshold, s.ExitThreshold)

	if len(transitions) == 0 {
		fmt.Fprintln(c.out, "  sin cambios de posición")
	} else {
		shown := transitions
		if len(shown) > maxTransitions {
			shown = shown[len(shown)-maxTransitions:]
			fmt.Fprintf(c.out, "  (últimas %d de %d transiciones)\n", maxTransitions, len(transitions))
		}
		table := tablewriter.NewWriter(c.out)
		table.Header("Time", "z", "Signal", "Position")
		for _, p := range shown {
			table.Append(
				timeLabel(p.Timestamp),
				fmt.Sprintf("%+.3f", p.ZScore),
				p.Signal.String(),
				p.Position.String(),
			)
		}
		table.Render()
	}

	fmt.Fprintf(c.out, "  Último: %s  z=%s  posición=%s\n", timeLabel(last.Timestamp), zLabel, last.Position)
	return nil
}

// PrintPairStats imprime los pares recurrentes del histórico.
func (c *Console) PrintPairStats(stats []domain.PairStat) {
	if len(stats) == 0 {
		fmt.Fprintln(c.out, "\n  No scan history yet. Run a scan first.")
		return
	}

	fmt.Fprintf(c.out, "\n=== PAIR HISTORY (%d pairs) ===\n", len(stats))
	table := tablewriter.NewWriter(c.out)
	table.Header("Pair", "Found", "First", "Last", "Best p", "Last p", "Last β")
	for _, st := range stats {
		table.Append(
			domain.PairKey(st.X, st.Y),
			fmt.Sprintf("%d", st.TimesFound),
			st.FirstSeen.Local().Format("2006-01-02 15:04"),
			st.LastSeen.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.4f", st.BestPValue),
			fmt.Sprintf("%.4f", st.LastPValue),
			fmt.Sprintf("%.4f", st.LastHedge),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// --- helpers ---

func (c *Console) printScanCompact(r domain.ScanResult) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d symbols → %d/%d pairs cointegrated",
		r.StartedAt.Local().Format("15:04:05"), len(r.Universe), len(r.Pairs), r.Tested)

	for i, p := range r.Pairs {
		if i >= 4 {
			fmt.Fprintf(&sb, " | +%d more", len(r.Pairs)-i)
			break
		}
		fmt.Fprintf(&sb, " | %s p=%.3f β=%.2f", p.Key(), p.PValue, p.HedgeRatio)
	}
	fmt.Fprintln(c.out, sb.String())
}

// timeLabel imprime solo la fecha cuando la barra es diaria (medianoche UTC).
func timeLabel(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format("2006-01-02 15:04")
}
