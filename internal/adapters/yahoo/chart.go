package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// chartResponse es la respuesta de /v8/finance/chart/{symbol}.
// Los arrays de precios pueden contener null en barras sin negociación.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchHistory implementa ports.HistoryProvider.
// Un símbolo desconocido o sin datos en el rango devuelve un slice vacío.
func (c *Client) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval domain.Interval) ([]domain.Bar, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", string(interval))
	q.Set("includeAdjustedClose", "true")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.base, url.PathEscape(symbol), q.Encode())

	var resp chartResponse
	if err := c.get(ctx, u, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			switch se.Code {
			case http.StatusNotFound:
				return nil, nil
			case http.StatusUnprocessableEntity:
				// Rango fuera de lo que Yahoo sirve para el intervalo (p.ej. 1m
				// más allá de 30 días): sin datos, no es un fallo del símbolo.
				slog.Warn("yahoo rejected range", "symbol", symbol, "interval", interval,
					"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly), "detail", chartErrorDetail(se.Body))
				return nil, nil
			}
		}
		return nil, fmt.Errorf("yahoo.FetchHistory: %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo.FetchHistory: %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	return mapBars(resp.Chart.Result[0], interval), nil
}

// chartErrorDetail extrae la descripción del error de un cuerpo chart, o
// devuelve el cuerpo tal cual si no es JSON.
func chartErrorDetail(body string) string {
	var resp chartResponse
	if err := json.Unmarshal([]byte(body), &resp); err == nil && resp.Chart.Error != nil {
		return resp.Chart.Error.Description
	}
	return body
}

// mapBars convierte la respuesta columnar en velas. Las barras sin cierre se
// descartan; las diarias se normalizan a la fecha de la bolsa a medianoche UTC.
func mapBars(r chartResult, interval domain.Interval) []domain.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.Bar, 0, len(r.Timestamp))
	for i, sec := range r.Timestamp {
		closeVal := at(q.Close, i)
		if math.IsNaN(closeVal) {
			continue
		}
		ts := time.Unix(sec, 0).UTC()
		if !interval.Intraday() {
			local := ts.Add(time.Duration(r.Meta.GMTOffset) * time.Second)
			ts = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		}
		adjClose := at(adj, i)
		if math.IsNaN(adjClose) {
			adjClose = closeVal
		}
		bars = append(bars, domain.Bar{
			Timestamp: ts,
			Open:      at(q.Open, i),
			High:      at(q.High, i),
			Low:       at(q.Low, i),
			Close:     closeVal,
			AdjClose:  adjClose,
			Volume:    at(q.Volume, i),
		})
	}
	return bars
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	return *vals[i]
}
