// Package yahoo descarga velas históricas del endpoint chart de Yahoo Finance.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://query1.finance.yahoo.com"

	// Yahoo no documenta límites; 2 req/s evita los 429 en descargas largas.
	chartRatePerSec = 2
	chartBurst      = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
	maxRetryAfter = 30 * time.Second

	userAgent = "Mozilla/5.0 (compatible; pairbot/1.0)"
)

// StatusError es una respuesta 4xx no reintentable.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.Code, e.Body)
}

// Client es el HTTP client de Yahoo con rate limiting y retries.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client. Si base está vacío, usa el host de producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(chartRatePerSec, chartBurst),
	}
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		return c.http.Do(req)
	}, out)
}

// doWithRetry reintenta errores de red, 429 y 5xx con backoff exponencial.
// En un 429 manda el Retry-After de Yahoo si viene. El resto de 4xx no se
// reintenta y vuelve como *StatusError.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			lastErr = err
			c.pause(ctx, attempt, backoff(attempt))
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff(attempt))
			slog.Warn("rate limited by yahoo", "attempt", attempt+1, "wait", wait)
			lastErr = &StatusError{Code: resp.StatusCode, Body: "too many requests"}
			c.pause(ctx, attempt, wait)
			continue
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			c.pause(ctx, attempt, backoff(attempt))
			continue
		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: string(body)}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// pause espera antes del siguiente intento, salvo tras el último.
func (c *Client) pause(ctx context.Context, attempt int, wait time.Duration) {
	if attempt == maxRetries {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
}

// retryAfter interpreta la cabecera Retry-After en segundos, acotada a
// maxRetryAfter. Sin cabecera válida usa fallback.
func retryAfter(header string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return fallback
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}
