package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"signal-forest/internal/domain"
	"signal-forest/internal/logger"
	"signal-forest/internal/metrics"
)

const stooqBaseURL = "https://stooq.com"

// ErrNoData is returned when the provider has no bars for a symbol and range.
var ErrNoData = errors.New("no market data")

// StooqProvider downloads daily OHLCV bars as CSV from stooq.com.
type StooqProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewStooqProvider creates a provider paced at one request per second with
// a burst of two. Five consecutive transport failures open the breaker for
// a minute.
func NewStooqProvider(tracer trace.Tracer) *StooqProvider {
	return &StooqProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: stooqBaseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		breaker: newStooqBreaker(5, time.Minute),
	}
}

func newStooqBreaker(maxFailures uint32, openFor time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stooq",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A cancelled caller says nothing about stooq's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.ProviderBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// FetchDaily returns the daily bars of symbol between from and to, oldest
// first. US tickers are listed with a .US suffix; when the bare symbol
// yields nothing the suffixed one is tried once.
func (p *StooqProvider) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "stooq.fetch-daily")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	candles, err := p.fetch(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 && !strings.HasSuffix(strings.ToUpper(symbol), ".US") {
		logger.Debug().Str("symbol", symbol).Msg("no stooq rows, retrying with .US suffix")
		candles, err = p.fetch(ctx, symbol+".US", from, to)
		if err != nil {
			return nil, err
		}
		for _, c := range candles {
			c.Symbol = symbol
		}
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w for %s between %s and %s", ErrNoData, symbol, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return candles, nil
}

func (p *StooqProvider) fetch(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error) {
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol))
	q.Set("d1", from.UTC().Format("20060102"))
	q.Set("d2", to.UTC().Format("20060102"))
	q.Set("i", "d")

	body, err := p.doRequest(ctx, p.baseURL+"/q/d/l/?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	candles, err := parseStooqCSV(symbol, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", symbol, err)
	}
	return candles, nil
}

func (p *StooqProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := p.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("stooq error %d: %s", resp.StatusCode, string(body))
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

// parseStooqCSV reads Date,Open,High,Low,Close[,Volume] rows. Rows that are
// too short or do not parse are skipped; a body without a header (stooq
// answers "No data" in plain text) yields no candles.
func parseStooqCSV(symbol string, body []byte) ([]*domain.Candle, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || !strings.EqualFold(strings.TrimSpace(records[0][0]), "Date") {
		return nil, nil
	}

	candles := make([]*domain.Candle, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		day, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		var ohlcv [5]float64
		ok := true
		for i := 0; i < 5 && ok; i++ {
			if i == 4 && len(rec) < 6 {
				break
			}
			ohlcv[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			ok = err == nil
		}
		if !ok {
			continue
		}
		candles = append(candles, &domain.Candle{
			Symbol:   symbol,
			Interval: domain.IntervalDaily,
			OpenTime: day,
			Open:     ohlcv[0],
			High:     ohlcv[1],
			Low:      ohlcv[2],
			Close:    ohlcv[3],
			Volume:   ohlcv[4],
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})
	return candles, nil
}
