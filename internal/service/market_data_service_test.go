package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"signal-forest/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

var (
	rangeFrom = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeTo   = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func dailyCandles(from, to time.Time) []*domain.Candle {
	var out []*domain.Candle
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, &domain.Candle{Symbol: "AAPL", Interval: domain.IntervalDaily, OpenTime: d, Close: 100})
	}
	return out
}

type mockProvider struct {
	candles []*domain.Candle
	err     error
	calls   int
}

func (m *mockProvider) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error) {
	m.calls++
	return m.candles, m.err
}

type mockCandleRepo struct {
	stored   []*domain.Candle
	upserted []*domain.Candle
	getErr   error
}

func (m *mockCandleRepo) GetCandlesInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Candle, error) {
	return m.stored, m.getErr
}

func (m *mockCandleRepo) UpsertCandles(ctx context.Context, candles []*domain.Candle) error {
	m.upserted = append(m.upserted, candles...)
	return nil
}

func TestMarketDataService_CacheHit(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	data, _ := json.Marshal(dailyCandles(rangeFrom, rangeFrom.AddDate(0, 0, 2)))
	_ = redis.Set(context.Background(), cacheKey("AAPL", rangeFrom, rangeTo), data, 0)
	provider := &mockProvider{}

	svc := NewMarketDataService(testTracer, provider, &mockCandleRepo{}, redis)
	got, err := svc.GetDailyCandles(context.Background(), "AAPL", rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || provider.calls != 0 {
		t.Fatalf("expected 3 cached candles and no provider call, got %d/%d", len(got), provider.calls)
	}
}

func TestMarketDataService_StoreCoversRange(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	repo := &mockCandleRepo{stored: dailyCandles(rangeFrom.AddDate(0, 0, 2), rangeTo.AddDate(0, 0, -3))}
	provider := &mockProvider{}

	svc := NewMarketDataService(testTracer, provider, repo, redis)
	got, err := svc.GetDailyCandles(context.Background(), "AAPL", rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(repo.stored) || provider.calls != 0 {
		t.Fatalf("expected stored candles without provider call, got %d/%d", len(got), provider.calls)
	}
	if _, ok := redis.data[cacheKey("AAPL", rangeFrom, rangeTo)]; !ok {
		t.Fatal("stored candles were not cached")
	}
}

func TestMarketDataService_FetchesOnGap(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	repo := &mockCandleRepo{stored: dailyCandles(rangeFrom, rangeFrom.AddDate(0, 0, 10))}
	provider := &mockProvider{candles: dailyCandles(rangeFrom, rangeTo)}

	svc := NewMarketDataService(testTracer, provider, repo, redis)
	got, err := svc.GetDailyCandles(context.Background(), "AAPL", rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 1 || len(got) != len(provider.candles) {
		t.Fatalf("expected provider fetch, got calls=%d len=%d", provider.calls, len(got))
	}
	if len(repo.upserted) != len(provider.candles) {
		t.Fatalf("expected fetched candles to be stored, got %d", len(repo.upserted))
	}
}

func TestMarketDataService_NilLayers(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{candles: dailyCandles(rangeFrom, rangeTo)}
	svc := NewMarketDataService(testTracer, provider, nil, nil)
	if _, err := svc.GetDailyCandles(context.Background(), "AAPL", rangeFrom, rangeTo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc = NewMarketDataService(testTracer, nil, nil, nil)
	if _, err := svc.GetDailyCandles(context.Background(), "AAPL", rangeFrom, rangeTo); err == nil {
		t.Fatal("expected error without provider")
	}
}

func TestMarketDataService_CacheErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	redis.getErr = errors.New("redis down")
	redis.setErr = errors.New("redis down")
	provider := &mockProvider{candles: dailyCandles(rangeFrom, rangeTo)}

	svc := NewMarketDataService(testTracer, provider, nil, redis)
	got, err := svc.GetDailyCandles(context.Background(), "AAPL", rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected provider candles")
	}
}

func TestMarketDataService_InvalidRange(t *testing.T) {
	t.Parallel()

	svc := NewMarketDataService(testTracer, &mockProvider{}, nil, nil)
	if _, err := svc.GetDailyCandles(context.Background(), "AAPL", rangeTo, rangeFrom); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}
