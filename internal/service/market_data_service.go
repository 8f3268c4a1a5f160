package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"signal-forest/internal/domain"
	"signal-forest/internal/logger"
	"signal-forest/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	candleCacheTTL = 6 * time.Hour
	// coverageSlack tolerates weekends and holidays at either end of a
	// stored range before the provider is asked again.
	coverageSlack = 5 * 24 * time.Hour
)

type DailyProvider interface {
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error)
}

type CandleRepository interface {
	GetCandlesInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Candle, error)
	UpsertCandles(ctx context.Context, candles []*domain.Candle) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketDataService serves daily candles from the cache, then the database,
// then the provider. Any of the three may be nil.
type MarketDataService struct {
	tracer   trace.Tracer
	provider DailyProvider
	repo     CandleRepository
	redis    RedisClient
}

func NewMarketDataService(
	tracer trace.Tracer,
	provider DailyProvider,
	repo CandleRepository,
	redisClient RedisClient,
) *MarketDataService {
	return &MarketDataService{
		tracer:   tracer,
		provider: provider,
		repo:     repo,
		redis:    redisClient,
	}
}

// GetDailyCandles returns the daily bars of symbol in [from, to], oldest
// first.
func (s *MarketDataService) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-data-service.get-daily-candles")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	if !from.Before(to) {
		return nil, fmt.Errorf("invalid range: %s is not before %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	key := cacheKey(symbol, from, to)

	if s.redis != nil {
		cached, err := s.getCandleCache(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("redis cache read error")
		}
		if len(cached) > 0 {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	if s.repo != nil {
		stored, err := s.repo.GetCandlesInRange(ctx, symbol, domain.IntervalDaily, from, to)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("candle store read error")
		}
		if covers(stored, from, to) {
			s.setCandleCache(ctx, key, stored)
			return stored, nil
		}
	}

	if s.provider == nil {
		return nil, errors.New("no market data provider configured")
	}
	fetched, err := s.provider.FetchDaily(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		if err := s.repo.UpsertCandles(ctx, fetched); err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("candle store write error")
		}
	}
	s.setCandleCache(ctx, key, fetched)

	logger.Info().Str("symbol", symbol).Int("candles", len(fetched)).Msg("fetched daily candles")
	return fetched, nil
}

func covers(candles []*domain.Candle, from, to time.Time) bool {
	if len(candles) == 0 {
		return false
	}
	first, last := candles[0].OpenTime, candles[len(candles)-1].OpenTime
	return !first.After(from.Add(coverageSlack)) && !last.Before(to.Add(-coverageSlack))
}

func cacheKey(symbol string, from, to time.Time) string {
	return fmt.Sprintf("candles:%s:%s:%s", symbol, from.UTC().Format("20060102"), to.UTC().Format("20060102"))
}

func (s *MarketDataService) setCandleCache(ctx context.Context, key string, candles []*domain.Candle) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(candles)
	if err != nil {
		logger.Warn().Err(err).Msg("encode candle cache")
		return
	}
	if err := s.redis.Set(ctx, key, data, candleCacheTTL).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("redis cache write error")
	}
}

func (s *MarketDataService) getCandleCache(ctx context.Context, key string) ([]*domain.Candle, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var candles []*domain.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}
