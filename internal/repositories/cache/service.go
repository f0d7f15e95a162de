package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// reportGenerationKey is bumped on every ledger write. Report keys embed the
// generation they were computed under, so a bump orphans every cached
// report at once and the TTL reclaims them.
const reportGenerationKey = "report:generation"

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Report caching

// ReportGeneration returns the current report generation. Callers read it
// before computing a report and store the result under it, so a write that
// commits mid-computation leaves the result unreachable.
func (s *CacheService) ReportGeneration(ctx context.Context) (int64, error) {
	gen, err := s.client.Get(ctx, reportGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read report generation: %w", err)
	}
	return gen, nil
}

func (s *CacheService) GetReport(ctx context.Context, gen int64, filterKey string, dest interface{}) (bool, error) {
	return s.Get(ctx, s.reportKey(gen, filterKey), dest)
}

func (s *CacheService) SetReport(ctx context.Context, gen int64, filterKey string, value interface{}) error {
	return s.Set(ctx, s.reportKey(gen, filterKey), value)
}

// InvalidateReports drops every cached report.
func (s *CacheService) InvalidateReports(ctx context.Context) error {
	return s.client.Incr(ctx, reportGenerationKey).Err()
}

func (s *CacheService) reportKey(gen int64, filterKey string) string {
	return s.GenerateKey("report", fmt.Sprintf("g%d", gen), filterKey)
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
