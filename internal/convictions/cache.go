package convictions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"regoffice/pkg/platform/sentinel"
)

// CachedCheck is a memoized match outcome. Negative results are cached too;
// re-running three store tiers for the same unmatched identity is the
// common case during renewals.
type CachedCheck struct {
	Matched bool             `json:"matched"`
	Tier    MatchTier        `json:"tier,omitempty"`
	Entity  *ReferenceEntity `json:"entity,omitempty"`
}

// MatchCache memoizes check outcomes keyed by normalized subject identity.
type MatchCache interface {
	Get(ctx context.Context, key string) (*CachedCheck, error)
	Set(ctx context.Context, key string, check CachedCheck) error
}

// RedisCache stores cached checks as JSON values with a TTL. Entries expire
// rather than being invalidated, so the TTL bounds how stale a check can be
// after a fresh extract import.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*CachedCheck, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get cached check: %w", err)
	}
	var check CachedCheck
	if err := json.Unmarshal(raw, &check); err != nil {
		return nil, fmt.Errorf("decode cached check: %w", err)
	}
	return &check, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, check CachedCheck) error {
	raw, err := json.Marshal(check)
	if err != nil {
		return fmt.Errorf("encode cached check: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached check: %w", err)
	}
	return nil
}

// CacheKey derives a stable cache key from the normalized subject identity.
func CacheKey(subject Subject) string {
	switch subject.Kind {
	case KindCompany:
		return "convictions:check:company:" + strings.ToLower(strings.TrimSpace(subject.CompanyNumber)) +
			":" + NormalizeCompanyName(subject.CompanyName)
	default:
		return "convictions:check:person:" + strings.ToLower(strings.TrimSpace(subject.FirstName)) +
			":" + strings.ToLower(strings.TrimSpace(subject.LastName)) +
			":" + strings.TrimSpace(subject.DateOfBirth)
	}
}
