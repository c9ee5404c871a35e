// Package cache keeps composed dashboards in Redis, one hash per owner.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// DashboardStore stores encoded dashboards under dashboard:<owner>, one field per filter.
// dashboard:<owner>:gen counts invalidations. Invalidating an owner drops every filter at
// once and bumps the counter, which fences out writes from builds that started earlier.
type DashboardStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDashboardStore(client *redis.Client, ttl time.Duration) *DashboardStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DashboardStore{client: client, ttl: ttl}
}

var errStale = errors.New("dashboard generation moved")

func key(owner string) string {
	return "dashboard:" + owner
}

func genKey(owner string) string {
	return key(owner) + ":gen"
}

// Generation returns the owner's invalidation counter, zero when never invalidated.
func (s *DashboardStore) Generation(ctx context.Context, owner string) (int64, error) {
	gen, err := s.client.Get(ctx, genKey(owner)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read dashboard generation: %w", err)
	}
	return gen, nil
}

// Get returns nil without error on a miss.
func (s *DashboardStore) Get(ctx context.Context, owner, field string) ([]byte, error) {
	raw, err := s.client.HGet(ctx, key(owner), field).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cached dashboard: %w", err)
	}
	return raw, nil
}

// Put stores payload only while the owner's generation still equals gen. A stale write is
// dropped silently.
func (s *DashboardStore) Put(ctx context.Context, owner, field string, gen int64, payload []byte) error {
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey(owner)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key(owner), field, payload)
			p.Expire(ctx, key(owner), s.ttl)
			return nil
		})
		return err
	}, genKey(owner))
	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("write cached dashboard: %w", err)
	}
}

func (s *DashboardStore) Invalidate(ctx context.Context, owner string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(owner))
		p.Del(ctx, key(owner))
		return nil
	})
	if err != nil {
		return fmt.Errorf("drop cached dashboard: %w", err)
	}
	return nil
}
