package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/conduit/internal/conduit/repository/tagcache"
	"github.com/Leopold1975/conduit/internal/pkg/config"
	"github.com/Leopold1975/conduit/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

const tagsKey = "tags:all"

type TagCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(ctx context.Context, cfg config.RedisCache) (TagCache, error) {
	rdb, err := redistools.New(ctx, cfg)
	if err != nil {
		return TagCache{}, fmt.Errorf("connect error: %w", err)
	}

	return TagCache{
		rdb:     rdb,
		expTime: cfg.ExpTime,
	}, nil
}

func (tc TagCache) GetTags(ctx context.Context) ([]string, error) {
	tagsJSON, err := tc.rdb.Get(ctx, tagsKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, tagcache.ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("get error: %w", err)
	}

	var tags []string

	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	return tags, nil
}

func (tc TagCache) SetTags(ctx context.Context, tags []string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := tc.rdb.Set(ctx, tagsKey, tagsJSON, tc.expTime).Err(); err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

// Invalidate drops the cached list so the next read goes to the database.
func (tc TagCache) Invalidate(ctx context.Context) error {
	if err := tc.rdb.Del(ctx, tagsKey).Err(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}

func (tc TagCache) Shutdown(context.Context) error {
	if err := tc.rdb.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}

	return nil
}
