package tagservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/repository/tagcache"
	"github.com/Leopold1975/conduit/pkg/logger"
)

type TagService struct {
	repo  Repository
	cache Cache
	lg    logger.Logger
}

type Repository interface {
	ListTags(context.Context) ([]string, error)
}

type Cache interface {
	GetTags(context.Context) ([]string, error)
	SetTags(context.Context, []string) error
}

func New(r Repository, cache Cache, lg logger.Logger) *TagService {
	return &TagService{
		repo:  r,
		cache: cache,
		lg:    lg,
	}
}

// ListTags serves the tag names from the cache and refills it from the
// database on a miss. Cache failures only cost a database read.
func (ts *TagService) ListTags(ctx context.Context) ([]string, error) {
	tags, err := ts.cache.GetTags(ctx)
	if err == nil {
		return tags, nil
	}

	if !errors.Is(err, tagcache.ErrCacheMiss) {
		ts.lg.Errorf("tag cache get error: %s", err)
	}

	tags, err = ts.repo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags error: %w", err)
	}

	if err := ts.cache.SetTags(ctx, tags); err != nil {
		ts.lg.Errorf("tag cache set error: %s", err)
	}

	return tags, nil
}
