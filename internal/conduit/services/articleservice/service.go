package articleservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"github.com/Leopold1975/conduit/internal/conduit/tagsync"
	"github.com/Leopold1975/conduit/pkg/logger"
)

type ArticleService struct {
	repo  Repository
	cache TagCache
	lg    logger.Logger
}

var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrSlugTaken      = errors.New("slug has already been taken")
)

type Repository interface {
	GetUserByUsername(context.Context, string) (models.User, error)
	ListArticles(context.Context, int64, repo.ArticleFilter) ([]models.Article, error)
	GetArticle(context.Context, int64, repo.ArticleKey) (models.Article, error)
	CreateArticle(context.Context, models.Article) (models.Article, tagsync.Changes, error)
	UpdateArticle(context.Context, models.Article, *[]string) (models.Article, tagsync.Changes, error)
	DeleteArticle(context.Context, int64) error
	Favorite(ctx context.Context, userID, articleID int64) error
	Unfavorite(ctx context.Context, userID, articleID int64) error
}

// TagCache is told when new tag rows appear.
type TagCache interface {
	Invalidate(context.Context) error
}

func New(r Repository, cache TagCache, lg logger.Logger) *ArticleService {
	return &ArticleService{
		repo:  r,
		cache: cache,
		lg:    lg,
	}
}

// ListArticles filters all articles. An unknown author is an error, not an
// empty page.
func (as *ArticleService) ListArticles(ctx context.Context, viewer models.User,
	req ListRequest,
) ([]models.Article, error) {
	if req.Author != "" {
		if _, err := as.repo.GetUserByUsername(ctx, req.Author); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrAuthorNotFound
			}

			return nil, fmt.Errorf("get author error: %w", err)
		}
	}

	offset, limit := req.Page()

	articles, err := as.repo.ListArticles(ctx, viewer.ID, repo.ArticleFilter{
		Author:     req.Author,
		Tag:        req.Tag,
		Favorited:  req.Favorited,
		FollowedBy: 0,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list articles error: %w", err)
	}

	return articles, nil
}

// Feed lists articles written by users the viewer follows.
func (as *ArticleService) Feed(ctx context.Context, viewer models.User, req ListRequest) ([]models.Article, error) {
	offset, limit := req.Page()

	articles, err := as.repo.ListArticles(ctx, viewer.ID, repo.ArticleFilter{ //nolint:exhaustruct
		FollowedBy: viewer.ID,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list feed error: %w", err)
	}

	return articles, nil
}

// GetArticle finds one of the viewer's own articles. Articles of other users
// are reported as not found.
func (as *ArticleService) GetArticle(ctx context.Context, viewer models.User, slug string) (models.Article, error) {
	a, err := as.repo.GetArticle(ctx, viewer.ID, repo.ArticleKey{Slug: slug, OwnerID: viewer.ID})
	if err != nil {
		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	return a, nil
}

func (as *ArticleService) CreateArticle(ctx context.Context, viewer models.User,
	req CreateRequest,
) (models.Article, error) {
	a, ch, err := as.repo.CreateArticle(ctx, models.Article{ //nolint:exhaustruct
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		TagList:     req.TagList,
		UserID:      viewer.ID,
	})
	if err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return models.Article{}, ErrSlugTaken
		}

		return models.Article{}, fmt.Errorf("create article error: %w", err)
	}

	as.tagsChanged(ctx, ch)

	return as.GetArticle(ctx, viewer, a.Slug)
}

func (as *ArticleService) UpdateArticle(ctx context.Context, viewer models.User, slug string,
	req UpdateRequest,
) (models.Article, error) {
	a, err := as.GetArticle(ctx, viewer, slug)
	if err != nil {
		return models.Article{}, err
	}

	if req.Title != nil {
		a.Title = *req.Title
	}

	if req.Description != nil {
		a.Description = *req.Description
	}

	if req.Body != nil {
		a.Body = *req.Body
	}

	_, ch, err := as.repo.UpdateArticle(ctx, a, req.TagList)
	if err != nil {
		return models.Article{}, fmt.Errorf("update article error: %w", err)
	}

	as.tagsChanged(ctx, ch)

	return as.GetArticle(ctx, viewer, a.Slug)
}

func (as *ArticleService) DeleteArticle(ctx context.Context, viewer models.User, slug string) error {
	a, err := as.GetArticle(ctx, viewer, slug)
	if err != nil {
		return err
	}

	if err := as.repo.DeleteArticle(ctx, a.ID); err != nil {
		return fmt.Errorf("delete article error: %w", err)
	}

	return nil
}

// Favorite marks any user's article with this slug as a favorite of viewer.
// Repeating it changes nothing.
func (as *ArticleService) Favorite(ctx context.Context, viewer models.User, slug string) (models.Article, error) {
	return as.toggleFavorite(ctx, viewer, slug, as.repo.Favorite)
}

func (as *ArticleService) Unfavorite(ctx context.Context, viewer models.User, slug string) (models.Article, error) {
	return as.toggleFavorite(ctx, viewer, slug, as.repo.Unfavorite)
}

func (as *ArticleService) toggleFavorite(ctx context.Context, viewer models.User, slug string,
	apply func(context.Context, int64, int64) error,
) (models.Article, error) {
	key := repo.ArticleKey{Slug: slug} //nolint:exhaustruct

	a, err := as.repo.GetArticle(ctx, viewer.ID, key)
	if err != nil {
		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	if err := apply(ctx, viewer.ID, a.ID); err != nil {
		return models.Article{}, fmt.Errorf("favorite error: %w", err)
	}

	a, err = as.repo.GetArticle(ctx, viewer.ID, key)
	if err != nil {
		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	return a, nil
}

func (as *ArticleService) tagsChanged(ctx context.Context, ch tagsync.Changes) {
	if ch.CreatedTags == 0 {
		return
	}

	if err := as.cache.Invalidate(ctx); err != nil {
		as.lg.Errorf("tag cache invalidate error: %s", err)
	}
}
