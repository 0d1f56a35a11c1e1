package commentservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
)

type CommentService struct {
	repo Repository
}

var ErrForbidden = errors.New("comment belongs to another user")

type Repository interface {
	GetArticle(context.Context, int64, repo.ArticleKey) (models.Article, error)
	ListComments(ctx context.Context, viewerID, articleID int64) ([]models.Comment, error)
	GetComment(ctx context.Context, viewerID, commentID int64) (models.Comment, error)
	CreateComment(context.Context, models.Comment) (int64, error)
	DeleteComment(context.Context, int64) error
}

func New(r Repository) *CommentService {
	return &CommentService{
		repo: r,
	}
}

func (cs *CommentService) article(ctx context.Context, viewer models.User, slug string) (models.Article, error) {
	a, err := cs.repo.GetArticle(ctx, viewer.ID, repo.ArticleKey{Slug: slug}) //nolint:exhaustruct
	if err != nil {
		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	return a, nil
}

func (cs *CommentService) ListComments(ctx context.Context, viewer models.User, slug string) ([]models.Comment, error) {
	a, err := cs.article(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}

	comments, err := cs.repo.ListComments(ctx, viewer.ID, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments error: %w", err)
	}

	return comments, nil
}

func (cs *CommentService) CreateComment(ctx context.Context, viewer models.User, slug string,
	req CreateRequest,
) (models.Comment, error) {
	a, err := cs.article(ctx, viewer, slug)
	if err != nil {
		return models.Comment{}, err
	}

	id, err := cs.repo.CreateComment(ctx, models.Comment{ //nolint:exhaustruct
		Body:      req.Body,
		ArticleID: a.ID,
		UserID:    viewer.ID,
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("create comment error: %w", err)
	}

	c, err := cs.repo.GetComment(ctx, viewer.ID, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment error: %w", err)
	}

	return c, nil
}

// DeleteComment removes the viewer's comment. A comment that does not exist
// is already deleted, someone else's comment is ErrForbidden.
func (cs *CommentService) DeleteComment(ctx context.Context, viewer models.User, id int64) error {
	c, err := cs.repo.GetComment(ctx, viewer.ID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("get comment error: %w", err)
	}

	if c.UserID != viewer.ID {
		return ErrForbidden
	}

	if err := cs.repo.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("delete comment error: %w", err)
	}

	return nil
}
