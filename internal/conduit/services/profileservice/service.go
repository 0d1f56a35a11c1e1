package profileservice

import (
	"context"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
)

type ProfileService struct {
	repo Repository
}

type Repository interface {
	GetProfile(ctx context.Context, viewerID int64, username string) (models.Profile, error)
	Follow(ctx context.Context, followerID, followedID int64) error
	Unfollow(ctx context.Context, followerID, followedID int64) error
}

func New(repo Repository) *ProfileService {
	return &ProfileService{
		repo: repo,
	}
}

func (ps *ProfileService) GetProfile(ctx context.Context, viewer models.User, username string) (models.Profile, error) {
	p, err := ps.repo.GetProfile(ctx, viewer.ID, username)
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile error: %w", err)
	}

	return p, nil
}

// Follow makes viewer follow username. Following twice, or following
// oneself, is allowed.
func (ps *ProfileService) Follow(ctx context.Context, viewer models.User, username string) (models.Profile, error) {
	return ps.toggle(ctx, viewer, username, ps.repo.Follow)
}

func (ps *ProfileService) Unfollow(ctx context.Context, viewer models.User, username string) (models.Profile, error) {
	return ps.toggle(ctx, viewer, username, ps.repo.Unfollow)
}

func (ps *ProfileService) toggle(ctx context.Context, viewer models.User, username string,
	apply func(context.Context, int64, int64) error,
) (models.Profile, error) {
	p, err := ps.repo.GetProfile(ctx, viewer.ID, username)
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile error: %w", err)
	}

	if err := apply(ctx, viewer.ID, p.ID); err != nil {
		return models.Profile{}, fmt.Errorf("relationship error: %w", err)
	}

	p, err = ps.repo.GetProfile(ctx, viewer.ID, username)
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile error: %w", err)
	}

	return p, nil
}
