package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
)

var (
	getProfileManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "profiles.get",
		RequiredParams: []string{"username"},
	}

	followManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "profiles.follow",
		RequiredParams: []string{"username"},
	}

	unfollowManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "profiles.unfollow",
		RequiredParams: []string{"username"},
	}
)

type profileAction func(context.Context, models.User, string) (models.Profile, error)

func (s *Server) profileHandler(m pipeline.Manifest, action profileAction) http.HandlerFunc {
	return pipeline.Handle(s.runner, m, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			p, err := action(c.Ctx(), c.User, c.Param("username"))
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, pipeline.NotFound(pipeline.Message("profile", "not found"))
			} else if err != nil {
				return nil, 0, err
			}

			return ProfileResponse{Profile: p}, http.StatusOK, nil
		})
}

// GET /api/profiles/{username}.
func (s *Server) getProfile() http.HandlerFunc {
	return s.profileHandler(getProfileManifest, s.profileService.GetProfile)
}

// POST /api/profiles/{username}/follow.
func (s *Server) follow() http.HandlerFunc {
	return s.profileHandler(followManifest, s.profileService.Follow)
}

// DELETE /api/profiles/{username}/follow.
func (s *Server) unfollow() http.HandlerFunc {
	return s.profileHandler(unfollowManifest, s.profileService.Unfollow)
}
