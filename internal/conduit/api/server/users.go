package server

import (
	"errors"
	"net/http"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"github.com/Leopold1975/conduit/internal/conduit/services/authservice"
)

var (
	registerManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:         "users.create",
		RequiredBody: []string{"user"},
		AuthExempt:   true,
	}

	loginManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:         "users.login",
		RequiredBody: []string{"user"},
		AuthExempt:   true,
	}

	currentUserManifest = pipeline.Manifest{Name: "user.get"} //nolint:exhaustruct,gochecknoglobals

	updateUserManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:         "user.update",
		RequiredBody: []string{"user"},
	}
)

// POST /api/users.
func (s *Server) register() http.HandlerFunc {
	return pipeline.Handle(s.runner, registerManifest, decodeValid[authservice.RegisterRequest]("user"),
		func(c *pipeline.Context, req authservice.RegisterRequest) (any, int, error) {
			u, token, err := s.authService.Register(c.Ctx(), req)
			if errors.Is(err, repo.ErrAlreadyExists) {
				return nil, 0, pipeline.BadRequest(pipeline.Message("user", "email or username has already been taken"))
			} else if err != nil {
				return nil, 0, err
			}

			return newUserResponse(u, token), http.StatusCreated, nil
		})
}

// POST /api/users/login.
func (s *Server) login() http.HandlerFunc {
	return pipeline.Handle(s.runner, loginManifest, decodeValid[authservice.LoginRequest]("user"),
		func(c *pipeline.Context, req authservice.LoginRequest) (any, int, error) {
			u, token, err := s.authService.Login(c.Ctx(), req)
			if errors.Is(err, authservice.ErrInvalidCredentials) {
				return nil, 0, pipeline.Unauthorized(pipeline.Message("email or password", "is invalid"))
			} else if err != nil {
				return nil, 0, err
			}

			return newUserResponse(u, token), http.StatusOK, nil
		})
}

// GET /api/user.
func (s *Server) currentUser() http.HandlerFunc {
	return pipeline.Handle(s.runner, currentUserManifest, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			return newUserResponse(c.User, c.Token), http.StatusOK, nil
		})
}

// PUT /api/user.
func (s *Server) updateUser() http.HandlerFunc {
	return pipeline.Handle(s.runner, updateUserManifest, decodeValid[authservice.UpdateUserRequest]("user"),
		func(c *pipeline.Context, req authservice.UpdateUserRequest) (any, int, error) {
			u, err := s.authService.UpdateUser(c.Ctx(), c.User, req)

			switch {
			case errors.Is(err, repo.ErrConflict):
				return nil, 0, pipeline.Conflict(pipeline.Message("lock_version", "is stale, reload the user"))
			case errors.Is(err, repo.ErrAlreadyExists):
				return nil, 0, pipeline.BadRequest(pipeline.Message("email", "has already been taken"))
			case err != nil:
				return nil, 0, s.unprocessable(updateUserManifest.Name, err)
			}

			return newUserResponse(u, c.Token), http.StatusOK, nil
		})
}
