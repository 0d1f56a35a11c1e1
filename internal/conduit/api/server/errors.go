package server

import (
	"context"
	"errors"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	"github.com/Leopold1975/conduit/internal/conduit/services/authservice"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// authenticator turns authservice errors into pipeline failures.
type authenticator struct {
	as AuthService
}

func (a authenticator) Authenticate(ctx context.Context, token string) (models.User, error) {
	u, err := a.as.Authenticate(ctx, token)
	if errors.Is(err, authservice.ErrUnauthenticated) {
		return models.User{}, pipeline.Unauthorized(pipeline.Message("token", "is invalid or expired"))
	}

	return u, err
}

type validatable interface {
	Validate() error
}

// decodeValid reads the body object under key into T and validates it.
func decodeValid[T validatable](key string) func(*pipeline.Context) (T, error) {
	return func(c *pipeline.Context) (T, error) {
		var req T

		if err := c.Decode(key, &req); err != nil {
			return req, err
		}

		if err := req.Validate(); err != nil {
			return req, invalid(err)
		}

		return req, nil
	}
}

func invalid(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return pipeline.BadRequest(verrs)
	}

	return err
}

// unprocessable reports a save that failed for no known reason.
func (s *Server) unprocessable(action string, err error) error {
	s.lg.Errorf("%s save error: %s", action, err)

	return pipeline.Unprocessable(pipeline.Message("body", "could not be saved"))
}
