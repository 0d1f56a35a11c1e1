package server

import (
	"net/http"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
)

var healthManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
	Name:       "health",
	AuthExempt: true,
	Envelope:   pipeline.Wrapped,
}

// GET /api/health.
func (s *Server) health() http.HandlerFunc {
	return pipeline.Handle(s.runner, healthManifest, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			if err := s.pinger.Ping(c.Ctx()); err != nil {
				s.lg.Errorf("health ping error: %s", err)

				return nil, 0, pipeline.Fail(http.StatusServiceUnavailable, pipeline.Message("database", "is unavailable"))
			}

			return HealthResponse{Status: "ok"}, http.StatusOK, nil
		})
}
