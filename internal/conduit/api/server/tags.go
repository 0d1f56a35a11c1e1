package server

import (
	"net/http"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
)

var listTagsManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
	Name:       "tags.list",
	AuthExempt: true,
}

// GET /api/tags.
func (s *Server) listTags() http.HandlerFunc {
	return pipeline.Handle(s.runner, listTagsManifest, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			tags, err := s.tagService.ListTags(c.Ctx())
			if err != nil {
				return nil, 0, err
			}

			if tags == nil {
				tags = []string{}
			}

			return TagsResponse{Tags: tags}, http.StatusOK, nil
		})
}
