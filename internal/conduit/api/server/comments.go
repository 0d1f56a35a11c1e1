package server

import (
	"errors"
	"net/http"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"github.com/Leopold1975/conduit/internal/conduit/services/commentservice"
	"github.com/oapi-codegen/runtime"
)

var (
	listCommentsManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "comments.list",
		RequiredParams: []string{"slug"},
	}

	createCommentManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "comments.create",
		RequiredParams: []string{"slug"},
		RequiredBody:   []string{"comment"},
	}

	deleteCommentManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "comments.delete",
		RequiredParams: []string{"slug", "id"},
	}
)

// GET /api/articles/{slug}/comments.
func (s *Server) listComments() http.HandlerFunc {
	return pipeline.Handle(s.runner, listCommentsManifest, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			comments, err := s.commentService.ListComments(c.Ctx(), c.User, c.Param("slug"))
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, errArticleNotFound
			} else if err != nil {
				return nil, 0, err
			}

			if comments == nil {
				comments = []models.Comment{}
			}

			return CommentsResponse{Comments: comments}, http.StatusOK, nil
		})
}

// POST /api/articles/{slug}/comments.
func (s *Server) createComment() http.HandlerFunc {
	return pipeline.Handle(s.runner, createCommentManifest, decodeValid[commentservice.CreateRequest]("comment"),
		func(c *pipeline.Context, req commentservice.CreateRequest) (any, int, error) {
			cm, err := s.commentService.CreateComment(c.Ctx(), c.User, c.Param("slug"), req)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, errArticleNotFound
			} else if err != nil {
				return nil, 0, s.unprocessable(createCommentManifest.Name, err)
			}

			return CommentResponse{Comment: cm}, http.StatusOK, nil
		})
}

func bindCommentID(c *pipeline.Context) (int64, error) {
	var id int64

	err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath, c.Param("id"), &id)
	if err != nil {
		return 0, pipeline.BadRequest(pipeline.Message("id", "must be an integer"))
	}

	return id, nil
}

// DELETE /api/articles/{slug}/comments/{id}.
func (s *Server) deleteComment() http.HandlerFunc {
	return pipeline.Handle(s.runner, deleteCommentManifest, bindCommentID,
		func(c *pipeline.Context, id int64) (any, int, error) {
			err := s.commentService.DeleteComment(c.Ctx(), c.User, id)
			if errors.Is(err, commentservice.ErrForbidden) {
				return nil, 0, pipeline.Forbidden(pipeline.Message("comment", "belongs to another user"))
			} else if err != nil {
				return nil, 0, err
			}

			return nil, http.StatusOK, nil
		})
}
