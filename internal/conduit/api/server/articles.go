package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"github.com/Leopold1975/conduit/internal/conduit/services/articleservice"
	"github.com/oapi-codegen/runtime"
)

var (
	listArticlesManifest = pipeline.Manifest{Name: "articles.list"} //nolint:exhaustruct,gochecknoglobals

	feedManifest = pipeline.Manifest{Name: "articles.feed"} //nolint:exhaustruct,gochecknoglobals

	createArticleManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:         "articles.create",
		RequiredBody: []string{"article"},
	}

	getArticleManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "articles.get",
		RequiredParams: []string{"slug"},
	}

	updateArticleManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "articles.update",
		RequiredParams: []string{"slug"},
		RequiredBody:   []string{"article"},
	}

	deleteArticleManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "articles.delete",
		RequiredParams: []string{"slug"},
	}

	favoriteManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "articles.favorite",
		RequiredParams: []string{"slug"},
	}

	unfavoriteManifest = pipeline.Manifest{ //nolint:exhaustruct,gochecknoglobals
		Name:           "articles.unfavorite",
		RequiredParams: []string{"slug"},
	}
)

var errArticleNotFound = pipeline.NotFound(pipeline.Message("article", "not found")) //nolint:gochecknoglobals

// bindListRequest reads the listing query. Paging parameters are optional
// form-style integers.
func bindListRequest(c *pipeline.Context) (articleservice.ListRequest, error) {
	q := c.Request.URL.Query()

	req := articleservice.ListRequest{ //nolint:exhaustruct
		Author:    q.Get("author"),
		Tag:       q.Get("tag"),
		Favorited: q.Get("favorited"),
	}

	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &req.Offset); err != nil {
		return req, pipeline.BadRequest(pipeline.Message("offset", "must be an integer"))
	}

	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &req.Limit); err != nil {
		return req, pipeline.BadRequest(pipeline.Message("limit", "must be an integer"))
	}

	if err := req.Validate(); err != nil {
		return req, invalid(err)
	}

	return req, nil
}

type listAction func(context.Context, models.User, articleservice.ListRequest) ([]models.Article, error)

func (s *Server) listHandler(m pipeline.Manifest, action listAction) http.HandlerFunc {
	return pipeline.Handle(s.runner, m, bindListRequest,
		func(c *pipeline.Context, req articleservice.ListRequest) (any, int, error) {
			articles, err := action(c.Ctx(), c.User, req)
			if errors.Is(err, articleservice.ErrAuthorNotFound) {
				return nil, 0, pipeline.BadRequest(pipeline.Message("author", "not found"))
			} else if err != nil {
				return nil, 0, err
			}

			return newArticlesResponse(articles), http.StatusOK, nil
		})
}

// GET /api/articles.
func (s *Server) listArticles() http.HandlerFunc {
	return s.listHandler(listArticlesManifest, s.articleService.ListArticles)
}

// GET /api/articles/feed.
func (s *Server) feed() http.HandlerFunc {
	return s.listHandler(feedManifest, s.articleService.Feed)
}

// POST /api/articles.
func (s *Server) createArticle() http.HandlerFunc {
	return pipeline.Handle(s.runner, createArticleManifest, decodeValid[articleservice.CreateRequest]("article"),
		func(c *pipeline.Context, req articleservice.CreateRequest) (any, int, error) {
			a, err := s.articleService.CreateArticle(c.Ctx(), c.User, req)
			if errors.Is(err, articleservice.ErrSlugTaken) {
				return nil, 0, pipeline.BadRequest(pipeline.Message("slug", "has already been taken"))
			} else if err != nil {
				return nil, 0, s.unprocessable(createArticleManifest.Name, err)
			}

			return ArticleResponse{Article: a}, http.StatusCreated, nil
		})
}

// GET /api/articles/{slug}.
func (s *Server) getArticle() http.HandlerFunc {
	return pipeline.Handle(s.runner, getArticleManifest, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			a, err := s.articleService.GetArticle(c.Ctx(), c.User, c.Param("slug"))
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, errArticleNotFound
			} else if err != nil {
				return nil, 0, err
			}

			return ArticleResponse{Article: a}, http.StatusOK, nil
		})
}

// PUT /api/articles/{slug}.
func (s *Server) updateArticle() http.HandlerFunc {
	return pipeline.Handle(s.runner, updateArticleManifest, decodeValid[articleservice.UpdateRequest]("article"),
		func(c *pipeline.Context, req articleservice.UpdateRequest) (any, int, error) {
			a, err := s.articleService.UpdateArticle(c.Ctx(), c.User, c.Param("slug"), req)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, errArticleNotFound
			} else if err != nil {
				return nil, 0, s.unprocessable(updateArticleManifest.Name, err)
			}

			return ArticleResponse{Article: a}, http.StatusOK, nil
		})
}

// DELETE /api/articles/{slug}.
func (s *Server) deleteArticle() http.HandlerFunc {
	return pipeline.Handle(s.runner, deleteArticleManifest, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			err := s.articleService.DeleteArticle(c.Ctx(), c.User, c.Param("slug"))
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, errArticleNotFound
			} else if err != nil {
				return nil, 0, err
			}

			return nil, http.StatusOK, nil
		})
}

type favoriteAction func(context.Context, models.User, string) (models.Article, error)

func (s *Server) favoriteHandler(m pipeline.Manifest, action favoriteAction) http.HandlerFunc {
	return pipeline.Handle(s.runner, m, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			a, err := action(c.Ctx(), c.User, c.Param("slug"))
			if errors.Is(err, repo.ErrNotFound) {
				return nil, 0, errArticleNotFound
			} else if err != nil {
				return nil, 0, err
			}

			return ArticleResponse{Article: a}, http.StatusOK, nil
		})
}

// POST /api/articles/{slug}/favorite.
func (s *Server) favorite() http.HandlerFunc {
	return s.favoriteHandler(favoriteManifest, s.articleService.Favorite)
}

// DELETE /api/articles/{slug}/favorite.
func (s *Server) unfavorite() http.HandlerFunc {
	return s.favoriteHandler(unfavoriteManifest, s.articleService.Unfavorite)
}
