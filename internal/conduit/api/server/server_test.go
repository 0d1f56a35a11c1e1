package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Leopold1975/conduit/internal/conduit/api/server"
	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"github.com/Leopold1975/conduit/internal/conduit/services/articleservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/authservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/commentservice"
	"github.com/Leopold1975/conduit/internal/pkg/config"
	"github.com/Leopold1975/conduit/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// fakeAPI stands in for every service the server talks to. Unset hooks fail
// with errBoom.
type fakeAPI struct {
	register      func(authservice.RegisterRequest) (models.User, string, error)
	updateUser    func(authservice.UpdateUserRequest) (models.User, error)
	getProfile    func(string) (models.Profile, error)
	listArticles  func(articleservice.ListRequest) ([]models.Article, error)
	getArticle    func(string) (models.Article, error)
	createArticle func(articleservice.CreateRequest) (models.Article, error)
	deleteComment func(int64) error
	listTags      func() ([]string, error)
	ping          func() error
}

var alice = models.User{ID: 1, Email: "alice@example.com", Username: "alice", LockVersion: 2} //nolint:exhaustruct

func (f *fakeAPI) Register(_ context.Context, req authservice.RegisterRequest) (models.User, string, error) {
	if f.register == nil {
		return models.User{}, "", errBoom
	}

	return f.register(req)
}

func (f *fakeAPI) Login(context.Context, authservice.LoginRequest) (models.User, string, error) {
	return models.User{}, "", authservice.ErrInvalidCredentials
}

func (f *fakeAPI) Authenticate(_ context.Context, token string) (models.User, error) {
	if token != "good" {
		return models.User{}, authservice.ErrUnauthenticated
	}

	return alice, nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, _ models.User, req authservice.UpdateUserRequest) (models.User, error) {
	if f.updateUser == nil {
		return models.User{}, errBoom
	}

	return f.updateUser(req)
}

func (f *fakeAPI) GetProfile(_ context.Context, _ models.User, username string) (models.Profile, error) {
	if f.getProfile == nil {
		return models.Profile{}, errBoom
	}

	return f.getProfile(username)
}

func (f *fakeAPI) Follow(ctx context.Context, u models.User, username string) (models.Profile, error) {
	return f.GetProfile(ctx, u, username)
}

func (f *fakeAPI) Unfollow(ctx context.Context, u models.User, username string) (models.Profile, error) {
	return f.GetProfile(ctx, u, username)
}

func (f *fakeAPI) ListArticles(_ context.Context, _ models.User, req articleservice.ListRequest,
) ([]models.Article, error) {
	if f.listArticles == nil {
		return nil, errBoom
	}

	return f.listArticles(req)
}

func (f *fakeAPI) Feed(ctx context.Context, u models.User, req articleservice.ListRequest) ([]models.Article, error) {
	return f.ListArticles(ctx, u, req)
}

func (f *fakeAPI) GetArticle(_ context.Context, _ models.User, slug string) (models.Article, error) {
	if f.getArticle == nil {
		return models.Article{}, errBoom
	}

	return f.getArticle(slug)
}

func (f *fakeAPI) CreateArticle(_ context.Context, _ models.User, req articleservice.CreateRequest,
) (models.Article, error) {
	if f.createArticle == nil {
		return models.Article{}, errBoom
	}

	return f.createArticle(req)
}

func (f *fakeAPI) UpdateArticle(ctx context.Context, u models.User, slug string, _ articleservice.UpdateRequest,
) (models.Article, error) {
	return f.GetArticle(ctx, u, slug)
}

func (f *fakeAPI) DeleteArticle(ctx context.Context, u models.User, slug string) error {
	_, err := f.GetArticle(ctx, u, slug)

	return err
}

func (f *fakeAPI) Favorite(ctx context.Context, u models.User, slug string) (models.Article, error) {
	return f.GetArticle(ctx, u, slug)
}

func (f *fakeAPI) Unfavorite(ctx context.Context, u models.User, slug string) (models.Article, error) {
	return f.GetArticle(ctx, u, slug)
}

func (f *fakeAPI) ListComments(context.Context, models.User, string) ([]models.Comment, error) {
	return nil, nil
}

func (f *fakeAPI) CreateComment(context.Context, models.User, string, commentservice.CreateRequest,
) (models.Comment, error) {
	return models.Comment{}, errBoom
}

func (f *fakeAPI) DeleteComment(_ context.Context, _ models.User, id int64) error {
	if f.deleteComment == nil {
		return errBoom
	}

	return f.deleteComment(id)
}

func (f *fakeAPI) ListTags(context.Context) ([]string, error) {
	if f.listTags == nil {
		return nil, errBoom
	}

	return f.listTags()
}

func (f *fakeAPI) Ping(context.Context) error {
	if f.ping == nil {
		return nil
	}

	return f.ping()
}

func newHandler(f *fakeAPI) http.Handler {
	s := server.New(config.Server{Addr: "127.0.0.1:0"}, server.Services{ //nolint:exhaustruct
		Auth:     f,
		Profiles: f,
		Articles: f,
		Comments: f,
		Tags:     f,
		Health:   f,
	}, logger.NewNop())

	return s.Handler()
}

func call(t *testing.T, h http.Handler, method, target, body string, authed bool) (int, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	if authed {
		req.Header.Set("Authorization", "Token good")
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())

	return rr.Code, out
}

func fieldErrors(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, "no errors in %v", body)

	return errs
}

func TestRegister(t *testing.T) {
	f := &fakeAPI{ //nolint:exhaustruct
		register: func(req authservice.RegisterRequest) (models.User, string, error) {
			if req.Username == "taken" {
				return models.User{}, "", repo.ErrAlreadyExists
			}

			return models.User{Email: req.Email, Username: req.Username}, "tok", nil //nolint:exhaustruct
		},
	}
	h := newHandler(f)

	code, body := call(t, h, http.MethodPost, "/api/users",
		`{"user":{"username":"bob","email":"bob@example.com","password":"password1"}}`, false)
	require.Equal(t, http.StatusCreated, code)

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bob", user["username"])
	assert.Equal(t, "tok", user["token"])
	assert.Contains(t, user, "lock_version")

	code, body = call(t, h, http.MethodPost, "/api/users",
		`{"user":{"username":"taken","email":"bob@example.com","password":"password1"}}`, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, fieldErrors(t, body), "user")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	h := newHandler(&fakeAPI{}) //nolint:exhaustruct

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing root key", `{}`, "user"},
		{"malformed body", `not json`, "user"},
		{"short password", `{"user":{"username":"bob","email":"bob@example.com","password":"short"}}`, "password"},
		{"wrong type", `{"user":"bob"}`, "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, h, http.MethodPost, "/api/users", tt.body, false)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, fieldErrors(t, body), tt.field)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHandler(&fakeAPI{}) //nolint:exhaustruct

	code, _ := call(t, h, http.MethodPost, "/api/users/login",
		`{"user":{"email":"bob@example.com","password":"password1"}}`, false)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthRequired(t *testing.T) {
	h := newHandler(&fakeAPI{}) //nolint:exhaustruct

	code, body := call(t, h, http.MethodGet, "/api/user", "", false)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, fieldErrors(t, body), "token")

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Token bad")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	code, body = call(t, h, http.MethodGet, "/api/user", "", true)
	require.Equal(t, http.StatusOK, code)

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "good", user["token"])
}

func TestUpdateUserStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"stale version", repo.ErrConflict, http.StatusConflict},
		{"duplicate email", repo.ErrAlreadyExists, http.StatusBadRequest},
		{"unknown failure", errBoom, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&fakeAPI{ //nolint:exhaustruct
				updateUser: func(authservice.UpdateUserRequest) (models.User, error) {
					return alice, tt.err
				},
			})

			code, _ := call(t, h, http.MethodPut, "/api/user", `{"user":{"lock_version":2}}`, true)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestUpdateUserRequiresLockVersion(t *testing.T) {
	h := newHandler(&fakeAPI{}) //nolint:exhaustruct

	code, body := call(t, h, http.MethodPut, "/api/user", `{"user":{"bio":"hi"}}`, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, fieldErrors(t, body), "lock_version")
}

func TestGetProfileNotFound(t *testing.T) {
	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		getProfile: func(string) (models.Profile, error) {
			return models.Profile{}, repo.ErrNotFound
		},
	})

	code, _ := call(t, h, http.MethodGet, "/api/profiles/nobody", "", true)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, h, http.MethodPost, "/api/profiles/nobody/follow", "", true)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListArticlesQuery(t *testing.T) {
	var got articleservice.ListRequest

	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		listArticles: func(req articleservice.ListRequest) ([]models.Article, error) {
			got = req
			if req.Author == "ghost" {
				return nil, articleservice.ErrAuthorNotFound
			}

			return []models.Article{{Slug: "a"}, {Slug: "b"}}, nil //nolint:exhaustruct
		},
	})

	code, body := call(t, h, http.MethodGet, "/api/articles?offset=5&limit=2&tag=go&author=alice", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["articlesCount"])

	require.NotNil(t, got.Offset)
	require.NotNil(t, got.Limit)
	assert.Equal(t, 5, *got.Offset)
	assert.Equal(t, 2, *got.Limit)
	assert.Equal(t, "go", got.Tag)
	assert.Equal(t, "alice", got.Author)

	tests := []struct {
		name   string
		target string
		field  string
	}{
		{"limit not a number", "/api/articles?limit=abc", "limit"},
		{"limit too big", "/api/articles?limit=101", "limit"},
		{"negative offset", "/api/articles?offset=-1", "offset"},
		{"offset too big", "/api/articles?offset=1001", "offset"},
		{"unknown author", "/api/articles?author=ghost", "author"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, h, http.MethodGet, tt.target, "", true)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, fieldErrors(t, body), tt.field)
		})
	}
}

func TestFeedEmptyPage(t *testing.T) {
	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		listArticles: func(articleservice.ListRequest) ([]models.Article, error) {
			return nil, nil
		},
	})

	code, body := call(t, h, http.MethodGet, "/api/articles/feed", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["articles"])
	assert.EqualValues(t, 0, body["articlesCount"])
}

func TestCreateArticle(t *testing.T) {
	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		createArticle: func(req articleservice.CreateRequest) (models.Article, error) {
			if req.Slug == "dup" {
				return models.Article{}, articleservice.ErrSlugTaken
			}

			return models.Article{Slug: req.Slug, Title: req.Title, TagList: req.TagList}, nil //nolint:exhaustruct
		},
	})

	code, body := call(t, h, http.MethodPost, "/api/articles",
		`{"article":{"slug":"s","title":"T","description":"d","body":"b","tagList":["go","db"]}}`, true)
	require.Equal(t, http.StatusCreated, code)

	article, ok := body["article"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"go", "db"}, article["tagList"])

	code, body = call(t, h, http.MethodPost, "/api/articles",
		`{"article":{"slug":"dup","title":"T","description":"d","body":"b"}}`, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, fieldErrors(t, body), "slug")

	code, body = call(t, h, http.MethodPost, "/api/articles",
		`{"article":{"slug":"s","title":"T","description":"d","body":"b","tagList":["go","Go"]}}`, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, fieldErrors(t, body), "tagList")
}

func TestArticleNotFound(t *testing.T) {
	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		getArticle: func(string) (models.Article, error) {
			return models.Article{}, repo.ErrNotFound
		},
	})

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		code, _ := call(t, h, method, "/api/articles/missing", "", true)
		assert.Equal(t, http.StatusNotFound, code, method)
	}

	code, _ := call(t, h, http.MethodPut, "/api/articles/missing", `{"article":{"title":"x"}}`, true)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, h, http.MethodPost, "/api/articles/missing/favorite", "", true)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteArticleEmptyBody(t *testing.T) {
	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		getArticle: func(slug string) (models.Article, error) {
			return models.Article{Slug: slug}, nil //nolint:exhaustruct
		},
	})

	code, body := call(t, h, http.MethodDelete, "/api/articles/mine", "", true)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body)
}

func TestDeleteComment(t *testing.T) {
	var deleted []int64

	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		deleteComment: func(id int64) error {
			if id == 13 {
				return commentservice.ErrForbidden
			}

			deleted = append(deleted, id)

			return nil
		},
	})

	code, body := call(t, h, http.MethodDelete, "/api/articles/any/comments/7", "", true)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body)
	assert.Equal(t, []int64{7}, deleted)

	code, body = call(t, h, http.MethodDelete, "/api/articles/any/comments/13", "", true)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, fieldErrors(t, body), "comment")

	code, body = call(t, h, http.MethodDelete, "/api/articles/any/comments/abc", "", true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, fieldErrors(t, body), "id")
}

func TestCreateCommentValidation(t *testing.T) {
	h := newHandler(&fakeAPI{}) //nolint:exhaustruct

	code, body := call(t, h, http.MethodPost, "/api/articles/a/comments", `{"comment":{"body":""}}`, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, fieldErrors(t, body), "body")

	code, _ = call(t, h, http.MethodPost, "/api/articles/a/comments", `{"comment":{"body":"hi"}}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestListTagsWithoutToken(t *testing.T) {
	h := newHandler(&fakeAPI{ //nolint:exhaustruct
		listTags: func() ([]string, error) {
			return []string{"go", "db"}, nil
		},
	})

	code, body := call(t, h, http.MethodGet, "/api/tags", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"go", "db"}, body["tags"])
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	h := newHandler(&fakeAPI{}) //nolint:exhaustruct

	code, body := call(t, h, http.MethodGet, "/api/tags", "", false)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, map[string]any{"body": []any{"internal server error"}}, body["errors"])
}

func TestHealth(t *testing.T) {
	f := &fakeAPI{} //nolint:exhaustruct
	h := newHandler(f)

	code, body := call(t, h, http.MethodGet, "/api/health", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"status": "ok"}, body["data"])
	assert.Contains(t, body, "errors")
	assert.Nil(t, body["errors"])

	f.ping = func() error { return errBoom }

	code, body = call(t, h, http.MethodGet, "/api/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Nil(t, body["data"])
	assert.Contains(t, fieldErrors(t, body), "database")
}
