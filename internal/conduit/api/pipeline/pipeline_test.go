package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	"github.com/Leopold1975/conduit/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenAuth map[string]models.User

func (a tokenAuth) Authenticate(_ context.Context, token string) (models.User, error) {
	u, ok := a[token]
	if !ok {
		return models.User{}, pipeline.Unauthorized(pipeline.Message("token", "is invalid"))
	}

	return u, nil
}

type input struct {
	Name string
}

func newRunner() *pipeline.Runner {
	return pipeline.NewRunner(tokenAuth{"good": {ID: 7, Username: "u1"}}, logger.NewNop())
}

func do(t *testing.T, h http.Handler, req *http.Request) (int, map[string]any) {
	t.Helper()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())

	return rr.Code, body
}

func TestPhasesInOrder(t *testing.T) {
	var calls []string

	m := pipeline.Manifest{ //nolint:exhaustruct
		Name:           "echo",
		RequiredParams: []string{"slug"},
		RequiredBody:   []string{"item"},
	}

	h := pipeline.Handle(newRunner(), m,
		func(c *pipeline.Context) (input, error) {
			calls = append(calls, "validate")

			var in input
			if err := c.Decode("item", &in); err != nil {
				return in, err
			}

			if in.Name == "" {
				return in, pipeline.BadRequest(pipeline.Message("name", "can't be blank"))
			}

			return in, nil
		},
		func(c *pipeline.Context, in input) (any, int, error) {
			calls = append(calls, "invoke")

			return map[string]string{"name": in.Name, "slug": c.Param("slug"), "user": c.User.Username},
				http.StatusCreated, nil
		},
	)

	r := chi.NewRouter()
	r.Post("/items/{slug}", h)

	req := httptest.NewRequest(http.MethodPost, "/items/abc", strings.NewReader(`{"item":{"Name":"x"}}`))
	req.Header.Set("Authorization", "Token good")

	code, body := do(t, r, req)

	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, map[string]any{"name": "x", "slug": "abc", "user": "u1"}, body)
	assert.Equal(t, []string{"validate", "invoke"}, calls)
}

func TestShortCircuit(t *testing.T) {
	invoked := false

	m := pipeline.Manifest{ //nolint:exhaustruct
		Name:           "guarded",
		RequiredParams: []string{"id"},
		RequiredBody:   []string{"item"},
	}

	h := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(*pipeline.Context, struct{}) (any, int, error) {
			invoked = true

			return nil, http.StatusOK, nil
		},
	)

	tests := []struct {
		name   string
		target string
		body   string
		auth   string
		status int
		field  string
	}{
		{"missing param", "/x", `{"item":{}}`, "Token good", http.StatusBadRequest, "id"},
		{"blank param", "/x?id=%20", `{"item":{}}`, "Token good", http.StatusBadRequest, "id"},
		{"missing body key", "/x?id=1", `{"other":1}`, "Token good", http.StatusBadRequest, "item"},
		{"unparsable body", "/x?id=1", `{"item":`, "Token good", http.StatusBadRequest, "item"},
		{"no header", "/x?id=1", `{"item":{}}`, "", http.StatusUnauthorized, "token"},
		{"wrong scheme", "/x?id=1", `{"item":{}}`, "Bearer good", http.StatusUnauthorized, "token"},
		{"unknown token", "/x?id=1", `{"item":{}}`, "Token bad", http.StatusUnauthorized, "token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoked = false

			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}

			code, body := do(t, h, req)

			assert.Equal(t, tt.status, code)
			assert.False(t, invoked)

			errs, ok := body["errors"].(map[string]any)
			require.True(t, ok, body)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestAuthExempt(t *testing.T) {
	m := pipeline.Manifest{Name: "open", AuthExempt: true} //nolint:exhaustruct

	h := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			return map[string]int64{"user": c.User.ID}, http.StatusOK, nil
		},
	)

	code, body := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 0, body["user"], 0)
}

func TestUnexpectedErrors(t *testing.T) {
	m := pipeline.Manifest{Name: "broken", AuthExempt: true} //nolint:exhaustruct

	failing := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(*pipeline.Context, struct{}) (any, int, error) {
			return nil, 0, errors.New("db is gone")
		},
	)

	panicking := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(*pipeline.Context, struct{}) (any, int, error) {
			panic("nil map")
		},
	)

	for _, h := range []http.Handler{failing, panicking} {
		code, body := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, map[string]any{"errors": map[string]any{"body": []any{"internal server error"}}}, body)
	}
}

func TestStatusOverride(t *testing.T) {
	m := pipeline.Manifest{Name: "override", AuthExempt: true} //nolint:exhaustruct

	h := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(c *pipeline.Context, _ struct{}) (any, int, error) {
			c.SetStatus(http.StatusTeapot)

			return nil, 0, pipeline.Forbidden(pipeline.Message("article", "is not yours"))
		},
	)

	code, body := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, code)
	assert.Contains(t, body["errors"], "article")
}

func TestWrappedEnvelope(t *testing.T) {
	m := pipeline.Manifest{Name: "health", AuthExempt: true, Envelope: pipeline.Wrapped} //nolint:exhaustruct

	ok := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(*pipeline.Context, struct{}) (any, int, error) {
			return map[string]string{"status": "ok"}, http.StatusOK, nil
		},
	)

	code, body := do(t, ok, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"data": map[string]any{"status": "ok"}, "errors": nil}, body)

	bad := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(*pipeline.Context, struct{}) (any, int, error) {
			return nil, 0, pipeline.NotFound(pipeline.Message("article", "not found"))
		},
	)

	code, body = do(t, bad, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, code)
	assert.Nil(t, body["data"])
	assert.NotNil(t, body["errors"])
}

func TestEmptyPayload(t *testing.T) {
	m := pipeline.Manifest{Name: "noop", AuthExempt: true} //nolint:exhaustruct

	h := pipeline.Handle(newRunner(), m, pipeline.NoInput,
		func(*pipeline.Context, struct{}) (any, int, error) {
			return nil, http.StatusOK, nil
		},
	)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{}`, rr.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
}
