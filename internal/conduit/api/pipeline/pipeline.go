// Package pipeline runs every API action through the same fixed phases:
// required params, required body keys, authentication, validation, invoke
// and response. The first failing phase skips straight to the response.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	"github.com/Leopold1975/conduit/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const (
	tokenPrefix = "Token "
	maxBodySize = 1 << 20
)

type Envelope int

const (
	// Bare writes the payload as is and failures as {"errors": ...}.
	Bare Envelope = iota
	// Wrapped writes {"data": ..., "errors": ...} for both outcomes.
	Wrapped
)

// Manifest is the static declaration of an action.
type Manifest struct {
	Name           string
	RequiredParams []string
	RequiredBody   []string
	AuthExempt     bool
	Envelope       Envelope
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// Context is the state shared by the phases of one request.
type Context struct {
	Request *http.Request
	Body    map[string]json.RawMessage
	User    models.User
	Token   string

	status int
	data   any
	errs   any
}

func (c *Context) Ctx() context.Context {
	return c.Request.Context()
}

// Param returns a path parameter, falling back to the query string.
func (c *Context) Param(name string) string {
	if v := chi.URLParam(c.Request, name); v != "" {
		return v
	}

	return c.Request.URL.Query().Get(name)
}

// Has reports whether the body carries key.
func (c *Context) Has(key string) bool {
	_, ok := c.Body[key]

	return ok
}

// Decode unmarshals the body value under key into dst. A missing key leaves
// dst untouched.
func (c *Context) Decode(key string, dst any) error {
	raw, ok := c.Body[key]
	if !ok {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return BadRequest(Message(key, "is malformed"))
	}

	return nil
}

// SetStatus overrides the status a later failure or invoke would set.
func (c *Context) SetStatus(code int) {
	c.status = code
}

func (c *Context) Status() int {
	return c.status
}

func (c *Context) fail(f *Failure) {
	if c.status == 0 {
		c.status = f.Status
	}

	c.errs = f.Errors
}

type Runner struct {
	auth Authenticator
	lg   logger.Logger
}

func NewRunner(auth Authenticator, lg logger.Logger) *Runner {
	return &Runner{
		auth: auth,
		lg:   lg,
	}
}

type phase func(*Context) error

// Handle builds the handler of one action. validate turns the request into
// the action input, invoke runs the action and returns payload and status.
func Handle[T any](r *Runner, m Manifest,
	validate func(*Context) (T, error),
	invoke func(*Context, T) (any, int, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		c := &Context{Request: req, Body: map[string]json.RawMessage{}} //nolint:exhaustruct

		var input T

		phases := []phase{
			r.checkParams(m),
			r.checkBody(m),
			r.checkAuth(m),
			func(c *Context) error {
				v, err := validate(c)
				if err != nil {
					return err
				}

				input = v

				return nil
			},
			func(c *Context) error {
				data, status, err := invoke(c, input)
				if err != nil {
					return err
				}

				c.data = data

				if c.status == 0 {
					c.status = status
				}

				return nil
			},
		}

		r.run(c, m, phases)
		r.respond(w, c, m)
	}
}

// NoInput is the default validation phase.
func NoInput(*Context) (struct{}, error) {
	return struct{}{}, nil
}

func (r *Runner) run(c *Context, m Manifest, phases []phase) {
	defer func() {
		if rec := recover(); rec != nil {
			r.lg.Errorf("%s panic: %v", m.Name, rec)
			r.internal(c)
		}
	}()

	for _, p := range phases {
		if err := p(c); err != nil {
			var f *Failure
			if errors.As(err, &f) {
				c.fail(f)

				return
			}

			r.lg.Errorf("%s error: %s", m.Name, err)
			r.internal(c)

			return
		}
	}
}

func (r *Runner) internal(c *Context) {
	c.status = http.StatusInternalServerError
	c.data = nil
	c.errs = Message("body", "internal server error")
}

func (r *Runner) checkParams(m Manifest) phase {
	return func(c *Context) error {
		missing := map[string][]string{}

		for _, name := range m.RequiredParams {
			if strings.TrimSpace(c.Param(name)) == "" {
				missing[name] = []string{"is required"}
			}
		}

		if len(missing) > 0 {
			return BadRequest(missing)
		}

		return nil
	}
}

func (r *Runner) checkBody(m Manifest) phase {
	return func(c *Context) error {
		if c.Request.Body != nil {
			b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
			if err == nil && len(b) > 0 {
				var body map[string]json.RawMessage
				if json.Unmarshal(b, &body) == nil && body != nil {
					c.Body = body
				}
			}
		}

		missing := map[string][]string{}

		for _, key := range m.RequiredBody {
			if !c.Has(key) {
				missing[key] = []string{"is required"}
			}
		}

		if len(missing) > 0 {
			return BadRequest(missing)
		}

		return nil
	}
}

func (r *Runner) checkAuth(m Manifest) phase {
	return func(c *Context) error {
		if m.AuthExempt {
			return nil
		}

		h := c.Request.Header.Get("Authorization")
		if !strings.HasPrefix(h, tokenPrefix) {
			return Unauthorized(Message("token", "is missing"))
		}

		token := strings.TrimSpace(strings.TrimPrefix(h, tokenPrefix))
		if token == "" {
			return Unauthorized(Message("token", "is missing"))
		}

		u, err := r.auth.Authenticate(c.Ctx(), token)
		if err != nil {
			return err
		}

		c.User = u
		c.Token = token

		return nil
	}
}

type wrapped struct {
	Data   any `json:"data"`
	Errors any `json:"errors"`
}

type bare struct {
	Errors any `json:"errors"`
}

func (r *Runner) respond(w http.ResponseWriter, c *Context, m Manifest) {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}

	var body any

	switch {
	case m.Envelope == Wrapped:
		body = wrapped{Data: c.data, Errors: c.errs}
	case c.errs != nil:
		body = bare{Errors: c.errs}
	case c.data != nil:
		body = c.data
	default:
		body = struct{}{}
	}

	b, err := json.Marshal(body)
	if err != nil {
		r.lg.Errorf("%s marshal error: %s", m.Name, err)

		status = http.StatusInternalServerError
		b = []byte(`{"errors":{"body":["internal server error"]}}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if _, err := w.Write(b); err != nil {
		r.lg.Errorf("%s write error: %s", m.Name, err)
	}
}
