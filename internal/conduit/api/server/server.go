package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leopold1975/conduit/internal/conduit/api/pipeline"
	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	"github.com/Leopold1975/conduit/internal/conduit/services/articleservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/authservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/commentservice"
	"github.com/Leopold1975/conduit/internal/pkg/config"
	"github.com/Leopold1975/conduit/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	serv           *http.Server
	runner         *pipeline.Runner
	lg             logger.Logger
	authService    AuthService
	profileService ProfileService
	articleService ArticleService
	commentService CommentService
	tagService     TagService
	pinger         Pinger
}

type AuthService interface {
	Register(context.Context, authservice.RegisterRequest) (models.User, string, error)
	Login(context.Context, authservice.LoginRequest) (models.User, string, error)
	Authenticate(context.Context, string) (models.User, error)
	UpdateUser(context.Context, models.User, authservice.UpdateUserRequest) (models.User, error)
}

type ProfileService interface {
	GetProfile(context.Context, models.User, string) (models.Profile, error)
	Follow(context.Context, models.User, string) (models.Profile, error)
	Unfollow(context.Context, models.User, string) (models.Profile, error)
}

type ArticleService interface {
	ListArticles(context.Context, models.User, articleservice.ListRequest) ([]models.Article, error)
	Feed(context.Context, models.User, articleservice.ListRequest) ([]models.Article, error)
	GetArticle(context.Context, models.User, string) (models.Article, error)
	CreateArticle(context.Context, models.User, articleservice.CreateRequest) (models.Article, error)
	UpdateArticle(context.Context, models.User, string, articleservice.UpdateRequest) (models.Article, error)
	DeleteArticle(context.Context, models.User, string) error
	Favorite(context.Context, models.User, string) (models.Article, error)
	Unfavorite(context.Context, models.User, string) (models.Article, error)
}

type CommentService interface {
	ListComments(context.Context, models.User, string) ([]models.Comment, error)
	CreateComment(context.Context, models.User, string, commentservice.CreateRequest) (models.Comment, error)
	DeleteComment(context.Context, models.User, int64) error
}

type TagService interface {
	ListTags(context.Context) ([]string, error)
}

// Pinger reports whether the storage behind the API is reachable.
type Pinger interface {
	Ping(context.Context) error
}

type Services struct {
	Auth     AuthService
	Profiles ProfileService
	Articles ArticleService
	Comments CommentService
	Tags     TagService
	Health   Pinger
}

func New(cfg config.Server, svc Services, lg logger.Logger) *Server {
	s := &Server{
		authService:    svc.Auth,
		profileService: svc.Profiles,
		articleService: svc.Articles,
		commentService: svc.Comments,
		tagService:     svc.Tags,
		pinger:         svc.Health,
		lg:             lg,
	}
	s.runner = pipeline.NewRunner(authenticator{svc.Auth}, lg)

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, loggingMiddleware(s.lg))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health())

		r.Post("/users", s.register())
		r.Post("/users/login", s.login())
		r.Get("/user", s.currentUser())
		r.Put("/user", s.updateUser())

		r.Get("/profiles/{username}", s.getProfile())
		r.Post("/profiles/{username}/follow", s.follow())
		r.Delete("/profiles/{username}/follow", s.unfollow())

		r.Get("/articles", s.listArticles())
		r.Post("/articles", s.createArticle())
		r.Get("/articles/feed", s.feed())
		r.Get("/articles/{slug}", s.getArticle())
		r.Put("/articles/{slug}", s.updateArticle())
		r.Delete("/articles/{slug}", s.deleteArticle())
		r.Post("/articles/{slug}/favorite", s.favorite())
		r.Delete("/articles/{slug}/favorite", s.unfavorite())

		r.Get("/articles/{slug}/comments", s.listComments())
		r.Post("/articles/{slug}/comments", s.createComment())
		r.Delete("/articles/{slug}/comments/{id}", s.deleteComment())

		r.Get("/tags", s.listTags())
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.serv.Handler
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			close(errCh)
		}
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctxS, cancel := context.WithTimeout(ctx, s.serv.IdleTimeout)
	defer cancel()

	if err := s.serv.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}
