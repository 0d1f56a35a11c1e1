package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/conduit/internal/conduit/api/server"
	"github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo/postgres"
	"github.com/Leopold1975/conduit/internal/conduit/repository/tagcache/redis"
	"github.com/Leopold1975/conduit/internal/conduit/services/articleservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/authservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/commentservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/profileservice"
	"github.com/Leopold1975/conduit/internal/conduit/services/tagservice"
	"github.com/Leopold1975/conduit/internal/pkg/config"
	"github.com/Leopold1975/conduit/internal/pkg/jwtauth"
	"github.com/Leopold1975/conduit/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

// Closer is a backing store released after the server stops.
type Closer interface {
	Shutdown(context.Context) error
}

type ConduitApp struct {
	s       Server
	lg      logger.Logger
	cfg     config.Config
	closers []Closer
}

func New(ctx context.Context, cfg config.Config) (ConduitApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return ConduitApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	repo, err := postgres.New(ctx, cfg.PostgresDB)
	if err != nil {
		return ConduitApp{}, fmt.Errorf("postgres conduit repo initializing error: %w", err)
	}

	tc, err := redis.New(ctx, cfg.RedisCache)
	if err != nil {
		_ = repo.Shutdown(ctx)

		return ConduitApp{}, fmt.Errorf("redis tag cache initializing error: %w", err)
	}

	tokens := jwtauth.New(cfg.Auth.Secret, cfg.Auth.TTL)

	s := server.New(cfg.Server, server.Services{
		Auth:     authservice.New(repo, tokens),
		Profiles: profileservice.New(repo),
		Articles: articleservice.New(repo, tc, lg),
		Comments: commentservice.New(repo),
		Tags:     tagservice.New(repo, tc, lg),
		Health:   repo,
	}, lg)

	return ConduitApp{
		s:       s,
		lg:      lg,
		cfg:     cfg,
		closers: []Closer{tc, repo},
	}, nil
}

// Run serves until ctx is done. The server shuts itself down on cancel,
// the stores are closed afterwards.
func (ca *ConduitApp) Run(ctx context.Context) {
	ca.lg.Infof("STARTED SERVER ON %s", ca.cfg.Server.Addr)

	if err := ca.s.Start(ctx); err != nil {
		ca.lg.Errorf("server start error: %s", err.Error())
	}

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := ca.Stop(ctxS); err != nil { //nolint:contextcheck
		ca.lg.Errorf("stop error: %s", err.Error())
	}
}

func (ca *ConduitApp) Stop(ctx context.Context) error {
	for _, c := range ca.closers {
		if err := c.Shutdown(ctx); err != nil {
			return fmt.Errorf("store shutdown error: %w", err)
		}
	}

	ca.lg.Info("Shutdowned successfully")

	_ = ca.lg.Sync()

	return nil
}
