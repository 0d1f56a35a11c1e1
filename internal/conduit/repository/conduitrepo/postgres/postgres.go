package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Leopold1975/conduit/internal/pkg/config"
	"github.com/Leopold1975/conduit/internal/pkg/pgtools"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConduitPostgresRepo struct {
	db *pgxpool.Pool
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func New(ctx context.Context, cfg config.PostgresDB) (ConduitPostgresRepo, error) {
	db, err := pgtools.Connect(ctx, cfg.ConnString())
	if err != nil {
		return ConduitPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg); err != nil {
		db.Close()

		return ConduitPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return ConduitPostgresRepo{
		db: db,
	}, nil
}

func (cr ConduitPostgresRepo) Ping(ctx context.Context) error {
	if err := cr.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping error: %w", err)
	}

	return nil
}

func (cr ConduitPostgresRepo) Shutdown(ctx context.Context) error {
	if err := pgtools.Close(ctx, cr.db); err != nil {
		return fmt.Errorf("close pool error: %w", err)
	}

	return nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
