package pgtools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/conduit/internal/pkg/config"
	"github.com/Leopold1975/conduit/migrations"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // driver for migrations
	"github.com/pressly/goose/v3"
)

const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
)

// Psql is the statement builder shared by all repositories.
var Psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar) //nolint:gochecknoglobals

func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	errCh := make(chan error)
	db := new(pgxpool.Pool)

	go func() {
		defer close(errCh)

		dbc, err := pgxpool.New(ctx, connString)
		if err != nil {
			errCh <- fmt.Errorf("cannot create db pool error: %w", err)

			return
		}

		defaultDelay := time.Second

		for {
			if err := dbc.Ping(ctx); err != nil {
				time.Sleep(defaultDelay)
				defaultDelay += time.Second

				if defaultDelay > time.Second*10 {
					errCh <- fmt.Errorf("cannot ping db error: %w", err)

					return
				}

				continue
			}

			break
		}

		db = dbc
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context error: %w", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return nil, err
		}

		return db, nil
	}
}

// ApplyMigration runs the embedded goose migrations. Version 0 means latest.
func ApplyMigration(cfg config.PostgresDB) error {
	defaultVersion := 0

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect error: %w", err)
	}

	dbM, err := goose.OpenDBWithDriver("pgx", cfg.URL()+"?sslmode="+cfg.SSLmode)
	if err != nil {
		return fmt.Errorf("goose open pgx db error: %w", err)
	}
	defer dbM.Close()

	if cfg.Reload {
		if err := goose.DownTo(dbM, ".", int64(defaultVersion)); err != nil {
			return fmt.Errorf("goose down error: %w", err)
		}
	}

	if cfg.Version == 0 {
		if err := goose.Up(dbM, "."); err != nil {
			return fmt.Errorf("goose up error: %w", err)
		}

		return nil
	}

	if err := goose.UpTo(dbM, ".", int64(cfg.Version)); err != nil {
		return fmt.Errorf("goose up error: %w", err)
	}

	return nil
}

func CommitOrRollback(ctx context.Context, tx pgx.Tx, err error, where string) error {
	if err == nil {
		if errT := tx.Commit(ctx); errT != nil {
			err = fmt.Errorf("commit error: %w", errT)
		}
	} else {
		if errT := tx.Rollback(ctx); errT != nil {
			err = fmt.Errorf("%s error: %w rollback error: %w", where, err, errT)
		} else {
			err = fmt.Errorf("%s error: %w", where, err)
		}
	}

	return err
}

// IsCode reports whether err is a postgres error with the given SQLSTATE.
func IsCode(err error, code string) bool {
	target := new(pgconn.PgError)
	if errors.As(err, &target) {
		return target.Code == code
	}

	return false
}

func Close(ctx context.Context, db *pgxpool.Pool) error {
	done := make(chan struct{})

	go func() {
		db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}
