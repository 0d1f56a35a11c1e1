package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"github.com/Leopold1975/conduit/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{ //nolint:gochecknoglobals
	"id", "email", "username", "password_hash", "bio", "image", "lock_version", "created_at", "updated_at",
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User

	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Bio, &u.Image,
		&u.LockVersion, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, repo.ErrNotFound
		}

		return u, fmt.Errorf("scan error: %w", err)
	}

	return u, nil
}

func (cr ConduitPostgresRepo) CreateUser(ctx context.Context, //nolint:nonamedreturns
	u models.User,
) (created models.User, err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create user")
	}()

	query, args, err := pgtools.Psql.Insert("users").
		Columns("email", "username", "password_hash", "bio", "image").
		Values(u.Email, u.Username, u.PasswordHash, u.Bio, u.Image).
		Suffix("RETURNING " + joinColumns(userColumns)).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	created, err = scanUser(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if pgtools.IsCode(err, pgtools.UniqueViolation) {
			return models.User{}, repo.ErrAlreadyExists
		}

		return models.User{}, err
	}

	return created, nil
}

func (cr ConduitPostgresRepo) getUser(ctx context.Context, where squirrel.Sqlizer) (models.User, error) {
	query, args, err := pgtools.Psql.Select(userColumns...).
		From("users").
		Where(where).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	return scanUser(cr.db.QueryRow(ctx, query, args...))
}

func (cr ConduitPostgresRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return cr.getUser(ctx, squirrel.Eq{"id": id})
}

func (cr ConduitPostgresRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return cr.getUser(ctx, squirrel.Expr("lower(email) = lower(?)", email))
}

func (cr ConduitPostgresRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return cr.getUser(ctx, squirrel.Eq{"username": username})
}

// UpdateUser saves email, bio and image if u.LockVersion still matches the
// stored version and bumps the version. A mismatch yields ErrConflict.
func (cr ConduitPostgresRepo) UpdateUser(ctx context.Context, //nolint:nonamedreturns
	u models.User,
) (updated models.User, err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update user")
	}()

	query, args, err := pgtools.Psql.Update("users").
		Set("email", u.Email).
		Set("bio", u.Bio).
		Set("image", u.Image).
		Set("lock_version", squirrel.Expr("lock_version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": u.ID, "lock_version": u.LockVersion}).
		Suffix("RETURNING " + joinColumns(userColumns)).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	updated, err = scanUser(tx.QueryRow(ctx, query, args...))

	switch {
	case errors.Is(err, repo.ErrNotFound):
		return models.User{}, repo.ErrConflict
	case pgtools.IsCode(err, pgtools.UniqueViolation):
		return models.User{}, repo.ErrAlreadyExists
	case err != nil:
		return models.User{}, err
	}

	return updated, nil
}
