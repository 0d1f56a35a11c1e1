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

func (cr ConduitPostgresRepo) GetProfile(ctx context.Context, viewerID int64, username string) (models.Profile, error) {
	query, args, err := pgtools.Psql.Select("u.id", "u.username", "u.bio", "u.image").
		Column(squirrel.Expr(
			"EXISTS (SELECT 1 FROM relationships r WHERE r.followed_id = u.id AND r.follower_id = ?)", viewerID)).
		From("users u").
		Where(squirrel.Eq{"u.username": username}).ToSql()
	if err != nil {
		return models.Profile{}, fmt.Errorf("to sql error: %w", err)
	}

	var p models.Profile

	if err := cr.db.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Username, &p.Bio, &p.Image, &p.Following); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, repo.ErrNotFound
		}

		return p, fmt.Errorf("scan error: %w", err)
	}

	return p, nil
}

// Follow is a no-op when the relationship already exists.
func (cr ConduitPostgresRepo) Follow(ctx context.Context, followerID, followedID int64) error {
	query, args, err := pgtools.Psql.Insert("relationships").
		Columns("follower_id", "followed_id").
		Values(followerID, followedID).
		Suffix("ON CONFLICT (follower_id, followed_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := cr.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (cr ConduitPostgresRepo) Unfollow(ctx context.Context, followerID, followedID int64) error {
	query, args, err := pgtools.Psql.Delete("relationships").
		Where(squirrel.Eq{"follower_id": followerID, "followed_id": followedID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := cr.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

// Favorite is a no-op when the user already favorited the article.
func (cr ConduitPostgresRepo) Favorite(ctx context.Context, userID, articleID int64) error {
	query, args, err := pgtools.Psql.Insert("favorites").
		Columns("user_id", "article_id").
		Values(userID, articleID).
		Suffix("ON CONFLICT (user_id, article_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := cr.db.Exec(ctx, query, args...); err != nil {
		if pgtools.IsCode(err, pgtools.ForeignKeyViolation) {
			return repo.ErrNotFound
		}

		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (cr ConduitPostgresRepo) Unfavorite(ctx context.Context, userID, articleID int64) error {
	query, args, err := pgtools.Psql.Delete("favorites").
		Where(squirrel.Eq{"user_id": userID, "article_id": articleID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := cr.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}
