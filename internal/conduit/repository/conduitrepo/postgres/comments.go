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

func selectComments(viewerID int64) squirrel.SelectBuilder {
	return pgtools.Psql.Select("c.id", "c.body", "c.created_at", "c.updated_at", "c.article_id",
		"u.id", "u.username", "u.bio", "u.image").
		Column(squirrel.Expr(
			"EXISTS (SELECT 1 FROM relationships r WHERE r.followed_id = u.id AND r.follower_id = ?)", viewerID)).
		From("comments c").
		Join("users u ON u.id = c.user_id")
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment

	err := row.Scan(&c.ID, &c.Body, &c.CreatedAt, &c.UpdatedAt, &c.ArticleID,
		&c.Author.ID, &c.Author.Username, &c.Author.Bio, &c.Author.Image, &c.Author.Following)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, repo.ErrNotFound
		}

		return c, fmt.Errorf("scan error: %w", err)
	}

	c.UserID = c.Author.ID

	return c, nil
}

// ListComments returns the comments of an article, newest first.
func (cr ConduitPostgresRepo) ListComments(ctx context.Context, viewerID, articleID int64) ([]models.Comment, error) {
	query, args, err := selectComments(viewerID).
		Where(squirrel.Eq{"c.article_id": articleID}).
		OrderBy("c.created_at DESC", "c.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := cr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return comments, nil
}

func (cr ConduitPostgresRepo) GetComment(ctx context.Context, viewerID, commentID int64) (models.Comment, error) {
	query, args, err := selectComments(viewerID).
		Where(squirrel.Eq{"c.id": commentID}).ToSql()
	if err != nil {
		return models.Comment{}, fmt.Errorf("to sql error: %w", err)
	}

	return scanComment(cr.db.QueryRow(ctx, query, args...))
}

func (cr ConduitPostgresRepo) CreateComment(ctx context.Context, c models.Comment) (int64, error) {
	query, args, err := pgtools.Psql.Insert("comments").
		Columns("body", "article_id", "user_id").
		Values(c.Body, c.ArticleID, c.UserID).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	var id int64

	if err := cr.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if pgtools.IsCode(err, pgtools.ForeignKeyViolation) {
			return 0, repo.ErrNotFound
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (cr ConduitPostgresRepo) DeleteComment(ctx context.Context, commentID int64) error {
	query, args, err := pgtools.Psql.Delete("comments").
		Where(squirrel.Eq{"id": commentID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := cr.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}
