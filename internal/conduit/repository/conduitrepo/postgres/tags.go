package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/tagsync"
	"github.com/Leopold1975/conduit/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// tagStore runs tag reconciliation inside the article transaction.
type tagStore struct {
	q querier
}

func (ts tagStore) ArticleLinks(ctx context.Context, articleID int64) ([]tagsync.Link, error) {
	query, args, err := pgtools.Psql.Select("at.tag_id", "t.name", "at.position").
		From("article_tags at").
		Join("tags t ON t.id = at.tag_id").
		Where(squirrel.Eq{"at.article_id": articleID}).
		OrderBy("at.position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ts.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	links := make([]tagsync.Link, 0)

	for rows.Next() {
		var l tagsync.Link

		if err := rows.Scan(&l.TagID, &l.Name, &l.Position); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return links, nil
}

func (ts tagStore) TagIDByName(ctx context.Context, name string) (int64, bool, error) {
	query, args, err := pgtools.Psql.Select("id").
		From("tags").
		Where(squirrel.Expr("lower(name) = lower(?)", name)).ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("to sql error: %w", err)
	}

	var id int64

	if err := ts.q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("scan error: %w", err)
	}

	return id, true, nil
}

// CreateTag inserts the tag or, when a concurrent transaction created it
// first, returns the existing id.
func (ts tagStore) CreateTag(ctx context.Context, name string) (int64, error) {
	query, args, err := pgtools.Psql.Insert("tags").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT ((lower(name))) DO NOTHING RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	var id int64

	err = ts.q.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		id, _, err = ts.TagIDByName(ctx, name)
	}

	if err != nil {
		return 0, fmt.Errorf("insert tag error: %w", err)
	}

	return id, nil
}

func (ts tagStore) InsertLink(ctx context.Context, articleID, tagID int64, position int) error {
	query, args, err := pgtools.Psql.Insert("article_tags").
		Columns("article_id", "tag_id", "position").
		Values(articleID, tagID, position).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := ts.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (ts tagStore) UpdateLinkPosition(ctx context.Context, articleID, tagID int64, position int) error {
	query, args, err := pgtools.Psql.Update("article_tags").
		Set("position", position).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"article_id": articleID, "tag_id": tagID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := ts.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (ts tagStore) DeleteLinks(ctx context.Context, articleID int64, tagIDs []int64) error {
	query, args, err := pgtools.Psql.Delete("article_tags").
		Where(squirrel.Eq{"article_id": articleID, "tag_id": tagIDs}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := ts.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

// ListTags returns every tag name, linked or not.
func (cr ConduitPostgresRepo) ListTags(ctx context.Context) ([]string, error) {
	query, args, err := pgtools.Psql.Select("name").
		From("tags").
		OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := cr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect rows error: %w", err)
	}

	return tags, nil
}
