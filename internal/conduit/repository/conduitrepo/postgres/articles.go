package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"github.com/Leopold1975/conduit/internal/conduit/tagsync"
	"github.com/Leopold1975/conduit/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// selectArticles selects articles in their API shape as seen by viewerID.
func selectArticles(viewerID int64) squirrel.SelectBuilder {
	return pgtools.Psql.Select(
		"a.id", "a.slug", "a.title", "a.description", "a.body", "a.user_id", "a.created_at", "a.updated_at",
		"COALESCE((SELECT array_agg(t.name ORDER BY at.position) FROM article_tags at "+
			"JOIN tags t ON t.id = at.tag_id WHERE at.article_id = a.id), '{}')",
		"(SELECT count(*) FROM favorites f WHERE f.article_id = a.id)",
	).
		Column(squirrel.Expr(
			"EXISTS (SELECT 1 FROM favorites f WHERE f.article_id = a.id AND f.user_id = ?)", viewerID)).
		Columns("u.id", "u.username", "u.bio", "u.image").
		Column(squirrel.Expr(
			"EXISTS (SELECT 1 FROM relationships r WHERE r.followed_id = u.id AND r.follower_id = ?)", viewerID)).
		From("articles a").
		Join("users u ON u.id = a.user_id")
}

func scanArticle(row pgx.Row) (models.Article, error) {
	var a models.Article

	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Description, &a.Body, &a.UserID, &a.CreatedAt, &a.UpdatedAt,
		&a.TagList, &a.FavoritesCount, &a.Favorited,
		&a.Author.ID, &a.Author.Username, &a.Author.Bio, &a.Author.Image, &a.Author.Following)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, repo.ErrNotFound
		}

		return a, fmt.Errorf("scan error: %w", err)
	}

	return a, nil
}

// ListArticles returns a page of articles, most recently updated first.
func (cr ConduitPostgresRepo) ListArticles(ctx context.Context, viewerID int64,
	f repo.ArticleFilter,
) ([]models.Article, error) {
	q := selectArticles(viewerID)

	if f.Author != "" {
		q = q.Where(squirrel.Eq{"u.username": f.Author})
	}

	if f.Tag != "" {
		q = q.Where("EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON t.id = at.tag_id "+
			"WHERE at.article_id = a.id AND lower(t.name) = lower(?))", f.Tag)
	}

	if f.Favorited != "" {
		q = q.Where("EXISTS (SELECT 1 FROM favorites f JOIN users fu ON fu.id = f.user_id "+
			"WHERE f.article_id = a.id AND fu.username = ?)", f.Favorited)
	}

	if f.FollowedBy != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM relationships r "+
			"WHERE r.followed_id = a.user_id AND r.follower_id = ?)", f.FollowedBy)
	}

	query, args, err := q.OrderBy("a.updated_at DESC", "a.id DESC").
		Offset(f.Offset).
		Limit(f.Limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := cr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	articles := make([]models.Article, 0, f.Limit)

	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}

		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return articles, nil
}

func getArticle(ctx context.Context, q querier, viewerID int64, key repo.ArticleKey) (models.Article, error) {
	sb := selectArticles(viewerID).
		Where(squirrel.Expr("lower(a.slug) = lower(?)", key.Slug))

	if key.OwnerID != 0 {
		sb = sb.Where(squirrel.Eq{"a.user_id": key.OwnerID})
	}

	query, args, err := sb.OrderBy("a.id").Limit(1).ToSql()
	if err != nil {
		return models.Article{}, fmt.Errorf("to sql error: %w", err)
	}

	return scanArticle(q.QueryRow(ctx, query, args...))
}

func (cr ConduitPostgresRepo) GetArticle(ctx context.Context, viewerID int64,
	key repo.ArticleKey,
) (models.Article, error) {
	return getArticle(ctx, cr.db, viewerID, key)
}

// CreateArticle inserts the article and links its tags in one transaction.
func (cr ConduitPostgresRepo) CreateArticle(ctx context.Context, //nolint:nonamedreturns
	a models.Article,
) (created models.Article, ch tagsync.Changes, err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return models.Article{}, ch, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create article")
	}()

	query, args, err := pgtools.Psql.Insert("articles").
		Columns("slug", "title", "description", "body", "user_id").
		Values(a.Slug, a.Title, a.Description, a.Body, a.UserID).
		Suffix("RETURNING id, created_at, updated_at").ToSql()
	if err != nil {
		return models.Article{}, ch, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if pgtools.IsCode(err, pgtools.UniqueViolation) {
			return models.Article{}, ch, repo.ErrAlreadyExists
		}

		return models.Article{}, ch, fmt.Errorf("scan error: %w", err)
	}

	ch, err = tagsync.Reconcile(ctx, tagStore{q: tx}, a.ID, a.TagList)
	if err != nil {
		return models.Article{}, ch, fmt.Errorf("reconcile tags error: %w", err)
	}

	a.TagList = ch.Tags

	return a, ch, nil
}

// UpdateArticle saves the article fields. A nil tags leaves the links as they
// are, an empty one removes them all.
func (cr ConduitPostgresRepo) UpdateArticle(ctx context.Context, //nolint:nonamedreturns
	a models.Article, tags *[]string,
) (updated models.Article, ch tagsync.Changes, err error) {
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return models.Article{}, ch, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update article")
	}()

	query, args, err := pgtools.Psql.Update("articles").
		Set("title", a.Title).
		Set("description", a.Description).
		Set("body", a.Body).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").ToSql()
	if err != nil {
		return models.Article{}, ch, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Article{}, ch, repo.ErrNotFound
		}

		return models.Article{}, ch, fmt.Errorf("scan error: %w", err)
	}

	if tags == nil {
		return a, ch, nil
	}

	ch, err = tagsync.Reconcile(ctx, tagStore{q: tx}, a.ID, *tags)
	if err != nil {
		return models.Article{}, ch, fmt.Errorf("reconcile tags error: %w", err)
	}

	a.TagList = ch.Tags

	return a, ch, nil
}

func (cr ConduitPostgresRepo) DeleteArticle(ctx context.Context, articleID int64) (err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete article")
	}()

	query, args, err := pgtools.Psql.Delete("articles").
		Where(squirrel.Eq{"id": articleID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}
