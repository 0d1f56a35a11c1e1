package conduitrepo

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("stale lock_version")
)

// ArticleFilter narrows article listings. Zero values are ignored.
type ArticleFilter struct {
	Author     string
	Tag        string
	Favorited  string
	FollowedBy int64
	Offset     uint64
	Limit      uint64
}

// ArticleKey finds a single article by slug. A zero OwnerID matches any
// author and picks the oldest article with that slug.
type ArticleKey struct {
	Slug    string
	OwnerID int64
}
