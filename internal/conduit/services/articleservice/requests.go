package articleservice

import (
	"errors"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	maxTags      = 5
	maxTagLength = 20

	defaultOffset = 0
	defaultLimit  = 20
	maxOffset     = 1000
	maxLimit      = 100
)

type CreateRequest struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Slug, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Description, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Body, validation.Required, validation.Length(1, 1000)),
		validation.Field(&r.TagList, validation.By(validTagList)),
	)
}

// UpdateRequest holds the fields present in the request. A nil TagList
// keeps the article tags, an empty one clears them.
type UpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Body        *string   `json:"body"`
	TagList     *[]string `json:"tagList"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.When(r.Title != nil, validation.Required, validation.Length(1, 100))),
		validation.Field(&r.Description,
			validation.When(r.Description != nil, validation.Required, validation.Length(1, 500))),
		validation.Field(&r.Body, validation.When(r.Body != nil, validation.Required, validation.Length(1, 1000))),
		validation.Field(&r.TagList, validation.By(validTagList)),
	)
}

// validTagList accepts []string or *[]string. Absent lists are valid.
func validTagList(value interface{}) error {
	var tags []string

	switch v := value.(type) {
	case []string:
		tags = v
	case *[]string:
		if v != nil {
			tags = *v
		}
	}

	if len(tags) > maxTags {
		return errors.New("must have at most 5 tags")
	}

	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		if n := utf8.RuneCountInString(t); n < 1 || n > maxTagLength {
			return errors.New("each tag must be 1 to 20 characters")
		}

		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			return errors.New("must not contain duplicates")
		}

		seen[key] = struct{}{}
	}

	return nil
}

// ListRequest is the query of an article listing. Nil Offset and Limit take
// their defaults.
type ListRequest struct {
	Offset    *int   `json:"offset"`
	Limit     *int   `json:"limit"`
	Author    string `json:"author"`
	Tag       string `json:"tag"`
	Favorited string `json:"favorited"`
}

func (r ListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Offset, validation.Min(0), validation.Max(maxOffset)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(maxLimit)),
	)
}

// Page returns offset and limit with defaults applied.
func (r ListRequest) Page() (uint64, uint64) {
	offset, limit := defaultOffset, defaultLimit

	if r.Offset != nil {
		offset = *r.Offset
	}

	if r.Limit != nil {
		limit = *r.Limit
	}

	return uint64(offset), uint64(limit) //nolint:gosec
}
