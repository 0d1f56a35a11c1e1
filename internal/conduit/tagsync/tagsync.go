// Package tagsync aligns the persisted tag links of an article with a
// requested ordered list of tag names.
package tagsync

import (
	"context"
	"fmt"
	"strings"
)

// Link is a stored association between an article and a tag.
type Link struct {
	TagID    int64
	Name     string
	Position int
}

// Store is the transactional view of tags and article links. All calls made
// by Reconcile for one article are expected to share a single transaction.
type Store interface {
	ArticleLinks(ctx context.Context, articleID int64) ([]Link, error)
	TagIDByName(ctx context.Context, name string) (int64, bool, error)
	CreateTag(ctx context.Context, name string) (int64, error)
	InsertLink(ctx context.Context, articleID, tagID int64, position int) error
	UpdateLinkPosition(ctx context.Context, articleID, tagID int64, position int) error
	DeleteLinks(ctx context.Context, articleID int64, tagIDs []int64) error
}

// Step is the work planned for one requested name.
type Step struct {
	Name     string
	Position int
	// Current is nil when the article is not linked to the tag yet.
	Current *Link
}

// Moved reports whether an existing link has to change its position.
func (s Step) Moved() bool {
	return s.Current != nil && s.Current.Position != s.Position
}

type Plan struct {
	Remove []Link
	Steps  []Step
}

// Changes summarises the writes made by Reconcile.
type Changes struct {
	Removed     int
	Inserted    int
	Moved       int
	CreatedTags int
	// Tags is the article tag list read back after the writes.
	Tags []string
}

// Writes is the number of link rows touched.
func (c Changes) Writes() int {
	return c.Removed + c.Inserted + c.Moved
}

func Normalize(names []string) []string {
	out := make([]string, 0, len(names))

	for _, n := range names {
		out = append(out, strings.ToLower(n))
	}

	return out
}

// NewPlan diffs the current links against the requested names. Requested
// names must already be normalized and free of duplicates.
func NewPlan(current []Link, requested []string) Plan {
	wanted := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		wanted[name] = struct{}{}
	}

	byName := make(map[string]Link, len(current))

	var p Plan

	for _, l := range current {
		name := strings.ToLower(l.Name)
		if _, ok := wanted[name]; !ok {
			p.Remove = append(p.Remove, l)

			continue
		}

		byName[name] = l
	}

	p.Steps = make([]Step, 0, len(requested))

	for i, name := range requested {
		step := Step{Name: name, Position: i} //nolint:exhaustruct

		if l, ok := byName[name]; ok {
			step.Current = &l
		}

		p.Steps = append(p.Steps, step)
	}

	return p
}

// Reconcile makes the article links match requested exactly, creating
// missing tags on the way. An empty list unlinks every tag. Tag rows are
// never deleted.
func Reconcile(ctx context.Context, s Store, articleID int64, requested []string) (Changes, error) {
	var ch Changes

	current, err := s.ArticleLinks(ctx, articleID)
	if err != nil {
		return ch, fmt.Errorf("article links error: %w", err)
	}

	p := NewPlan(current, Normalize(requested))

	if len(p.Remove) > 0 {
		ids := make([]int64, 0, len(p.Remove))
		for _, l := range p.Remove {
			ids = append(ids, l.TagID)
		}

		if err := s.DeleteLinks(ctx, articleID, ids); err != nil {
			return ch, fmt.Errorf("delete links error: %w", err)
		}

		ch.Removed = len(ids)
	}

	for _, step := range p.Steps {
		switch {
		case step.Current == nil:
			tagID, created, err := ensureTag(ctx, s, step.Name)
			if err != nil {
				return ch, err
			}

			if created {
				ch.CreatedTags++
			}

			if err := s.InsertLink(ctx, articleID, tagID, step.Position); err != nil {
				return ch, fmt.Errorf("insert link %q error: %w", step.Name, err)
			}

			ch.Inserted++
		case step.Moved():
			if err := s.UpdateLinkPosition(ctx, articleID, step.Current.TagID, step.Position); err != nil {
				return ch, fmt.Errorf("update link %q error: %w", step.Name, err)
			}

			ch.Moved++
		}
	}

	links, err := s.ArticleLinks(ctx, articleID)
	if err != nil {
		return ch, fmt.Errorf("article links error: %w", err)
	}

	ch.Tags = Names(links)

	return ch, nil
}

// Names returns the tag names of links in position order.
func Names(links []Link) []string {
	names := make([]string, len(links))

	for i, l := range links {
		names[i] = l.Name
	}

	return names
}

func ensureTag(ctx context.Context, s Store, name string) (int64, bool, error) {
	id, ok, err := s.TagIDByName(ctx, name)
	if err != nil {
		return 0, false, fmt.Errorf("tag by name %q error: %w", name, err)
	}

	if ok {
		return id, false, nil
	}

	id, err = s.CreateTag(ctx, name)
	if err != nil {
		return 0, false, fmt.Errorf("create tag %q error: %w", name, err)
	}

	return id, true, nil
}
