// Package content exposes the site's collections over HTTP. The generic
// Service and Handler are specialised per kind by the subpackages.
package content

import (
	"context"
	"strings"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/pkg/textutil"
)

// Query narrows a list. Empty fields match everything.
type Query struct {
	Tag      string `form:"tag"`
	Q        string `form:"q"`
	Category string `form:"category"`

	// Admin lifts visibility rules such as hidden drafts.
	Admin bool `form:"-"`
}

// Filter is a kind-specific predicate applied after the generic tag and text
// filters, e.g. review category or draft visibility.
type Filter[P models.Publishable] func(item P, q Query) bool

// Service wraps one collection with list filtering and neighbour lookup.
type Service[T any, P interface {
	*T
	models.Publishable
}] struct {
	col    *database.Collection[T, P]
	filter Filter[P]
}

func NewService[T any, P interface {
	*T
	models.Publishable
}](col *database.Collection[T, P], filter Filter[P]) *Service[T, P] {
	return &Service[T, P]{col: col, filter: filter}
}

// Kind names the wrapped collection.
func (s *Service[T, P]) Kind() models.Kind { return s.col.Kind() }

// List returns the items matching q, newest first.
func (s *Service[T, P]) List(ctx context.Context, q Query) ([]P, error) {
	items, err := s.col.List(ctx)
	if err != nil {
		return nil, err
	}

	tag := strings.TrimSpace(q.Tag)
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	out := make([]P, 0, len(items))
	for _, it := range items {
		base := it.Base()
		if tag != "" && !textutil.ContainsFold(base.Tags, tag) {
			continue
		}
		if needle != "" && !strings.Contains(base.SearchText(), needle) {
			continue
		}
		if s.filter != nil && !s.filter(it, q) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Get returns the item with slug if q allows it to be seen.
func (s *Service[T, P]) Get(ctx context.Context, slug string, q Query) (P, error) {
	item, err := s.col.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.filter != nil && !s.filter(item, Query{Admin: q.Admin}) {
		return nil, database.ErrNotFound
	}
	return item, nil
}

// Neighbors returns the items listed directly before and after slug under q.
// Either may be nil at the ends of the list.
func (s *Service[T, P]) Neighbors(ctx context.Context, slug string, q Query) (prev, next P, err error) {
	items, err := s.List(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	for i, it := range items {
		if !strings.EqualFold(it.Base().Slug, slug) {
			continue
		}
		if i > 0 {
			prev = items[i-1]
		}
		if i+1 < len(items) {
			next = items[i+1]
		}
		return prev, next, nil
	}
	return nil, nil, nil
}

func (s *Service[T, P]) Create(ctx context.Context, item P, mode database.CreateMode) (P, bool, error) {
	return s.col.Create(ctx, item, mode)
}

func (s *Service[T, P]) Update(ctx context.Context, slug string, patch database.Patch) (P, error) {
	return s.col.Update(ctx, slug, patch)
}

func (s *Service[T, P]) Replace(ctx context.Context, slug string, item P) (P, error) {
	return s.col.Replace(ctx, slug, item)
}

func (s *Service[T, P]) Rename(ctx context.Context, from, to string) (P, error) {
	return s.col.Rename(ctx, from, to)
}

func (s *Service[T, P]) Delete(ctx context.Context, slug string) error {
	return s.col.Delete(ctx, slug)
}

// Exists reports whether slug resolves to a stored item, ignoring visibility.
func (s *Service[T, P]) Exists(ctx context.Context, slug string) (bool, error) {
	_, err := s.col.Get(ctx, slug)
	switch {
	case err == nil:
		return true, nil
	case database.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
