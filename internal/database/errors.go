package database

import "errors"

var (
	// ErrNotFound is returned when no item carries the requested slug.
	ErrNotFound = errors.New("item not found")
	// ErrSlugExists is returned when a FailOnCollision write would reuse a slug.
	ErrSlugExists = errors.New("slug already exists")
	// ErrTitleRequired is returned when an item would be stored with a blank title.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidPatch is returned when a patch does not fit the item shape.
	ErrInvalidPatch = errors.New("invalid patch")
	// ErrClosed is returned by operations on a closed collection.
	ErrClosed = errors.New("collection closed")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
