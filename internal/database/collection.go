package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/pkg/textutil"
)

// CreateMode selects what Create does when the derived slug is already taken.
type CreateMode int

const (
	// DisambiguateOnCollision appends a short time-based suffix until the slug is free.
	DisambiguateOnCollision CreateMode = iota
	// NoopOnCollision keeps the stored item and reports it as existing (first write wins).
	NoopOnCollision
	// FailOnCollision rejects the write with ErrSlugExists.
	FailOnCollision
)

// ParseCreateMode maps the API query value to a mode. Unknown values fall
// back to DisambiguateOnCollision.
func ParseCreateMode(s string) CreateMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noop", "first-write-wins":
		return NoopOnCollision
	case "fail", "strict":
		return FailOnCollision
	default:
		return DisambiguateOnCollision
	}
}

func (m CreateMode) String() string {
	switch m {
	case NoopOnCollision:
		return "noop"
	case FailOnCollision:
		return "fail"
	default:
		return "suffix"
	}
}

// Patch is a shallow JSON merge patch keyed by item field name.
type Patch map[string]json.RawMessage

type request struct {
	fn   func()
	done chan struct{}
}

// Collection is a JSON-file backed set of items identified by slug. A single
// goroutine owns the file; every operation is a full read-modify-write cycle
// executed on that goroutine, so concurrent callers never interleave writes.
type Collection[T any, P interface {
	*T
	models.Publishable
}] struct {
	kind   models.Kind
	path   string
	logger *zap.Logger
	now    func() time.Time

	reqs      chan request
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Option configures a collection.
type Option func(*options)

type options struct {
	logger *zap.Logger
	clock  func() time.Time
}

// WithLogger sets the logger used for self-heal and mutation events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamps, default dates and slug suffixes.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// OpenCollection starts the owner goroutine for <dir>/<kind>.json. The file
// is created lazily on first access.
func OpenCollection[T any, P interface {
	*T
	models.Publishable
}](dir string, opts ...Option) *Collection[T, P] {
	o := options{logger: zap.NewNop(), clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	kind := P(new(T)).Kind()
	c := &Collection[T, P]{
		kind:    kind,
		path:    filepath.Join(dir, string(kind)+".json"),
		logger:  o.logger.With(zap.String("collection", string(kind))),
		now:     o.clock,
		reqs:    make(chan request),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *Collection[T, P]) loop() {
	defer close(c.stopped)
	for {
		select {
		case r := <-c.reqs:
			r.fn()
			close(r.done)
		case <-c.quit:
			return
		}
	}
}

// Close stops the owner goroutine. Later calls return ErrClosed.
func (c *Collection[T, P]) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
	<-c.stopped
}

// Kind reports which collection this is.
func (c *Collection[T, P]) Kind() models.Kind { return c.kind }

// Path is the backing file.
func (c *Collection[T, P]) Path() string { return c.path }

func (c *Collection[T, P]) do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := request{fn: fn, done: make(chan struct{})}
	select {
	case c.reqs <- r:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return ErrClosed
	}
	<-r.done
	return nil
}

// List returns every item, newest date first; equal dates order by creation
// time, newest first. A missing or unreadable file yields an empty list.
func (c *Collection[T, P]) List(ctx context.Context) ([]P, error) {
	var out []P
	err := c.do(ctx, func() {
		items, err := c.load()
		if err != nil {
			c.logger.Warn("collection read failed", zap.Error(err))
			items = []T{}
		}
		out = make([]P, len(items))
		for i := range items {
			out[i] = P(&items[i])
		}
		sortNewestFirst(out)
	})
	return out, err
}

// Get finds an item by slug: exact match first, then case-insensitive, then
// the same two checks on the URL-unescaped slug.
func (c *Collection[T, P]) Get(ctx context.Context, slug string) (P, error) {
	var (
		out    P
		result error
	)
	err := c.do(ctx, func() {
		items, err := c.load()
		if err != nil {
			c.logger.Warn("collection read failed", zap.Error(err))
			result = ErrNotFound
			return
		}
		i := findSlug[T, P](items, slug)
		if i < 0 {
			result = ErrNotFound
			return
		}
		out = P(&items[i])
	})
	if err != nil {
		return nil, err
	}
	return out, result
}

// Create stores item under a slug derived from its slug field or title.
// existed is true only in NoopOnCollision mode when the slug was taken, in
// which case the stored item is returned and nothing is written.
func (c *Collection[T, P]) Create(ctx context.Context, item P, mode CreateMode) (stored P, existed bool, err error) {
	if item == nil || strings.TrimSpace(item.Base().Title) == "" {
		return nil, false, ErrTitleRequired
	}

	var result error
	doErr := c.do(ctx, func() {
		items, err := c.loadForWrite()
		if err != nil {
			result = err
			return
		}

		now := c.now()
		base := item.Base()
		slug := deriveSlug(base.Slug, base.Title)
		if i := indexOfSlug[T, P](items, slug, -1); i >= 0 {
			switch mode {
			case NoopOnCollision:
				stored, existed = P(&items[i]), true
				return
			case FailOnCollision:
				result = fmt.Errorf("%w: %s", ErrSlugExists, slug)
				return
			default:
				slug = disambiguate[T, P](items, slug, -1, now)
			}
		}

		rec := *item
		b := P(&rec).Base()
		b.Slug = slug
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.Touch(now)
		P(&rec).Normalize(now)

		items = append(items, rec)
		if err := c.save(items); err != nil {
			result = err
			return
		}
		stored = P(&items[len(items)-1])
		c.logger.Info("item created", zap.String("slug", slug), zap.Stringer("mode", mode))
	})
	if doErr != nil {
		return nil, false, doErr
	}
	if result != nil {
		return nil, false, result
	}
	return stored, existed, nil
}

// Update shallow-merges patch onto the stored item. A slug in the patch is
// slugified and disambiguated against the other items. id and createdAt are
// never changed by a patch.
func (c *Collection[T, P]) Update(ctx context.Context, slug string, patch Patch) (P, error) {
	var (
		out    P
		result error
	)
	err := c.do(ctx, func() {
		items, err := c.loadForWrite()
		if err != nil {
			result = err
			return
		}
		i := findSlug[T, P](items, slug)
		if i < 0 {
			result = ErrNotFound
			return
		}

		current := P(&items[i]).Base()
		merged, err := mergePatch[T](&items[i], patch)
		if err != nil {
			result = err
			return
		}
		m := P(merged).Base()
		if strings.TrimSpace(m.Title) == "" {
			result = ErrTitleRequired
			return
		}

		now := c.now()
		m.ID, m.CreatedAt = current.ID, current.CreatedAt
		newSlug := strings.TrimSpace(m.Slug)
		switch {
		case newSlug == "" || newSlug == current.Slug:
			m.Slug = current.Slug
		default:
			m.Slug = textutil.Slugify(newSlug)
			if indexOfSlug[T, P](items, m.Slug, i) >= 0 {
				m.Slug = disambiguate[T, P](items, m.Slug, i, now)
			}
		}
		m.Touch(now)
		P(merged).Normalize(now)

		items[i] = *merged
		if err := c.save(items); err != nil {
			result = err
			return
		}
		out = P(&items[i])
		c.logger.Info("item updated", zap.String("slug", out.Base().Slug))
	})
	if err != nil {
		return nil, err
	}
	return out, result
}

// Replace swaps the stored item for item in one step, keeping its id and
// creation time. The slug may change; a taken slug is disambiguated.
func (c *Collection[T, P]) Replace(ctx context.Context, slug string, item P) (P, error) {
	if item == nil || strings.TrimSpace(item.Base().Title) == "" {
		return nil, ErrTitleRequired
	}

	var (
		out    P
		result error
	)
	err := c.do(ctx, func() {
		items, err := c.loadForWrite()
		if err != nil {
			result = err
			return
		}
		i := findSlug[T, P](items, slug)
		if i < 0 {
			result = ErrNotFound
			return
		}

		now := c.now()
		current := P(&items[i]).Base()
		rec := *item
		b := P(&rec).Base()
		b.ID, b.CreatedAt = current.ID, current.CreatedAt
		b.Slug = deriveSlug(b.Slug, b.Title)
		if indexOfSlug[T, P](items, b.Slug, i) >= 0 {
			b.Slug = disambiguate[T, P](items, b.Slug, i, now)
		}
		b.Touch(now)
		P(&rec).Normalize(now)

		items[i] = rec
		if err := c.save(items); err != nil {
			result = err
			return
		}
		out = P(&items[i])
		c.logger.Info("item replaced", zap.String("from", slug), zap.String("slug", b.Slug))
	})
	if err != nil {
		return nil, err
	}
	return out, result
}

// Rename moves an item to a new slug. The target must be free; nothing is
// written when it is not.
func (c *Collection[T, P]) Rename(ctx context.Context, from, to string) (P, error) {
	var (
		out    P
		result error
	)
	err := c.do(ctx, func() {
		items, err := c.loadForWrite()
		if err != nil {
			result = err
			return
		}
		i := findSlug[T, P](items, from)
		if i < 0 {
			result = ErrNotFound
			return
		}

		target := textutil.Slugify(to)
		b := P(&items[i]).Base()
		if target == b.Slug {
			out = P(&items[i])
			return
		}
		if indexOfSlug[T, P](items, target, i) >= 0 {
			result = fmt.Errorf("%w: %s", ErrSlugExists, target)
			return
		}

		old := b.Slug
		b.Slug = target
		b.Touch(c.now())
		if err := c.save(items); err != nil {
			result = err
			return
		}
		out = P(&items[i])
		c.logger.Info("item renamed", zap.String("from", old), zap.String("slug", target))
	})
	if err != nil {
		return nil, err
	}
	return out, result
}

// Delete removes the item with slug, or returns ErrNotFound.
func (c *Collection[T, P]) Delete(ctx context.Context, slug string) error {
	var result error
	err := c.do(ctx, func() {
		items, err := c.loadForWrite()
		if err != nil {
			result = err
			return
		}
		i := findSlug[T, P](items, slug)
		if i < 0 {
			result = ErrNotFound
			return
		}
		removed := P(&items[i]).Base().Slug
		items = append(items[:i], items[i+1:]...)
		if err := c.save(items); err != nil {
			result = err
			return
		}
		c.logger.Info("item deleted", zap.String("slug", removed))
	})
	if err != nil {
		return err
	}
	return result
}

// load reads and normalizes the file. A missing file is created empty and a
// corrupt one is reset to empty.
func (c *Collection[T, P]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := c.save(nil); err != nil {
			c.logger.Warn("create empty collection failed", zap.Error(err))
		}
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := decodeItems[T](data)
	if err != nil {
		c.logger.Warn("collection file corrupt, resetting to empty", zap.String("path", c.path), zap.Error(err))
		if err := c.save(nil); err != nil {
			c.logger.Warn("reset collection failed", zap.Error(err))
		}
		return []T{}, nil
	}

	now := c.now()
	for i := range items {
		P(&items[i]).Normalize(now)
	}
	return items, nil
}

// loadForWrite is load for mutating operations, which must not overwrite a
// file they could not read.
func (c *Collection[T, P]) loadForWrite() ([]T, error) {
	items, err := c.load()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.kind, err)
	}
	return items, nil
}

func (c *Collection[T, P]) save(items []T) error {
	data, err := encodeItems(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.kind, err)
	}
	if err := writeFileAtomic(c.path, data); err != nil {
		return fmt.Errorf("write %s: %w", c.kind, err)
	}
	return nil
}

func sortNewestFirst[P models.Publishable](items []P) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Base(), items[j].Base()
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.CreatedAt > b.CreatedAt
	})
}

func deriveSlug(slug, title string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return textutil.Slugify(s)
	}
	return textutil.Slugify(title)
}

// findSlug resolves a requested slug the way public URLs reach the store.
func findSlug[T any, P interface {
	*T
	models.Publishable
}](items []T, slug string) int {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return -1
	}
	candidates := []string{slug}
	if unescaped, err := url.PathUnescape(slug); err == nil && unescaped != slug {
		candidates = append(candidates, unescaped)
	}
	for _, s := range candidates {
		for i := range items {
			if P(&items[i]).Base().Slug == s {
				return i
			}
		}
		if i := indexOfSlug[T, P](items, s, -1); i >= 0 {
			return i
		}
	}
	return -1
}

// indexOfSlug matches case-insensitively, skipping index skip.
func indexOfSlug[T any, P interface {
	*T
	models.Publishable
}](items []T, slug string, skip int) int {
	for i := range items {
		if i == skip {
			continue
		}
		if strings.EqualFold(P(&items[i]).Base().Slug, slug) {
			return i
		}
	}
	return -1
}

// disambiguate appends "-" and the last four base36 digits of the current
// millisecond, stepping forward until the result is free.
func disambiguate[T any, P interface {
	*T
	models.Publishable
}](items []T, slug string, skip int, now time.Time) string {
	for n := now.UnixMilli(); ; n++ {
		suffix := strconv.FormatInt(n, 36)
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
		candidate := slug + "-" + suffix
		if indexOfSlug[T, P](items, candidate, skip) < 0 {
			return candidate
		}
	}
}

func mergePatch[T any](current *T, patch Patch) (*T, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for k, v := range patch {
		fields[k] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	merged := new(T)
	if err := json.Unmarshal(raw, merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return merged, nil
}
