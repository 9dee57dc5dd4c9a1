package models

import (
	"strings"
	"time"

	"github.com/myad-dev/site/internal/pkg/textutil"
)

// Kind names a content collection. The value doubles as the collection file
// name and the API path segment.
type Kind string

const (
	KindPost   Kind = "posts"
	KindBlog   Kind = "blog"
	KindVideo  Kind = "videos"
	KindReview Kind = "reviews"
)

// Kinds lists every collection served by the site.
func Kinds() []Kind { return []Kind{KindPost, KindBlog, KindVideo, KindReview} }

// Publishable is implemented by every content kind. Normalize applies the
// kind's cleaning and defaulting rules and must be idempotent.
type Publishable interface {
	Base() *Content
	Kind() Kind
	Normalize(now time.Time)
}

// Content holds the fields shared by posts, blog entries, videos and reviews.
type Content struct {
	ID          string     `json:"id,omitempty"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	Excerpt     string     `json:"excerpt"`
	Tags        StringList `json:"tags"`
	Keywords    StringList `json:"keywords"`
	Author      string     `json:"author"`
	Thumbnail   string     `json:"thumbnail"`
	ContentHTML string     `json:"contentHtml"`
	FAQs        []FAQ      `json:"faqs"`
	CreatedAt   int64      `json:"createdAt,omitempty"` // epoch ms
	UpdatedAt   int64      `json:"updatedAt,omitempty"` // epoch ms
}

// Base returns the shared fields; promoted to every kind that embeds Content.
func (c *Content) Base() *Content { return c }

// FAQ is a question/answer pair rendered under an item.
type FAQ struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// contentDefaults are the per-kind fallbacks applied by normalize.
type contentDefaults struct {
	Author string
	Body   string
}

func (c *Content) normalize(now time.Time, d contentDefaults) {
	c.Slug = strings.TrimSpace(c.Slug)
	c.Title = strings.TrimSpace(c.Title)
	c.Date = strings.TrimSpace(c.Date)
	if c.Date == "" {
		c.Date = textutil.Today(now)
	}
	c.Excerpt = strings.TrimSpace(c.Excerpt)
	c.Tags = StringList(textutil.UniqueFold(c.Tags))
	c.Keywords = StringList(textutil.UniqueFold(c.Keywords))
	c.Author = strings.TrimSpace(c.Author)
	if c.Author == "" {
		c.Author = d.Author
	}
	c.Thumbnail = strings.TrimSpace(c.Thumbnail)
	if strings.TrimSpace(c.ContentHTML) == "" {
		c.ContentHTML = d.Body
	}
	c.FAQs = cleanFAQs(c.FAQs)
}

func cleanFAQs(in []FAQ) []FAQ {
	out := make([]FAQ, 0, len(in))
	for _, f := range in {
		f.Q = strings.TrimSpace(f.Q)
		f.A = strings.TrimSpace(f.A)
		if f.Q == "" || f.A == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Touch stamps creation and modification times in epoch milliseconds.
func (c *Content) Touch(now time.Time) {
	ms := now.UnixMilli()
	if c.CreatedAt == 0 {
		c.CreatedAt = ms
	}
	c.UpdatedAt = ms
}

// SearchText is the haystack the admin list filter matches against.
func (c *Content) SearchText() string {
	parts := []string{c.Title, c.Slug, strings.Join(c.Tags, " "), strings.Join(c.Keywords, " ")}
	return strings.ToLower(strings.Join(parts, " "))
}
