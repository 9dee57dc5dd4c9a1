// Package sitemap renders sitemap.xml and robots.txt from the public content.
package sitemap

import (
	"context"
	"encoding/xml"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/modules/content/blog"
	"github.com/myad-dev/site/internal/modules/content/post"
	"github.com/myad-dev/site/internal/modules/content/review"
	"github.com/myad-dev/site/internal/modules/content/video"
)

const (
	xmlns      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	lastModFmt = "2006-01-02T15:04:05.000Z"
)

type staticPage struct {
	Path       string
	ChangeFreq string
	Priority   float64
	// LatestOf names the collection whose newest item dates the page.
	LatestOf models.Kind
}

var staticPages = []staticPage{
	{"/", "daily", 1.0, ""},
	{"/services", "monthly", 0.5, ""},
	{"/blog", "daily", 0.9, models.KindBlog},
	{"/google-ads", "weekly", 0.7, ""},
	{"/facebook-ads", "weekly", 0.7, ""},
	{"/courses", "weekly", 0.6, ""},
	{"/videos", "daily", 0.9, models.KindVideo},
	{"/faq", "monthly", 0.5, ""},
	{"/search", "weekly", 0.5, ""},
	{"/contact", "monthly", 0.5, ""},
	{"/reviews", "weekly", 0.8, models.KindReview},
}

var disallowed = []string{"/admin", "/api", "/private", "/_next/static/", "/_next/image/"}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one <url> entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// entry is the part of an item the sitemap needs.
type entry struct {
	Slug      string
	Date      string
	UpdatedAt int64
	Tags      []string
	Rank      int // 0 = unranked
	Views     int
}

type Sources struct {
	Posts   *post.Service
	Blog    *blog.Service
	Videos  *video.Service
	Reviews *review.Service
}

type Handler struct {
	src     Sources
	siteURL string
	logger  *zap.Logger
}

func NewHandler(src Sources, siteURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{src: src, siteURL: strings.TrimRight(siteURL, "/"), logger: logger}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/sitemap.xml", h.sitemap)
	r.GET("/robots.txt", h.robots)
}

func (h *Handler) sitemap(c *gin.Context) {
	urls, err := h.Build(c.Request.Context())
	if err != nil {
		h.logger.Error("build sitemap", zap.Error(err))
		c.String(500, "error generating sitemap")
		return
	}
	out, err := xml.MarshalIndent(urlSet{Xmlns: xmlns, URLs: urls}, "", "  ")
	if err != nil {
		c.String(500, "error generating sitemap")
		return
	}
	c.Header("Cache-Control", "no-store, must-revalidate")
	c.Data(200, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

func (h *Handler) robots(c *gin.Context) {
	c.String(200, Robots(h.siteURL))
}

// Robots returns the robots.txt body.
func Robots(siteURL string) string {
	lines := []string{"User-Agent: *", "Allow: /"}
	for _, p := range disallowed {
		lines = append(lines, "Disallow: "+p)
	}
	lines = append(lines, "", "Sitemap: "+strings.TrimRight(siteURL, "/")+"/sitemap.xml")
	return strings.Join(lines, "\n")
}

// Build lists every public page. Drafts are left out.
func (h *Handler) Build(ctx context.Context) ([]URL, error) {
	posts, err := entries(ctx, h.src.Posts, nil)
	if err != nil {
		return nil, err
	}
	blogs, err := entries(ctx, h.src.Blog, nil)
	if err != nil {
		return nil, err
	}
	videos, err := entries(ctx, h.src.Videos, func(v *models.Video, e *entry) {
		e.Rank, e.Views = v.Rank, v.Views
	})
	if err != nil {
		return nil, err
	}
	reviews, err := entries(ctx, h.src.Reviews, nil)
	if err != nil {
		return nil, err
	}

	// Posts and blog entries share the /blog path.
	articles := sortEntries(uniqueSlugs(append(blogs, posts...)))
	videos = sortEntries(videos)
	reviews = sortEntries(reviews)
	latest := map[models.Kind][]entry{models.KindBlog: articles, models.KindVideo: videos, models.KindReview: reviews}

	var urls []URL
	for _, p := range staticPages {
		u := URL{Loc: h.abs(p.Path), ChangeFreq: p.ChangeFreq, Priority: formatPriority(p.Priority)}
		if items := latest[p.LatestOf]; len(items) > 0 {
			u.LastMod = lastMod(items[0])
		}
		urls = append(urls, u)
	}

	urls = h.appendItems(urls, "/blog/", articles, 0.8)

	seen := map[string]bool{}
	for _, a := range articles {
		for _, t := range a.Tags {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			urls = append(urls, URL{
				Loc:        h.abs("/blog/tag/" + url.PathEscape(t)),
				LastMod:    tagLastMod(articles, t),
				ChangeFreq: "weekly",
				Priority:   formatPriority(0.4),
			})
		}
	}

	urls = h.appendItems(urls, "/videos/", videos, 0.7)
	urls = h.appendItems(urls, "/reviews/", reviews, 0.6)
	return urls, nil
}

func (h *Handler) appendItems(urls []URL, prefix string, items []entry, base float64) []URL {
	top := 0
	for _, e := range items {
		top = max(top, e.Views)
	}
	for i, e := range items {
		urls = append(urls, URL{
			Loc:        h.abs(prefix + url.PathEscape(e.Slug)),
			LastMod:    lastMod(e),
			ChangeFreq: "weekly",
			Priority:   formatPriority(Priority(e.Rank, e.Views, top, i, base)),
		})
	}
	return urls
}

func (h *Handler) abs(path string) string {
	return h.siteURL + "/" + strings.TrimLeft(path, "/")
}

// Priority scores an item: an explicit rank dominates, then views relative to
// the most viewed item, then list position.
func Priority(rank, views, topViews, index int, base float64) float64 {
	if rank > 0 {
		r := min(max(rank, 1), 50)
		p := 1.0 - math.Min(0.7, float64(r-1)*0.04)
		return math.Max(0.3, round2(p))
	}
	if topViews > 0 {
		v := min(max(views, 0), topViews)
		return round2(0.6 + 0.4*float64(v)/float64(topViews))
	}
	tier := min(index, 10)
	return math.Max(0.3, round2(base-float64(tier)*0.02))
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func formatPriority(p float64) string { return strconv.FormatFloat(p, 'f', 1, 64) }

// sortEntries orders by rank (unranked last), views, update time and date,
// all descending except rank.
func sortEntries(items []entry) []entry {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ra, rb := a.Rank, b.Rank
		if ra <= 0 {
			ra = math.MaxInt
		}
		if rb <= 0 {
			rb = math.MaxInt
		}
		if ra != rb {
			return ra < rb
		}
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		if a.UpdatedAt != b.UpdatedAt {
			return a.UpdatedAt > b.UpdatedAt
		}
		return a.Date > b.Date
	})
	return items
}

func uniqueSlugs(items []entry) []entry {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, e := range items {
		key := strings.ToLower(e.Slug)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

func lastMod(e entry) string {
	if e.UpdatedAt > 0 {
		return time.UnixMilli(e.UpdatedAt).UTC().Format(lastModFmt)
	}
	if t, err := time.Parse("2006-01-02", e.Date); err == nil {
		return t.UTC().Format(lastModFmt)
	}
	return ""
}

func tagLastMod(items []entry, tag string) string {
	for _, e := range items {
		for _, t := range e.Tags {
			if strings.TrimSpace(t) == tag && e.UpdatedAt > 0 {
				return time.UnixMilli(e.UpdatedAt).UTC().Format(lastModFmt)
			}
		}
	}
	return ""
}

func entries[T any, P interface {
	*T
	models.Publishable
}](ctx context.Context, svc *content.Service[T, P], extra func(P, *entry)) ([]entry, error) {
	if svc == nil {
		return nil, nil
	}
	items, err := svc.List(ctx, content.Query{})
	if err != nil {
		return nil, err
	}
	out := make([]entry, 0, len(items))
	for _, it := range items {
		b := it.Base()
		e := entry{Slug: b.Slug, Date: b.Date, UpdatedAt: b.UpdatedAt, Tags: b.Tags}
		if extra != nil {
			extra(it, &e)
		}
		out = append(out, e)
	}
	return out, nil
}
