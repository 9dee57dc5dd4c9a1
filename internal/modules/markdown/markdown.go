// Package markdown moves posts and blog entries in and out of the site as
// markdown files with a YAML front matter header.
package markdown

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/modules/content/blog"
	"github.com/myad-dev/site/internal/modules/content/post"
	md "github.com/myad-dev/site/internal/modules/processing/markdown"
	"github.com/myad-dev/site/internal/pkg/response"
)

var adminQuery = content.Query{Admin: true}

type Handler struct {
	posts  *post.Service
	blog   *blog.Service
	now    func() time.Time
	logger *zap.Logger
}

func NewHandler(posts *post.Service, blog *blog.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{posts: posts, blog: blog, now: time.Now, logger: logger}
}

// RegisterRoutes mounts /markdown under rg (the /admin group).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	g := rg.Group("/markdown", requireAdmin)
	g.GET("/export", h.export)
	g.POST("/import", h.importMarkdown)
}

type importDTO struct {
	Kind string       `json:"kind" binding:"required"`
	Data []importItem `json:"data" binding:"required"`
}

type importItem struct {
	Text string `json:"text"`
}

// ImportResult counts what an import did. Existing slugs are kept and
// reported as skipped.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped"`
	Failed   []string `json:"failed"`
}

// importMarkdown POST /admin/markdown/import
func (h *Handler) importMarkdown(c *gin.Context) {
	var dto importDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	texts := make([]string, 0, len(dto.Data))
	for _, item := range dto.Data {
		texts = append(texts, item.Text)
	}

	res, err := h.Import(c.Request.Context(), models.Kind(dto.Kind), texts)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, gin.H{"imported": res.Imported, "skipped": res.Skipped, "failed": res.Failed})
}

// Import creates one item per markdown document. A document whose slug is
// already taken leaves the stored item untouched.
func (h *Handler) Import(ctx context.Context, kind models.Kind, texts []string) (ImportResult, error) {
	res := ImportResult{Skipped: []string{}, Failed: []string{}}
	if kind != models.KindPost && kind != models.KindBlog {
		return res, fmt.Errorf("unsupported kind %q", kind)
	}

	for i, text := range texts {
		doc, err := md.ParseDocument(text)
		if err != nil {
			res.Failed = append(res.Failed, fmt.Sprintf("#%d: %v", i+1, err))
			continue
		}
		c := contentFrom(doc)

		var (
			slug    string
			existed bool
		)
		switch kind {
		case models.KindPost:
			var p *models.Post
			p, existed, err = h.posts.Create(ctx, &models.Post{Content: c}, database.NoopOnCollision)
			if err == nil {
				slug = p.Slug
			}
		case models.KindBlog:
			var b *models.BlogPost
			b, existed, err = h.blog.Create(ctx, &models.BlogPost{Content: c, Status: doc.Meta.Status}, database.NoopOnCollision)
			if err == nil {
				slug = b.Slug
			}
		}
		switch {
		case err != nil:
			res.Failed = append(res.Failed, fmt.Sprintf("#%d: %v", i+1, err))
		case existed:
			res.Skipped = append(res.Skipped, slug)
		default:
			res.Imported++
		}
	}
	h.logger.Info("markdown import", zap.String("kind", string(kind)), zap.Int("imported", res.Imported),
		zap.Int("skipped", len(res.Skipped)), zap.Int("failed", len(res.Failed)))
	return res, nil
}

func contentFrom(doc md.Document) models.Content {
	return models.Content{
		Slug:        doc.Meta.Slug,
		Title:       doc.Meta.Title,
		Date:        doc.Meta.DateString(),
		Excerpt:     doc.Meta.Excerpt,
		Author:      doc.Meta.Author,
		Thumbnail:   doc.Meta.Thumbnail,
		Tags:        models.StringList(doc.Meta.TagList()),
		Keywords:    models.StringList(doc.Meta.KeywordList()),
		ContentHTML: md.Render(doc.Body),
	}
}

func frontMatterOf(c *models.Content, status string) md.FrontMatter {
	fm := md.FrontMatter{
		Title:     c.Title,
		Slug:      c.Slug,
		Date:      c.Date,
		Excerpt:   c.Excerpt,
		Author:    c.Author,
		Thumbnail: c.Thumbnail,
		Status:    status,
	}
	if len(c.Tags) > 0 {
		fm.Tags = []string(c.Tags)
	}
	if len(c.Keywords) > 0 {
		fm.Keywords = []string(c.Keywords)
	}
	return fm
}

// export GET /admin/markdown/export
// Streams a zip with posts/<slug>.md and blog/<slug>.md. Bodies are the
// stored HTML, which markdown passes through.
func (h *Handler) export(c *gin.Context) {
	ctx := c.Request.Context()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	posts, err := h.posts.List(ctx, adminQuery)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	for _, p := range posts {
		if err := writeDoc(zw, "posts/"+p.Slug+".md", frontMatterOf(&p.Content, ""), p.ContentHTML); err != nil {
			response.InternalError(c, err)
			return
		}
	}

	entries, err := h.blog.List(ctx, adminQuery)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	for _, b := range entries {
		if err := writeDoc(zw, "blog/"+b.Slug+".md", frontMatterOf(&b.Content, b.Status), b.ContentHTML); err != nil {
			response.InternalError(c, err)
			return
		}
	}

	if err := zw.Close(); err != nil {
		response.InternalError(c, err)
		return
	}
	name := "myad-export-" + h.now().Format("20060102_150405") + ".zip"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func writeDoc(zw *zip.Writer, name string, meta md.FrontMatter, body string) error {
	doc, err := md.BuildDocument(meta, strings.TrimSpace(body))
	if err != nil {
		return err
	}
	f, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = f.Write([]byte(doc))
	return err
}
