// Package blog serves the blog collection. Drafts are only visible to admins.
package blog

import (
	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/pkg/textutil"
)

type (
	Service = content.Service[models.BlogPost, *models.BlogPost]
	Handler struct {
		*content.Handler[models.BlogPost, *models.BlogPost]
	}
)

func NewService(col *database.Blog) *Service {
	return content.NewService(col, visible)
}

func visible(b *models.BlogPost, q content.Query) bool {
	return q.Admin || !b.IsDraft()
}

func NewHandler(svc *Service, opts content.HandlerOptions[*models.BlogPost]) *Handler {
	if opts.Wrapper == "" {
		opts.Wrapper = "post"
	}
	return &Handler{Handler: content.NewHandler(svc, opts)}
}

// RegisterRoutes mounts /blog plus GET /blog/tags.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	g := h.Handler.RegisterRoutes(rg, requireAdmin)
	g.GET("/tags", h.tags)
}

// tags GET /blog/tags
func (h *Handler) tags(c *gin.Context) {
	items, err := h.Service().List(c.Request.Context(), h.QueryFrom(c))
	if err != nil {
		content.WriteError(c, err)
		return
	}
	c.JSON(200, gin.H{"ok": true, "tags": Tags(items)})
}

// Tags returns every tag used by items, first spelling kept, in list order.
func Tags(items []*models.BlogPost) []string {
	var all []string
	for _, it := range items {
		all = append(all, it.Tags...)
	}
	return textutil.UniqueFold(all)
}
