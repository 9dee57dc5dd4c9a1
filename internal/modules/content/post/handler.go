// Package post serves the posts collection, including the first-write-wins
// import used to seed articles.
package post

import (
	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
)

type (
	Service = content.Service[models.Post, *models.Post]
	Handler struct {
		*content.Handler[models.Post, *models.Post]
	}
)

func NewService(col *database.Posts) *Service {
	return content.NewService(col, nil)
}

func NewHandler(svc *Service, opts content.HandlerOptions[*models.Post]) *Handler {
	if opts.Wrapper == "" {
		opts.Wrapper = "post"
	}
	return &Handler{Handler: content.NewHandler(svc, opts)}
}

// RegisterRoutes mounts /posts plus POST /posts/import.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	g := h.Handler.RegisterRoutes(rg, requireAdmin)
	g.POST("/import", requireAdmin, h.importPost)
}

// importPost POST /posts/import  [admin]
// An existing slug is left untouched and returned with existed=true.
func (h *Handler) importPost(c *gin.Context) {
	h.CreateWithMode(c, database.NoopOnCollision)
}
