// Package review serves customer reviews. The category query narrows the list
// to one ad platform.
package review

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
)

type (
	Service = content.Service[models.Review, *models.Review]
	Handler struct {
		*content.Handler[models.Review, *models.Review]
	}
)

func NewService(col *database.Reviews) *Service {
	return content.NewService(col, inCategory)
}

func inCategory(r *models.Review, q content.Query) bool {
	cat := strings.TrimSpace(q.Category)
	return cat == "" || strings.EqualFold(r.Category, cat)
}

func NewHandler(svc *Service, opts content.HandlerOptions[*models.Review]) *Handler {
	if opts.Wrapper == "" {
		opts.Wrapper = "review"
	}
	return &Handler{Handler: content.NewHandler(svc, opts)}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	h.Handler.RegisterRoutes(rg, requireAdmin)
}
