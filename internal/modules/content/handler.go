package content

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/middleware"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/pkg/pagination"
	"github.com/myad-dev/site/internal/pkg/response"
)

// DetailFunc adds kind-specific fields to the single-item response.
type DetailFunc[P models.Publishable] func(c *gin.Context, item P, q Query) (gin.H, error)

// HandlerOptions configures a collection handler.
type HandlerOptions[P models.Publishable] struct {
	Gate          *middleware.AdminGate
	PublicBaseURL string
	// Wrapper is the key admin forms wrap the item in, e.g. "video".
	Wrapper string
	Detail  DetailFunc[P]
}

// Handler serves list, detail and write endpoints for one collection.
type Handler[T any, P interface {
	*T
	models.Publishable
}] struct {
	svc  *Service[T, P]
	opts HandlerOptions[P]
}

func NewHandler[T any, P interface {
	*T
	models.Publishable
}](svc *Service[T, P], opts HandlerOptions[P]) *Handler[T, P] {
	return &Handler[T, P]{svc: svc, opts: opts}
}

// Service returns the wrapped service.
func (h *Handler[T, P]) Service() *Service[T, P] { return h.svc }

// RegisterRoutes mounts the collection under /<kind>. Write routes sit
// behind requireAdmin.
func (h *Handler[T, P]) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) *gin.RouterGroup {
	g := rg.Group("/" + string(h.svc.Kind()))

	g.GET("", h.list)
	g.GET("/:slug", h.get)

	authed := g.Group("", requireAdmin)
	authed.POST("", h.create)
	authed.PUT("/:slug", h.update)
	authed.POST("/:slug/rename", h.rename)
	authed.DELETE("/:slug", h.delete)
	return g
}

// IsAdmin reports whether the caller passed the admin gate.
func (h *Handler[T, P]) IsAdmin(c *gin.Context) bool {
	return h.opts.Gate != nil && h.opts.Gate.IsAdmin(c)
}

// QueryFrom reads list filters from the request.
func (h *Handler[T, P]) QueryFrom(c *gin.Context) Query {
	var q Query
	_ = c.ShouldBindQuery(&q)
	q.Admin = h.IsAdmin(c)
	return q
}

// list GET /<kind>
func (h *Handler[T, P]) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), h.QueryFrom(c))
	if err != nil {
		WriteError(c, err)
		return
	}

	if pq := pagination.FromContext(c); pq.Enabled() {
		page, pag := pagination.Slice(items, pq)
		response.Paged(c, page, pag)
		return
	}
	response.Items(c, items)
}

// get GET /<kind>/:slug
func (h *Handler[T, P]) get(c *gin.Context) {
	q := h.QueryFrom(c)
	item, err := h.svc.Get(c.Request.Context(), c.Param("slug"), q)
	if err != nil {
		WriteError(c, err)
		return
	}

	body := gin.H{"ok": true, "item": item}
	if h.opts.Detail != nil {
		extra, err := h.opts.Detail(c, item, q)
		if err != nil {
			WriteError(c, err)
			return
		}
		for k, v := range extra {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

// create POST /<kind>?mode=suffix|noop|fail  [admin]
func (h *Handler[T, P]) create(c *gin.Context) {
	h.CreateWithMode(c, database.ParseCreateMode(c.Query("mode")))
}

// CreateWithMode decodes the body and creates it with the given collision mode.
// A NoopOnCollision hit answers 200 with existed=true instead of 201.
func (h *Handler[T, P]) CreateWithMode(c *gin.Context, mode database.CreateMode) {
	item, err := h.decodeBody(c)
	if err != nil {
		WriteError(c, err)
		return
	}

	stored, existed, err := h.svc.Create(c.Request.Context(), item, mode)
	if err != nil {
		WriteError(c, err)
		return
	}
	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"ok": true, "existed": existed, "item": stored})
}

// update PUT /<kind>/:slug  [admin]
func (h *Handler[T, P]) update(c *gin.Context) {
	patch, err := BindPatch(c, h.opts.Wrapper)
	if err == nil {
		err = PreparePatch(patch, h.opts.PublicBaseURL)
	}
	if err != nil {
		WriteError(c, err)
		return
	}

	item, err := h.svc.Update(c.Request.Context(), c.Param("slug"), patch)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Item(c, http.StatusOK, item)
}

type renameRequest struct {
	Slug string `json:"slug" binding:"required"`
}

// rename POST /<kind>/:slug/rename  [admin]
func (h *Handler[T, P]) rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Slug) == "" {
		response.BadRequest(c, "slug is required")
		return
	}

	item, err := h.svc.Rename(c.Request.Context(), c.Param("slug"), req.Slug)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Item(c, http.StatusOK, item)
}

// delete DELETE /<kind>/:slug  [admin]
func (h *Handler[T, P]) delete(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.svc.Delete(c.Request.Context(), slug); err != nil {
		WriteError(c, err)
		return
	}
	response.OK(c, gin.H{"slug": slug})
}

func (h *Handler[T, P]) decodeBody(c *gin.Context) (P, error) {
	patch, err := BindPatch(c, h.opts.Wrapper)
	if err != nil {
		return nil, err
	}
	if err := PreparePatch(patch, h.opts.PublicBaseURL); err != nil {
		return nil, err
	}
	return DecodeItem[T, P](patch)
}
