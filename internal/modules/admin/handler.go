package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/pkg/response"
)

type Handler struct {
	svc           *Service
	publicBaseURL string
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, publicBaseURL: svc.publicBaseURL}
}

// RegisterRoutes mounts the workflows under rg, which is expected to be the
// /admin group. Every route requires the admin gate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	g := rg.Group("", requireAdmin)

	g.POST("/videos/save", h.saveVideo)
	g.POST("/posts/save", h.savePost)
	g.POST("/reviews/save", h.saveReview)

	g.POST("/blog", h.createBlog)
	g.PUT("/blog/:slug/edit", h.editBlog)
	g.POST("/blog/:slug/rename", h.renameBlog)

	g.DELETE("/:kind/:slug", h.delete)
	g.POST("/transcript/preview", h.preview)
}

// saveVideo POST /admin/videos/save
func (h *Handler) saveVideo(c *gin.Context) {
	var form VideoForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.SaveVideo(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": res.Item, "items": res.Items})
}

// savePost POST /admin/posts/save
func (h *Handler) savePost(c *gin.Context) {
	p, err := bindForm[models.Post](c, "post", h.publicBaseURL)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.svc.SavePost(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": res.Item, "items": res.Items})
}

// saveReview POST /admin/reviews/save
func (h *Handler) saveReview(c *gin.Context) {
	r, err := bindForm[models.Review](c, "review", h.publicBaseURL)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.svc.SaveReview(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": res.Item, "items": res.Items})
}

// createBlog POST /admin/blog
func (h *Handler) createBlog(c *gin.Context) {
	b, err := bindForm[models.BlogPost](c, "post", h.publicBaseURL)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.svc.CreateBlog(c.Request.Context(), b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "item": res.Item, "items": res.Items})
}

// editBlog PUT /admin/blog/:slug/edit
func (h *Handler) editBlog(c *gin.Context) {
	b, err := bindForm[models.BlogPost](c, "post", h.publicBaseURL)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.svc.EditBlog(c.Request.Context(), c.Param("slug"), b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": res.Item, "items": res.Items})
}

type renameRequest struct {
	Slug string `json:"slug"`
}

// renameBlog POST /admin/blog/:slug/rename
func (h *Handler) renameBlog(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.RenameBlog(c.Request.Context(), c.Param("slug"), req.Slug)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": res.Item, "items": res.Items})
}

// delete DELETE /admin/:kind/:slug
func (h *Handler) delete(c *gin.Context) {
	res, err := h.svc.Delete(c.Request.Context(), models.Kind(c.Param("kind")), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "slug": c.Param("slug"), "items": res})
}

type previewRequest struct {
	Raw string `json:"raw"`
}

// preview POST /admin/transcript/preview
func (h *Handler) preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p := h.svc.PreviewTranscript(req.Raw)
	response.OK(c, gin.H{"transcriptHtml": p.TranscriptHTML, "chapters": p.Chapters})
}

// bindForm decodes a form body, optionally wrapped in {wrapper: {...}}, with
// the contentMarkdown and thumbnail conveniences applied.
func bindForm[T any, P interface {
	*T
	models.Publishable
}](c *gin.Context, wrapper, publicBaseURL string) (P, error) {
	patch, err := content.BindPatch(c, wrapper)
	if err != nil {
		return nil, err
	}
	if err := content.PreparePatch(patch, publicBaseURL); err != nil {
		return nil, err
	}
	return content.DecodeItem[T, P](patch)
}

func writeError(c *gin.Context, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		response.BadRequest(c, ve.Message)
		return
	}
	content.WriteError(c, err)
}
