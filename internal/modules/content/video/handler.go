// Package video serves the video library. The detail response carries the
// neighbouring videos and the chapter clips used for key-moment markup.
package video

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/modules/processing/transcript"
	"github.com/myad-dev/site/internal/pkg/textutil"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 50
)

type (
	Service = content.Service[models.Video, *models.Video]
	Handler struct {
		*content.Handler[models.Video, *models.Video]
		siteURL string
	}
)

func NewService(col *database.Videos) *Service {
	return content.NewService(col, nil)
}

// NewHandler builds the video handler. siteURL is the public origin used for
// clip links, e.g. https://example.com.
func NewHandler(svc *Service, siteURL string, opts content.HandlerOptions[*models.Video]) *Handler {
	if opts.Wrapper == "" {
		opts.Wrapper = "video"
	}
	h := &Handler{siteURL: strings.TrimRight(siteURL, "/")}
	opts.Detail = h.detail
	h.Handler = content.NewHandler(svc, opts)
	return h
}

// RegisterRoutes mounts /videos plus GET /videos/ranking.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	g := h.Handler.RegisterRoutes(rg, requireAdmin)
	g.GET("/ranking", h.ranking)
}

func (h *Handler) detail(c *gin.Context, v *models.Video, q content.Query) (gin.H, error) {
	prev, next, err := h.Service().Neighbors(c.Request.Context(), v.Slug, content.Query{Admin: q.Admin})
	if err != nil {
		return nil, err
	}
	return gin.H{
		"prev":     prev,
		"next":     next,
		"clips":    transcript.BuildClips(v.Chapters, h.PageURL(v.Slug)),
		"watchUrl": textutil.YouTubeWatchURL(v.YouTube),
	}, nil
}

// PageURL is the public page of the video with slug, or "" without a site URL.
func (h *Handler) PageURL(slug string) string {
	if h.siteURL == "" {
		return ""
	}
	return h.siteURL + "/videos/" + slug
}

// ranking GET /videos/ranking?limit=10
func (h *Handler) ranking(c *gin.Context) {
	items, err := h.Service().List(c.Request.Context(), h.QueryFrom(c))
	if err != nil {
		content.WriteError(c, err)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRankingLimit)))
	if err != nil || limit <= 0 {
		limit = defaultRankingLimit
	}
	limit = min(limit, maxRankingLimit)

	ranked := Rank(items)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": ranked})
}

// Rank orders videos by explicit rank, unranked last, then by views, most
// recent update and date. The input is not modified.
func Rank(items []*models.Video) []*models.Video {
	out := make([]*models.Video, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := rankKey(a.Rank), rankKey(b.Rank); ra != rb {
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
	return out
}

func rankKey(r int) int {
	if r <= 0 {
		return int(^uint(0) >> 1)
	}
	return r
}
