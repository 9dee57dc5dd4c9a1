package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/middleware"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/admin"
	"github.com/myad-dev/site/internal/modules/auth"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/modules/content/blog"
	"github.com/myad-dev/site/internal/modules/content/post"
	"github.com/myad-dev/site/internal/modules/content/review"
	"github.com/myad-dev/site/internal/modules/content/video"
	"github.com/myad-dev/site/internal/modules/markdown"
	"github.com/myad-dev/site/internal/modules/storage/file"
	"github.com/myad-dev/site/internal/modules/syndication/sitemap"
	"github.com/myad-dev/site/internal/pkg/response"
)

const (
	defaultLoginLimit = 10
	loginWindow       = time.Minute
)

func (a *App) registerRoutes() {
	r := a.router
	requireAdmin := a.gate.RequireAdmin()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, 405, "method not allowed")
	})

	r.GET("/healthz", func(c *gin.Context) {
		response.OK(c, gin.H{"env": a.cfg.Env})
	})
	r.Static("/uploads", a.cfg.StaticPath()+"/uploads")

	// Redis backed middleware stays off when redis is not configured. The
	// interfaces must stay nil rather than hold a nil *Client.
	var (
		counter middleware.Counter
		claims  middleware.ClaimStore
	)
	if a.redis != nil {
		counter, claims = a.redis, a.redis
	}

	api := r.Group("/api", middleware.Idempotence(claims,
		"/api/admin/login", "/api/admin/logout", "/api/admin/transcript/preview",
		"/api/course/google/enroll"))

	postSvc := post.NewService(a.store.Posts)
	blogSvc := blog.NewService(a.store.Blog)
	videoSvc := video.NewService(a.store.Videos)
	reviewSvc := review.NewService(a.store.Reviews)

	base := a.cfg.PublicBaseURL
	post.NewHandler(postSvc, content.HandlerOptions[*models.Post]{Gate: a.gate, PublicBaseURL: base}).
		RegisterRoutes(api, requireAdmin)
	blog.NewHandler(blogSvc, content.HandlerOptions[*models.BlogPost]{Gate: a.gate, PublicBaseURL: base}).
		RegisterRoutes(api, requireAdmin)
	video.NewHandler(videoSvc, a.cfg.SiteURL, content.HandlerOptions[*models.Video]{Gate: a.gate, PublicBaseURL: base}).
		RegisterRoutes(api, requireAdmin)
	review.NewHandler(reviewSvc, content.HandlerOptions[*models.Review]{Gate: a.gate, PublicBaseURL: base}).
		RegisterRoutes(api, requireAdmin)

	adminGroup := api.Group("/admin")

	limit := int64(a.cfg.Admin.LoginLimit)
	if limit <= 0 {
		limit = defaultLoginLimit
	}
	authSvc := auth.NewService(auth.Credentials{
		Password:     a.cfg.Admin.Password,
		PasswordHash: a.cfg.Admin.PasswordHash,
	}, a.signer)
	auth.NewHandler(authSvc, a.gate, !a.cfg.IsDev(), a.logger).
		RegisterRoutes(adminGroup, middleware.RateLimit(counter, "login", limit, loginWindow, a.logger))
	auth.NewCourseHandler(auth.NewCourseService(auth.CourseCredentials{
		Username: a.cfg.Course.Username,
		Password: a.cfg.Course.Password,
	}), !a.cfg.IsDev(), a.logger).
		RegisterRoutes(api, middleware.RateLimit(counter, "course", limit, loginWindow, a.logger))

	adminSvc := admin.NewService(admin.Services{
		Posts:   postSvc,
		Blog:    blogSvc,
		Videos:  videoSvc,
		Reviews: reviewSvc,
	}, base, a.logger)
	admin.NewHandler(adminSvc).RegisterRoutes(adminGroup, requireAdmin)

	file.NewHandler(a.storage, a.cfg.Upload.MaxSizeMB, a.logger).RegisterRoutes(adminGroup, requireAdmin)
	markdown.NewHandler(postSvc, blogSvc, a.logger).RegisterRoutes(adminGroup, requireAdmin)

	sitemap.NewHandler(sitemap.Sources{
		Posts:   postSvc,
		Blog:    blogSvc,
		Videos:  videoSvc,
		Reviews: reviewSvc,
	}, a.cfg.SiteURL, a.logger).RegisterRoutes(r)
}
