package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/config"
	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/middleware"
	"github.com/myad-dev/site/internal/modules/storage/file"
	"github.com/myad-dev/site/internal/pkg/jwt"
	pkgredis "github.com/myad-dev/site/internal/pkg/redis"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	store   *database.Store
	redis   *pkgredis.Client
	gate    *middleware.AdminGate
	signer  *jwt.Signer
	storage file.Storage
	logger  *zap.Logger
}

// New wires config → store → redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		secret = cfg.Admin.AuthSecret
	}
	if secret == "" {
		return nil, errors.New("jwt_secret (or admin.auth_secret) is required to sign admin sessions")
	}
	signer, err := jwt.NewSigner(secret)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	store, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.Redis.Enabled() {
		rc, err = pkgredis.Connect(cfg.Redis.URLValue())
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Info("redis not configured, login throttling and idempotence disabled")
	}

	storage, err := file.NewStorage(cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger, "/uploads/"))
	router.Use(cors.New(corsConfig(cfg)))

	gate := middleware.NewAdminGate(middleware.AdminCredentials{
		AuthSecret: cfg.Admin.AuthSecret,
		User:       cfg.Admin.User,
		Pass:       cfg.Admin.Pass,
	}, signer)

	a := &App{
		cfg:     cfg,
		router:  router,
		store:   store,
		redis:   rc,
		gate:    gate,
		signer:  signer,
		storage: storage,
		logger:  logger,
	}
	a.registerRoutes()
	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops the collection owners and closes redis.
func (a *App) Shutdown() {
	a.store.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close", zap.Error(err))
		}
	}
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Idempotence"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		c.AllowOriginFunc = func(string) bool { return true }
	}
	return c
}
