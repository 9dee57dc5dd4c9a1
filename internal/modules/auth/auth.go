// Package auth issues and clears the admin session cookie and the course
// enrollment cookie.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/myad-dev/site/internal/middleware"
	"github.com/myad-dev/site/internal/pkg/jwt"
	"github.com/myad-dev/site/internal/pkg/response"
)

const (
	SessionTTL = 7 * 24 * time.Hour

	adminSubject = "admin"
)

var (
	ErrWrongPassword = errors.New("รหัสผ่านไม่ถูกต้อง")
	ErrLoginDisabled = errors.New("admin login is not configured")
)

type LoginDTO struct {
	Password string `json:"password" binding:"required"`
}

// Credentials are the accepted login secrets. PasswordHash is a bcrypt hash
// and is checked when set; Password is the plain fallback.
type Credentials struct {
	Password     string
	PasswordHash string
}

type Service struct {
	creds  Credentials
	signer *jwt.Signer
}

func NewService(creds Credentials, signer *jwt.Signer) *Service {
	return &Service{creds: creds, signer: signer}
}

// Login checks password and returns a signed session token.
func (s *Service) Login(password string) (string, error) {
	switch {
	case s.creds.PasswordHash != "":
		if err := bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password)); err != nil {
			return "", ErrWrongPassword
		}
	case s.creds.Password != "":
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) != 1 {
			return "", ErrWrongPassword
		}
	default:
		return "", ErrLoginDisabled
	}
	return s.signer.Sign(adminSubject, SessionTTL)
}

type Handler struct {
	svc    *Service
	gate   *middleware.AdminGate
	secure bool
	logger *zap.Logger
}

// NewHandler builds the login handler. secure marks the cookie Secure, which
// production sets since the site is served over https.
func NewHandler(svc *Service, gate *middleware.AdminGate, secure bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, gate: gate, secure: secure, logger: logger}
}

// RegisterRoutes mounts login, logout and session under rg (the /admin
// group). limit throttles login attempts and may be nil.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	login := []gin.HandlerFunc{h.login}
	if limit != nil {
		login = append([]gin.HandlerFunc{limit}, login...)
	}
	rg.POST("/login", login...)
	rg.POST("/logout", h.logout)
	rg.GET("/session", h.session)
}

// login POST /admin/login
func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "กรุณากรอกรหัสผ่าน")
		return
	}
	token, err := h.svc.Login(dto.Password)
	switch {
	case errors.Is(err, ErrWrongPassword):
		h.logger.Warn("admin login failed", zap.String("ip", c.ClientIP()))
		response.UnauthorizedMsg(c, err.Error())
		return
	case errors.Is(err, ErrLoginDisabled):
		response.Error(c, http.StatusForbidden, err.Error())
		return
	case err != nil:
		response.InternalError(c, err)
		return
	}

	h.setCookie(c, token, int(SessionTTL/time.Second))
	h.logger.Info("admin login", zap.String("ip", c.ClientIP()))
	response.OK(c, gin.H{})
}

// logout POST /admin/logout
func (h *Handler) logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	response.OK(c, gin.H{})
}

// session GET /admin/session
func (h *Handler) session(c *gin.Context) {
	response.OK(c, gin.H{"isAdmin": h.gate != nil && h.gate.IsAdmin(c)})
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookie, value, maxAge, "/", "", h.secure, true)
}
