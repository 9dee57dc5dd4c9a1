package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/pkg/response"
)

const (
	CourseCookie = "google_course_auth"
	CourseTTL    = 30 * 24 * time.Hour
)

var (
	ErrCourseDisabled    = errors.New("course login is not configured")
	ErrCourseUsername    = errors.New("กรุณากรอกชื่อผู้ใช้")
	ErrCourseCredentials = errors.New("ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง")
)

// CourseCredentials is the shared login handed to course buyers.
type CourseCredentials struct {
	Username string
	Password string
}

type CourseService struct {
	creds CourseCredentials
}

func NewCourseService(creds CourseCredentials) *CourseService {
	return &CourseService{creds: creds}
}

// expectedUsername falls back to "User" + password when no username is set.
func (s *CourseService) expectedUsername() string {
	if u := strings.TrimSpace(s.creds.Username); u != "" {
		return u
	}
	return "User" + s.creds.Password
}

// Enroll checks a course login. username must be exactly the configured one.
func (s *CourseService) Enroll(username, password string) error {
	if s.creds.Password == "" {
		return ErrCourseDisabled
	}
	if strings.TrimSpace(username) == "" {
		return ErrCourseUsername
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.expectedUsername())) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) == 1
	if !userOK || !passOK {
		return ErrCourseCredentials
	}
	return nil
}

type EnrollDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CourseHandler struct {
	svc    *CourseService
	secure bool
	logger *zap.Logger
}

func NewCourseHandler(svc *CourseService, secure bool, logger *zap.Logger) *CourseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseHandler{svc: svc, secure: secure, logger: logger}
}

// RegisterRoutes mounts POST /course/google/enroll under rg. limit may be nil.
func (h *CourseHandler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	enroll := []gin.HandlerFunc{h.enroll}
	if limit != nil {
		enroll = append([]gin.HandlerFunc{limit}, enroll...)
	}
	rg.POST("/course/google/enroll", enroll...)
}

// enroll POST /course/google/enroll
func (h *CourseHandler) enroll(c *gin.Context) {
	var dto EnrollDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Invalid request")
		return
	}

	err := h.svc.Enroll(dto.Username, dto.Password)
	switch {
	case errors.Is(err, ErrCourseDisabled):
		h.logger.Error("course enrollment requested but no course password is configured")
		response.Error(c, http.StatusInternalServerError, "Server not configured")
		return
	case errors.Is(err, ErrCourseUsername):
		response.BadRequest(c, err.Error())
		return
	case errors.Is(err, ErrCourseCredentials):
		h.logger.Warn("course enrollment failed", zap.String("ip", c.ClientIP()))
		response.UnauthorizedMsg(c, err.Error())
		return
	case err != nil:
		response.InternalError(c, err)
		return
	}

	// gin query-escapes the cookie value.
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CourseCookie, dto.Username, int(CourseTTL/time.Second), "/", "", h.secure, true)
	response.OK(c, gin.H{"message": "Enrolled", "username": dto.Username})
}
