package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/pkg/jwt"
	"github.com/myad-dev/site/internal/pkg/response"
)

const (
	// AdminCookie holds the signed session token issued by login.
	AdminCookie = "admin"

	contextKeyAdmin = "is_admin"
)

// AdminCredentials are the static secrets accepted by the admin gate.
type AdminCredentials struct {
	AuthSecret string // bearer token; disabled when empty
	User       string // basic auth user
	Pass       string // basic auth password; basic auth disabled when empty
}

// AdminGate decides whether a request comes from the site administrator.
type AdminGate struct {
	creds  AdminCredentials
	signer *jwt.Signer
}

func NewAdminGate(creds AdminCredentials, signer *jwt.Signer) *AdminGate {
	return &AdminGate{creds: creds, signer: signer}
}

// IsAdmin accepts a bearer secret, HTTP basic credentials or a valid session
// cookie, checked in that order.
func (g *AdminGate) IsAdmin(c *gin.Context) bool {
	if v, ok := c.Get(contextKeyAdmin); ok {
		is, _ := v.(bool)
		return is
	}
	is := g.check(c)
	c.Set(contextKeyAdmin, is)
	return is
}

func (g *AdminGate) check(c *gin.Context) bool {
	header := strings.TrimSpace(c.GetHeader("Authorization"))

	if g.creds.AuthSecret != "" {
		if token := NormalizeToken(header); token != "" && strings.HasPrefix(strings.ToLower(header), "bearer ") {
			if secureEqual(token, g.creds.AuthSecret) {
				return true
			}
		}
	}

	if g.creds.Pass != "" {
		if user, pass, ok := c.Request.BasicAuth(); ok {
			if secureEqual(user, g.creds.User) && secureEqual(pass, g.creds.Pass) {
				return true
			}
		}
	}

	if g.signer != nil {
		if token, err := c.Cookie(AdminCookie); err == nil && token != "" {
			if _, err := g.signer.Parse(token); err == nil {
				return true
			}
		}
	}
	return false
}

// RequireAdmin aborts with 401 unless IsAdmin holds.
func (g *AdminGate) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.IsAdmin(c) {
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
