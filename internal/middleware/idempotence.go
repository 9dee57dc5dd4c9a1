package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/pkg/response"
)

const (
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
)

// ClaimStore records in-flight and completed requests. The redis client
// implements it.
type ClaimStore interface {
	// Claim marks key as in flight. When the key already exists claimed is
	// false and state is "0" for in flight or "1" for completed.
	Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, state string, err error)
	Complete(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// Idempotence rejects a repeated POST/PUT/DELETE with the same body from the
// same client within a minute, so a double-clicked save cannot create two
// copies of an item. A nil store disables the check. Paths in skip are
// never checked.
func Idempotence(store ClaimStore, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("site:idempotence:%s", key)
		ctx := c.Request.Context()

		claimed, state, err := store.Claim(ctx, redisKey, idempotenceTTL)
		if err != nil {
			c.Next()
			return
		}
		if !claimed {
			msg := "the same request already succeeded, wait a minute before repeating it"
			if state == "0" {
				msg = "the same request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			_ = store.Complete(context.WithoutCancel(ctx), redisKey)
		} else {
			_ = store.Release(context.WithoutCancel(ctx), redisKey)
		}
	}
}

// resolveIdempotenceKey returns the explicit x-idempotence header or a hash
// of the request line, body and caller identity.
func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return hdr, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	authToken := NormalizeToken(c.GetHeader("Authorization"))
	if authToken == "" {
		authToken, _ = c.Cookie(AdminCookie)
	}

	if len(body) == 0 && ua == "" && ip == "" && authToken == "" {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + ua + "|" + ip + "|" + authToken
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
