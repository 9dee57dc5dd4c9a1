// Package file accepts image uploads from the admin editors and stores them
// locally or on S3.
package file

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/pkg/response"
)

const uploadPrefix = "uploads"

var allowedExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {}, ".avif": {},
}

// Handler serves POST /admin/upload.
type Handler struct {
	storage  Storage
	maxBytes int64
	now      func() time.Time
	logger   *zap.Logger
}

func NewHandler(storage Storage, maxSizeMB int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		storage:  storage,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		now:      time.Now,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	rg.POST("/upload", requireAdmin, h.upload)
}

// upload POST /admin/upload  multipart "file"
func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	ext, err := validateImage(fileHeader.Filename, fileHeader.Size, h.maxBytes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()
	payload, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if h.maxBytes > 0 && int64(len(payload)) > h.maxBytes {
		response.TooLarge(c, fmt.Sprintf("image size exceeds %dMB", h.maxBytes>>20))
		return
	}

	key := ObjectKey(h.now(), ext)
	url, err := h.storage.Put(c.Request.Context(), key, payload, detectContentType(ext, payload))
	if err != nil {
		h.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		response.InternalError(c, err)
		return
	}
	h.logger.Info("file uploaded", zap.String("key", key), zap.Int("bytes", len(payload)))
	response.OK(c, gin.H{"url": url})
}

// ObjectKey is uploads/<yyyymm>/<uuid><ext>.
func ObjectKey(now time.Time, ext string) string {
	return uploadPrefix + "/" + now.Format("200601") + "/" + uuid.NewString() + ext
}

// validateImage checks the extension against the image allow list and the
// declared size against maxBytes. It returns the lower-cased extension.
func validateImage(filename string, size, maxBytes int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" {
		return "", fmt.Errorf("image format is required")
	}
	if _, ok := allowedExts[ext]; !ok {
		return "", fmt.Errorf("image format %s is not allowed", ext)
	}
	if maxBytes > 0 && size > maxBytes {
		return "", fmt.Errorf("image size exceeds %dMB", maxBytes>>20)
	}
	return ext, nil
}

func detectContentType(ext string, payload []byte) string {
	if guessed := mime.TypeByExtension(ext); guessed != "" {
		return guessed
	}
	if len(payload) > 0 {
		return http.DetectContentType(payload)
	}
	return "application/octet-stream"
}
