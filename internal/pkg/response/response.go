package response

import (
	"math/rand/v2"
	"net/http"

	"github.com/gin-gonic/gin"
)

var notFoundMessages = []string{
	"ไม่พบเนื้อหาที่คุณค้นหา",
	"หน้านี้อาจถูกย้ายหรือลบไปแล้ว",
	"Not found",
}

// Pagination metadata returned with paged list responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

// OK sends a 200 response. Maps get "ok": true added unless they set it.
func OK(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, withOK(data))
}

// Created sends a 201 response.
func Created(c *gin.Context, data gin.H) {
	c.JSON(http.StatusCreated, withOK(data))
}

// Items sends the list envelope {"ok": true, "items": [...]}.
func Items(c *gin.Context, items any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

// Paged sends the list envelope with pagination metadata.
func Paged(c *gin.Context, items any, pagination Pagination) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items, "pagination": pagination})
}

// Item sends {"ok": true, "item": ...} with the given status.
func Item(c *gin.Context, status int, item any) {
	c.JSON(status, gin.H{"ok": true, "item": item})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func withOK(data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["ok"]; !ok {
		data["ok"] = true
	}
	return data
}

// Error aborts with the error envelope {"ok": 0, "code": status, "message": message}.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "message": message})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "unauthorized")
}

// UnauthorizedMsg sends a 401 error response with a custom message.
func UnauthorizedMsg(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, notFoundMessages[rand.IntN(len(notFoundMessages))])
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// TooLarge sends a 413 error response.
func TooLarge(c *gin.Context, message string) {
	Error(c, http.StatusRequestEntityTooLarge, message)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, err.Error())
}
