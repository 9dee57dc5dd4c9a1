package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/pkg/response"
)

const (
	DefaultPage = 1
	DefaultSize = 12
	MaxSize     = 100
)

// Query holds parsed pagination parameters. The zero Query means the client
// did not ask for paging.
type Query struct {
	Page int
	Size int
}

// Enabled reports whether a page was requested.
func (q Query) Enabled() bool { return q.Page > 0 }

// FromContext reads page and size. Without a page parameter paging is off and
// callers return the whole list, which is what the site pages expect.
func FromContext(c *gin.Context) Query {
	raw, ok := c.GetQuery("page")
	if !ok {
		return Query{}
	}
	page := parseIntOr(raw, DefaultPage)
	size := parseIntOr(c.DefaultQuery("size", strconv.Itoa(DefaultSize)), DefaultSize)

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return Query{Page: page, Size: size}
}

// Slice returns the requested page of items and its metadata.
func Slice[T any](items []T, q Query) ([]T, response.Pagination) {
	total := len(items)
	totalPage := (total + q.Size - 1) / q.Size

	start := min((q.Page-1)*q.Size, total)
	end := min(start+q.Size, total)

	return items[start:end], response.Pagination{
		Total:       int64(total),
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
