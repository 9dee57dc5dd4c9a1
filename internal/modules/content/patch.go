package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/processing/markdown"
	"github.com/myad-dev/site/internal/pkg/response"
	"github.com/myad-dev/site/internal/pkg/textutil"
)

const markdownField = "contentMarkdown"

// BindPatch reads a JSON object body. Requests that wrap the item in a
// single key named after the kind ({"video": {...}}) are unwrapped.
func BindPatch(c *gin.Context, wrapper string) (database.Patch, error) {
	var patch database.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrInvalidPatch, err)
	}
	if inner, ok := patch[wrapper]; ok && wrapper != "" && len(patch) == 1 {
		patch = database.Patch{}
		if err := json.Unmarshal(inner, &patch); err != nil {
			return nil, fmt.Errorf("%w: %v", database.ErrInvalidPatch, err)
		}
	}
	if patch == nil {
		patch = database.Patch{}
	}
	return patch, nil
}

// PreparePatch applies the input conveniences shared by every write:
// contentMarkdown renders into an empty contentHtml and thumbnails under the
// public base URL are stored site-relative.
func PreparePatch(patch database.Patch, publicBaseURL string) error {
	if raw, ok := patch[markdownField]; ok {
		delete(patch, markdownField)
		var md string
		if err := json.Unmarshal(raw, &md); err != nil {
			return fmt.Errorf("%w: %s must be a string", database.ErrInvalidPatch, markdownField)
		}
		if strings.TrimSpace(md) != "" && patchString(patch, "contentHtml") == "" {
			if err := setPatchString(patch, "contentHtml", markdown.Render(md)); err != nil {
				return err
			}
		}
	}

	if _, ok := patch["thumbnail"]; ok {
		if err := setPatchString(patch, "thumbnail", textutil.NormalizeThumbnail(publicBaseURL, patchString(patch, "thumbnail"))); err != nil {
			return err
		}
	}
	return nil
}

// DecodeItem builds a new item from a prepared patch.
func DecodeItem[T any, P interface {
	*T
	models.Publishable
}](patch database.Patch) (P, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	item := P(new(T))
	if err := json.Unmarshal(raw, item); err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrInvalidPatch, err)
	}
	return item, nil
}

func patchString(patch database.Patch, key string) string {
	var s string
	if raw, ok := patch[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return strings.TrimSpace(s)
}

func setPatchString(patch database.Patch, key, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	patch[key] = raw
	return nil
}

// WriteError maps store errors onto the JSON error envelope.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		response.NotFound(c)
	case errors.Is(err, database.ErrSlugExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, database.ErrTitleRequired), errors.Is(err, database.ErrInvalidPatch):
		response.BadRequest(c, err.Error())
	case errors.Is(err, database.ErrClosed):
		response.Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		response.InternalError(c, err)
	}
}
