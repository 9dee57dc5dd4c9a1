package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/middleware"
	"github.com/myad-dev/site/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type postEnvelope struct {
	OK      any           `json:"ok"`
	Existed bool          `json:"existed"`
	Item    models.Post   `json:"item"`
	Items   []models.Post `json:"items"`
	Message string        `json:"message"`
}

func newPostRouter(t *testing.T) (*gin.Engine, *Service[models.Post, *models.Post]) {
	t.Helper()
	col := database.OpenCollection[models.Post](t.TempDir(), database.WithClock(func() time.Time { return fixedNow }))
	t.Cleanup(col.Close)

	gate := middleware.NewAdminGate(middleware.AdminCredentials{AuthSecret: "s3cret"}, nil)
	svc := NewService(col, nil)
	h := NewHandler(svc, HandlerOptions[*models.Post]{Gate: gate, Wrapper: "post", PublicBaseURL: "https://cdn.example.com"})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"), gate.RequireAdmin())
	return r, svc
}

func do(t *testing.T, r http.Handler, method, path, body string, admin bool) (int, postEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer s3cret")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env postEnvelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func TestHandlerWritesRequireAdmin(t *testing.T) {
	r, _ := newPostRouter(t)

	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/posts", `{"title":"x"}`},
		{http.MethodPut, "/api/posts/x", `{"title":"y"}`},
		{http.MethodPost, "/api/posts/x/rename", `{"slug":"y"}`},
		{http.MethodDelete, "/api/posts/x", ""},
	}
	for _, tt := range tests {
		if code, _ := do(t, r, tt.method, tt.path, tt.body, false); code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, code, http.StatusUnauthorized)
		}
	}
}

func TestHandlerCreateAndGet(t *testing.T) {
	r, _ := newPostRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/posts",
		`{"post":{"title":"Hello","contentMarkdown":"**hi**","thumbnail":"https://cdn.example.com/uploads/a.png"}}`, true)
	if code != http.StatusCreated {
		t.Fatalf("create = %d, want %d", code, http.StatusCreated)
	}
	if env.Item.Slug != "hello" {
		t.Errorf("slug = %q, want %q", env.Item.Slug, "hello")
	}
	if !strings.Contains(env.Item.ContentHTML, "<strong>hi</strong>") {
		t.Errorf("contentHtml = %q, want rendered markdown", env.Item.ContentHTML)
	}
	if env.Item.Thumbnail != "/uploads/a.png" {
		t.Errorf("thumbnail = %q, want %q", env.Item.Thumbnail, "/uploads/a.png")
	}

	code, env = do(t, r, http.MethodGet, "/api/posts/HELLO", "", false)
	if code != http.StatusOK || env.Item.Title != "Hello" {
		t.Errorf("get = %d %q, want 200 %q", code, env.Item.Title, "Hello")
	}

	if code, _ = do(t, r, http.MethodGet, "/api/posts/missing", "", false); code != http.StatusNotFound {
		t.Errorf("get missing = %d, want %d", code, http.StatusNotFound)
	}
}

func TestHandlerCreateModes(t *testing.T) {
	r, _ := newPostRouter(t)
	body := `{"slug":"dup","title":"First"}`
	if code, _ := do(t, r, http.MethodPost, "/api/posts", body, true); code != http.StatusCreated {
		t.Fatalf("seed = %d", code)
	}

	tests := []struct {
		mode    string
		code    int
		existed bool
	}{
		{"noop", http.StatusOK, true},
		{"fail", http.StatusConflict, false},
		{"", http.StatusCreated, false},
	}
	for _, tt := range tests {
		t.Run("mode="+tt.mode, func(t *testing.T) {
			code, env := do(t, r, http.MethodPost, "/api/posts?mode="+tt.mode, `{"slug":"dup","title":"Second"}`, true)
			if code != tt.code {
				t.Fatalf("code = %d, want %d (%s)", code, tt.code, env.Message)
			}
			if env.Existed != tt.existed {
				t.Errorf("existed = %v, want %v", env.Existed, tt.existed)
			}
			if tt.existed && env.Item.Title != "First" {
				t.Errorf("title = %q, want stored %q", env.Item.Title, "First")
			}
		})
	}
}

func TestHandlerCreateWithoutTitle(t *testing.T) {
	r, _ := newPostRouter(t)
	if code, _ := do(t, r, http.MethodPost, "/api/posts", `{"slug":"x"}`, true); code != http.StatusBadRequest {
		t.Errorf("create = %d, want %d", code, http.StatusBadRequest)
	}
	if code, _ := do(t, r, http.MethodPost, "/api/posts", `not json`, true); code != http.StatusBadRequest {
		t.Errorf("create bad json = %d, want %d", code, http.StatusBadRequest)
	}
}

func TestHandlerUpdateRenameDelete(t *testing.T) {
	r, svc := newPostRouter(t)
	ctx := context.Background()
	for _, p := range []*models.Post{
		{Content: models.Content{Slug: "a", Title: "A"}},
		{Content: models.Content{Slug: "b", Title: "B"}},
	} {
		if _, _, err := svc.Create(ctx, p, database.DisambiguateOnCollision); err != nil {
			t.Fatal(err)
		}
	}

	code, env := do(t, r, http.MethodPut, "/api/posts/a", `{"excerpt":"short"}`, true)
	if code != http.StatusOK || env.Item.Excerpt != "short" || env.Item.Title != "A" {
		t.Errorf("update = %d %+v", code, env.Item.Content)
	}

	if code, _ = do(t, r, http.MethodPost, "/api/posts/a/rename", `{"slug":"b"}`, true); code != http.StatusConflict {
		t.Errorf("rename onto taken slug = %d, want %d", code, http.StatusConflict)
	}
	if code, _ = do(t, r, http.MethodPost, "/api/posts/a/rename", `{"slug":"  "}`, true); code != http.StatusBadRequest {
		t.Errorf("rename blank = %d, want %d", code, http.StatusBadRequest)
	}
	code, env = do(t, r, http.MethodPost, "/api/posts/a/rename", `{"slug":"c"}`, true)
	if code != http.StatusOK || env.Item.Slug != "c" {
		t.Errorf("rename = %d %q, want 200 %q", code, env.Item.Slug, "c")
	}

	if code, _ = do(t, r, http.MethodDelete, "/api/posts/c", "", true); code != http.StatusOK {
		t.Errorf("delete = %d, want %d", code, http.StatusOK)
	}
	if code, _ = do(t, r, http.MethodDelete, "/api/posts/c", "", true); code != http.StatusNotFound {
		t.Errorf("delete again = %d, want %d", code, http.StatusNotFound)
	}
}

func TestHandlerListFiltersAndPages(t *testing.T) {
	r, svc := newPostRouter(t)
	ctx := context.Background()
	seed := []*models.Post{
		{Content: models.Content{Slug: "one", Title: "Google Ads basics", Date: "2025-01-03", Tags: models.StringList{"Ads"}}},
		{Content: models.Content{Slug: "two", Title: "Facebook tips", Date: "2025-01-02", Tags: models.StringList{"social"}}},
		{Content: models.Content{Slug: "three", Title: "More ads", Date: "2025-01-01", Tags: models.StringList{"ads"}}},
	}
	for _, p := range seed {
		if _, _, err := svc.Create(ctx, p, database.DisambiguateOnCollision); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"one", "two", "three"}},
		{"?tag=ADS", []string{"one", "three"}},
		{"?q=facebook", []string{"two"}},
		{"?page=2&size=2", []string{"three"}},
	}
	for _, tt := range tests {
		_, env := do(t, r, http.MethodGet, "/api/posts"+tt.query, "", false)
		var got []string
		for _, it := range env.Items {
			got = append(got, it.Slug)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("list%s = %v, want %v", tt.query, got, tt.want)
		}
	}
}
