package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/modules/processing/transcript"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type detailResponse struct {
	Item     models.Video      `json:"item"`
	Prev     *models.Video     `json:"prev"`
	Next     *models.Video     `json:"next"`
	Clips    []transcript.Clip `json:"clips"`
	WatchURL string            `json:"watchUrl"`
}

func seed(t *testing.T, videos ...*models.Video) *gin.Engine {
	t.Helper()
	col := database.OpenCollection[models.Video](t.TempDir())
	t.Cleanup(col.Close)
	svc := NewService(col)
	for _, v := range videos {
		if _, _, err := svc.Create(context.Background(), v, database.FailOnCollision); err != nil {
			t.Fatal(err)
		}
	}
	h := NewHandler(svc, "https://example.com/", content.HandlerOptions[*models.Video]{})
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"), func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) })
	return r
}

func video(slug, date string) *models.Video {
	return &models.Video{Content: models.Content{Slug: slug, Title: slug, Date: date}}
}

func TestDetail(t *testing.T) {
	mid := video("mid", "2025-01-02")
	mid.YouTube = "https://youtu.be/dQw4w9WgXcQ"
	mid.Chapters = []models.Chapter{{T: "1:00", Label: "Setup"}, {T: "0:30", Label: "Intro"}}
	r := seed(t, video("newest", "2025-01-03"), mid, video("oldest", "2025-01-01"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos/mid", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got detailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got.Prev == nil || got.Prev.Slug != "newest" {
		t.Errorf("prev = %+v, want newest", got.Prev)
	}
	if got.Next == nil || got.Next.Slug != "oldest" {
		t.Errorf("next = %+v, want oldest", got.Next)
	}
	if got.WatchURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("watchUrl = %q", got.WatchURL)
	}
	if len(got.Clips) != 2 {
		t.Fatalf("clips = %+v, want 2", got.Clips)
	}
	if got.Clips[0].Name != "Intro" || got.Clips[0].URL != "https://example.com/videos/mid?t=30" {
		t.Errorf("clips[0] = %+v", got.Clips[0])
	}
	if got.Clips[0].EndOffset == nil || *got.Clips[0].EndOffset != 60 {
		t.Errorf("clips[0].EndOffset = %v, want 60", got.Clips[0].EndOffset)
	}
}

func TestDetailAtListEnd(t *testing.T) {
	r := seed(t, video("only", "2025-01-01"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos/only", nil))
	var got detailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Prev != nil || got.Next != nil {
		t.Errorf("prev/next = %v/%v, want nil", got.Prev, got.Next)
	}
	if got.Clips == nil || len(got.Clips) != 0 {
		t.Errorf("clips = %#v, want empty", got.Clips)
	}
}

func TestRank(t *testing.T) {
	in := []*models.Video{
		{Content: models.Content{Slug: "popular", Date: "2025-01-01"}, Views: 900},
		{Content: models.Content{Slug: "second", Date: "2025-01-01"}, Rank: 2},
		{Content: models.Content{Slug: "first", Date: "2025-01-01"}, Rank: 1, Views: 1},
		{Content: models.Content{Slug: "fresh", Date: "2025-01-01", UpdatedAt: 20}, Views: 5},
		{Content: models.Content{Slug: "stale", Date: "2025-01-01", UpdatedAt: 10}, Views: 5},
	}
	want := []string{"first", "second", "popular", "fresh", "stale"}

	got := Rank(in)
	for i, v := range got {
		if v.Slug != want[i] {
			t.Errorf("Rank()[%d] = %q, want %q", i, v.Slug, want[i])
		}
	}
	if in[0].Slug != "popular" {
		t.Error("Rank modified its input")
	}
}

func TestRankingRoute(t *testing.T) {
	a := video("a", "2025-01-01")
	a.Views = 10
	b := video("b", "2025-01-02")
	b.Views = 20
	r := seed(t, a, b, video("c", "2025-01-03"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos/ranking?limit=2", nil))
	var got struct {
		Items []models.Video `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 2 || got.Items[0].Slug != "b" || got.Items[1].Slug != "a" {
		t.Errorf("ranking = %+v, want [b a]", got.Items)
	}
}
