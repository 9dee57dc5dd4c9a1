package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/myad-dev/site/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func openPosts(t *testing.T, dir string) *Posts {
	t.Helper()
	c := OpenCollection[models.Post](dir, WithClock(fixedClock))
	t.Cleanup(c.Close)
	return c
}

func openBlog(t *testing.T, dir string) *Blog {
	t.Helper()
	c := OpenCollection[models.BlogPost](dir, WithClock(fixedClock))
	t.Cleanup(c.Close)
	return c
}

func post(title string) *models.Post {
	return &models.Post{Content: models.Content{Title: title}}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readEnvelope(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("file is not an envelope: %v\n%s", err, data)
	}
	return env
}

func TestList_MissingFileCreatesEmptyEnvelope(t *testing.T) {
	dir := t.TempDir()
	c := openPosts(t, dir)

	items, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("List() = %d items, want 0", len(items))
	}
	env := readEnvelope(t, filepath.Join(dir, "posts.json"))
	if string(env["version"]) != "1" || string(env["items"]) != "[]" {
		t.Errorf("envelope = %v", env)
	}
}

func TestList_LegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bare array", `[{"slug":"a","title":"A","date":"2024-01-01"},{"slug":"b","title":"B","date":"2024-05-01"}]`},
		{"items object", `{"items":[{"slug":"a","title":"A","date":"2024-01-01"},{"slug":"b","title":"B","date":"2024-05-01"}]}`},
		{"versioned", `{"version":1,"items":[{"slug":"a","title":"A","date":"2024-01-01"},{"slug":"b","title":"B","date":"2024-05-01"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "posts.json")
			writeFile(t, path, tt.data)
			c := openPosts(t, dir)

			items, err := c.List(context.Background())
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(items) != 2 || items[0].Slug != "b" || items[1].Slug != "a" {
				t.Fatalf("List() order = %v, want [b a]", slugs(items))
			}

			if _, _, err := c.Create(context.Background(), post("New"), DisambiguateOnCollision); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			env := readEnvelope(t, path)
			if string(env["version"]) != "1" {
				t.Errorf("version after write = %s, want 1", env["version"])
			}
		})
	}
}

func TestList_CorruptFileSelfHeals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posts.json")
	writeFile(t, path, `{"items": [ this is not json`)
	c := openPosts(t, dir)

	items, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v, want nil", err)
	}
	if len(items) != 0 {
		t.Fatalf("List() = %d items, want 0", len(items))
	}
	env := readEnvelope(t, path)
	if string(env["items"]) != "[]" {
		t.Errorf("items after reset = %s, want []", env["items"])
	}
}

func TestList_SortsByDateThenCreatedAt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "posts.json"), `{"version":1,"items":[
		{"slug":"old","title":"x","date":"2024-01-01","createdAt":5},
		{"slug":"same-early","title":"x","date":"2024-06-01","createdAt":1},
		{"slug":"same-late","title":"x","date":"2024-06-01","createdAt":9}
	]}`)
	c := openPosts(t, dir)

	items, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"same-late", "same-early", "old"}
	if got := slugs(items); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestCreate_RequiresTitle(t *testing.T) {
	dir := t.TempDir()
	c := openPosts(t, dir)

	for _, title := range []string{"", "   ", "\n\t"} {
		_, _, err := c.Create(context.Background(), post(title), DisambiguateOnCollision)
		if !errors.Is(err, ErrTitleRequired) {
			t.Errorf("Create(%q) error = %v, want ErrTitleRequired", title, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "posts.json")); !os.IsNotExist(err) {
		t.Errorf("collection file touched by rejected create: %v", err)
	}
}

func TestCreate_DisambiguatesCollisions(t *testing.T) {
	c := openPosts(t, t.TempDir())
	ctx := context.Background()

	var created []*models.Post
	for i := 0; i < 3; i++ {
		p := post("Hello World")
		p.Excerpt = fmt.Sprintf("n%d", i)
		got, existed, err := c.Create(ctx, p, DisambiguateOnCollision)
		if err != nil || existed {
			t.Fatalf("Create #%d = %v, existed %v", i, err, existed)
		}
		created = append(created, got)
	}

	if created[0].Slug != "hello-world" {
		t.Errorf("first slug = %q, want hello-world", created[0].Slug)
	}
	seen := map[string]bool{}
	for _, p := range created {
		if seen[p.Slug] {
			t.Fatalf("duplicate slug %q", p.Slug)
		}
		seen[p.Slug] = true
		if !strings.HasPrefix(p.Slug, "hello-world") {
			t.Errorf("slug %q lost its base", p.Slug)
		}

		got, err := c.Get(ctx, p.Slug)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", p.Slug, err)
		}
		if !reflect.DeepEqual(got, p) {
			t.Errorf("Get(%q) = %+v, want %+v", p.Slug, got, p)
		}
	}
}

func TestCreate_AssignsIdentityAndDefaults(t *testing.T) {
	c := openPosts(t, t.TempDir())
	p, _, err := c.Create(context.Background(), post("สวัสดี โลก"), DisambiguateOnCollision)
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "สวัสดี-โลก" {
		t.Errorf("Slug = %q", p.Slug)
	}
	if p.ID == "" {
		t.Error("ID not assigned")
	}
	if p.CreatedAt != fixedNow.UnixMilli() || p.UpdatedAt != fixedNow.UnixMilli() {
		t.Errorf("timestamps = %d/%d", p.CreatedAt, p.UpdatedAt)
	}
	if p.Date != "2025-03-01" {
		t.Errorf("Date = %q, want clock date", p.Date)
	}
}

func TestCreate_Modes(t *testing.T) {
	ctx := context.Background()
	c := openPosts(t, t.TempDir())

	first, _, err := c.Create(ctx, post("Same"), DisambiguateOnCollision)
	if err != nil {
		t.Fatal(err)
	}

	dup := post("Same")
	dup.Excerpt = "second"
	got, existed, err := c.Create(ctx, dup, NoopOnCollision)
	if err != nil || !existed {
		t.Fatalf("Create(noop) = %v, existed %v; want existing item", err, existed)
	}
	if got.ID != first.ID || got.Excerpt == "second" {
		t.Errorf("Create(noop) returned %+v, want the first item", got)
	}

	if _, _, err := c.Create(ctx, post("same"), FailOnCollision); !errors.Is(err, ErrSlugExists) {
		t.Errorf("Create(fail) error = %v, want ErrSlugExists", err)
	}

	items, _ := c.List(ctx)
	if len(items) != 1 {
		t.Errorf("List() = %d items after noop/fail, want 1", len(items))
	}
}

func TestParseCreateMode(t *testing.T) {
	tests := map[string]CreateMode{
		"":       DisambiguateOnCollision,
		"suffix": DisambiguateOnCollision,
		"NOOP":   NoopOnCollision,
		"fail":   FailOnCollision,
		"other":  DisambiguateOnCollision,
	}
	for in, want := range tests {
		if got := ParseCreateMode(in); got != want {
			t.Errorf("ParseCreateMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet_Lookup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "posts.json"), `[{"slug":"Mixed-Case","title":"x"},{"slug":"สวัสดี-โลก","title":"y"}]`)
	c := openPosts(t, dir)

	for _, slug := range []string{"Mixed-Case", "mixed-case", "%E0%B8%AA%E0%B8%A7%E0%B8%B1%E0%B8%AA%E0%B8%94%E0%B8%B5-%E0%B9%82%E0%B8%A5%E0%B8%81"} {
		if _, err := c.Get(ctx, slug); err != nil {
			t.Errorf("Get(%q) error = %v", slug, err)
		}
	}
	if got, err := c.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) || got != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, ErrNotFound", got, err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	c := openPosts(t, t.TempDir())

	a, _, _ := c.Create(ctx, post("Alpha"), DisambiguateOnCollision)
	if _, _, err := c.Create(ctx, post("Beta"), DisambiguateOnCollision); err != nil {
		t.Fatal(err)
	}

	t.Run("missing slug leaves collection unchanged", func(t *testing.T) {
		before, _ := os.ReadFile(c.Path())
		if _, err := c.Update(ctx, "nope", Patch{"title": json.RawMessage(`"x"`)}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Update(missing) error = %v, want ErrNotFound", err)
		}
		after, _ := os.ReadFile(c.Path())
		if string(before) != string(after) {
			t.Error("collection file changed after failed update")
		}
	})

	t.Run("shallow merge keeps unpatched fields", func(t *testing.T) {
		got, err := c.Update(ctx, "alpha", Patch{
			"excerpt": json.RawMessage(`"new excerpt"`),
			"tags":    json.RawMessage(`"seo, ads"`),
			"id":      json.RawMessage(`"forged"`),
		})
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "Alpha" || got.Excerpt != "new excerpt" {
			t.Errorf("merged = %+v", got)
		}
		if !reflect.DeepEqual([]string(got.Tags), []string{"seo", "ads"}) {
			t.Errorf("Tags = %v", got.Tags)
		}
		if got.ID != a.ID || got.CreatedAt != a.CreatedAt {
			t.Errorf("identity changed: id %q createdAt %d", got.ID, got.CreatedAt)
		}
	})

	t.Run("slug change disambiguates against others", func(t *testing.T) {
		got, err := c.Update(ctx, "alpha", Patch{"slug": json.RawMessage(`"Beta"`)})
		if err != nil {
			t.Fatal(err)
		}
		if got.Slug == "beta" || !strings.HasPrefix(got.Slug, "beta-") {
			t.Errorf("Slug = %q, want disambiguated beta-xxxx", got.Slug)
		}
		if _, err := c.Get(ctx, "beta"); err != nil {
			t.Errorf("other item lost: %v", err)
		}
	})

	t.Run("blank title rejected", func(t *testing.T) {
		if _, err := c.Update(ctx, "beta", Patch{"title": json.RawMessage(`"  "`)}); !errors.Is(err, ErrTitleRequired) {
			t.Errorf("error = %v, want ErrTitleRequired", err)
		}
	})

	t.Run("wrong field type rejected", func(t *testing.T) {
		if _, err := c.Update(ctx, "beta", Patch{"title": json.RawMessage(`42`)}); !errors.Is(err, ErrInvalidPatch) {
			t.Errorf("error = %v, want ErrInvalidPatch", err)
		}
	})
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	c := openBlog(t, t.TempDir())

	orig, _, err := c.Create(ctx, &models.BlogPost{Content: models.Content{Title: "Original"}}, DisambiguateOnCollision)
	if err != nil {
		t.Fatal(err)
	}

	next := &models.BlogPost{Content: models.Content{Title: "Renamed Post", Slug: "renamed"}, Status: "draft"}
	got, err := c.Replace(ctx, orig.Slug, next)
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if got.Slug != "renamed" || got.ID != orig.ID || got.CreatedAt != orig.CreatedAt || !got.IsDraft() {
		t.Errorf("Replace() = %+v", got)
	}
	if _, err := c.Get(ctx, orig.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("old slug still resolvable: %v", err)
	}

	if _, err := c.Replace(ctx, "renamed", &models.BlogPost{}); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("Replace(blank) error = %v, want ErrTitleRequired", err)
	}
	if _, err := c.Get(ctx, "renamed"); err != nil {
		t.Errorf("record lost after rejected replace: %v", err)
	}
	if _, err := c.Replace(ctx, "missing", next); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace(missing) error = %v", err)
	}
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	c := openPosts(t, t.TempDir())
	for _, title := range []string{"One", "Two"} {
		if _, _, err := c.Create(ctx, post(title), DisambiguateOnCollision); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := c.Rename(ctx, "one", "two"); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("Rename onto taken slug error = %v, want ErrSlugExists", err)
	}
	if _, err := c.Get(ctx, "one"); err != nil {
		t.Fatalf("source lost after failed rename: %v", err)
	}

	got, err := c.Rename(ctx, "one", "First Item")
	if err != nil {
		t.Fatal(err)
	}
	if got.Slug != "first-item" {
		t.Errorf("Rename() slug = %q", got.Slug)
	}
	if _, err := c.Rename(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename(missing) error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := openPosts(t, t.TempDir())
	p, _, _ := c.Create(ctx, post("Gone Soon"), DisambiguateOnCollision)

	if err := c.Delete(ctx, p.Slug); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get(ctx, p.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, p.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentCreatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	c := openPosts(t, t.TempDir())

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Create(ctx, post("Same Title"), DisambiguateOnCollision)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	items, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != n {
		t.Fatalf("List() = %d items, want %d", len(items), n)
	}
	seen := map[string]bool{}
	for _, s := range slugs(items) {
		if seen[s] {
			t.Fatalf("duplicate slug %q", s)
		}
		seen[s] = true
	}
}

func TestContextAndClose(t *testing.T) {
	dir := t.TempDir()
	c := OpenCollection[models.Post](dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("List(cancelled) error = %v", err)
	}

	c.Close()
	c.Close()
	if _, err := c.List(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("List after Close error = %v, want ErrClosed", err)
	}
}

func slugs[P models.Publishable](items []P) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Base().Slug
	}
	return out
}
