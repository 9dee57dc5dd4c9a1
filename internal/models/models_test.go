package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func TestStringList_UnmarshalLegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want StringList
	}{
		{"array", `["a","A","b"]`, StringList{"a", "b"}},
		{"csv string", `"seo, ads , SEO"`, StringList{"seo", "ads"}},
		{"null", `null`, StringList{}},
		{"mixed", `["x", 1, null, "y"]`, StringList{"x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestStringList_MarshalNil(t *testing.T) {
	b, err := json.Marshal(struct {
		Tags StringList `json:"tags"`
	}{})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"tags":[]}` {
		t.Errorf("Marshal = %s, want empty array", b)
	}
}

func TestContentNormalize(t *testing.T) {
	p := &Post{Content: Content{
		Title:    "  Title  ",
		Tags:     StringList{"Ads", "ads", " ", "SEO"},
		Keywords: StringList{"k"},
		FAQs:     []FAQ{{Q: "q?", A: "a"}, {Q: "no answer"}, {Q: " ", A: "x"}},
	}}
	p.Normalize(fixedNow)

	if p.Title != "Title" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Date != "2025-01-15" {
		t.Errorf("Date = %q, want today", p.Date)
	}
	if !reflect.DeepEqual(p.Tags, StringList{"Ads", "SEO"}) {
		t.Errorf("Tags = %#v", p.Tags)
	}
	if p.Author != "ทีมบทความ" {
		t.Errorf("Author = %q, want posts default", p.Author)
	}
	if p.ContentHTML == "" {
		t.Error("ContentHTML empty, want default body")
	}
	if len(p.FAQs) != 1 || p.FAQs[0].Q != "q?" {
		t.Errorf("FAQs = %#v", p.FAQs)
	}
}

func TestVideoNormalize(t *testing.T) {
	v := &Video{
		Content: Content{Title: "v", Author: "me"},
		Chapters: []Chapter{
			{T: "00:00", Label: "Intro"},
			{T: "00:00", Label: "Duplicate"},
			{T: "01:30", Label: ""},
			{T: " 02:00 ", Label: " Outro "},
		},
		Views: -3,
	}
	v.Normalize(fixedNow)

	want := []Chapter{{T: "00:00", Label: "Intro"}, {T: "02:00", Label: "Outro"}}
	if !reflect.DeepEqual(v.Chapters, want) {
		t.Errorf("Chapters = %#v, want %#v", v.Chapters, want)
	}
	if v.Duration != "PT0M" {
		t.Errorf("Duration = %q, want PT0M", v.Duration)
	}
	if v.Author != "me" {
		t.Errorf("Author = %q, want explicit author kept", v.Author)
	}
	if v.Views != 0 {
		t.Errorf("Views = %d, want clamped to 0", v.Views)
	}
}

func TestBlogAndReviewNormalize(t *testing.T) {
	b := &BlogPost{Content: Content{Title: "b"}, Status: " DRAFT "}
	b.Normalize(fixedNow)
	if !b.IsDraft() || b.ReadingMinutes != 5 || b.InLanguage != "th-TH" {
		t.Errorf("BlogPost = %+v", b)
	}

	b2 := &BlogPost{Content: Content{Title: "b"}, Status: "whatever"}
	b2.Normalize(fixedNow)
	if b2.Status != BlogStatusPublished {
		t.Errorf("Status = %q, want published", b2.Status)
	}

	r := &Review{Content: Content{Title: "r"}, Category: " Google ", Rating: 9}
	r.Normalize(fixedNow)
	if r.Category != ReviewCategoryGoogle || r.Rating != 5 {
		t.Errorf("Review = %+v", r)
	}
}

func TestTouch(t *testing.T) {
	var c Content
	c.Touch(fixedNow)
	if c.CreatedAt != fixedNow.UnixMilli() || c.UpdatedAt != c.CreatedAt {
		t.Fatalf("Touch() = %d/%d", c.CreatedAt, c.UpdatedAt)
	}
	later := fixedNow.Add(time.Minute)
	c.Touch(later)
	if c.CreatedAt != fixedNow.UnixMilli() || c.UpdatedAt != later.UnixMilli() {
		t.Errorf("second Touch() = %d/%d", c.CreatedAt, c.UpdatedAt)
	}
}

func TestVideoJSONShape(t *testing.T) {
	v := Video{Content: Content{Slug: "s", Title: "t"}, YouTube: "abc", Chapters: []Chapter{{T: "00:00", Label: "x"}}}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"slug", "title", "contentHtml", "transcriptHtml", "chapters", "youtube", "faqs", "tags"} {
		if _, ok := m[key]; !ok {
			t.Errorf("encoded video missing %q: %s", key, b)
		}
	}
}

func TestBlogLegacyImage(t *testing.T) {
	var b BlogPost
	if err := json.Unmarshal([]byte(`{"title":"t","image":"/uploads/a.jpg"}`), &b); err != nil {
		t.Fatal(err)
	}
	b.Normalize(fixedNow)
	if b.Thumbnail != "/uploads/a.jpg" || b.LegacyImage != "" {
		t.Errorf("Thumbnail = %q, LegacyImage = %q", b.Thumbnail, b.LegacyImage)
	}
}
