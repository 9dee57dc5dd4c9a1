package markdown

import (
	"reflect"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"heading and emphasis", "## Title\n\nSome **bold** text", []string{"<h2", "Title</h2>", "<strong>bold</strong>"}},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"plain image", "![cover](/uploads/a.png)", []string{`<img src="/uploads/a.png" alt="cover" class="img-fluid" loading="lazy">`}},
		{"captioned image", "![!Campaign results](/uploads/b.png)", []string{`<figure class="figure">`, `<figcaption class="figure-caption text-center">Campaign results</figcaption>`}},
		{"youtube embed", "Intro\n\n::youtube[dQw4w9WgXcQ]\n", []string{`src="https://www.youtube.com/embed/dQw4w9WgXcQ"`}},
		{"raw html kept", `<div class="alert">hi</div>`, []string{`<div class="alert">hi</div>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.in)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render() = %q, want substring %q", got, w)
				}
			}
		})
	}

	if got := Render("   "); got != "" {
		t.Errorf("Render(blank) = %q, want empty", got)
	}
	if got := Render("![!x](/a.png)"); strings.Contains(got, "<p><figure") {
		t.Errorf("figure left inside paragraph: %q", got)
	}
}

func TestRenderCaptionedImageUnwrapped(t *testing.T) {
	got := strings.TrimSpace(Render("![!Campaign results](/uploads/b.png)"))
	if !strings.HasPrefix(got, `<figure class="figure">`) || !strings.HasSuffix(got, "</figure>") {
		t.Errorf("Render() = %q, want a bare figure", got)
	}
}

func TestParseDocument_ByteOrderMark(t *testing.T) {
	doc, err := ParseDocument("\uFEFF---\r\ntitle: BOM saved\r\n---\r\nBody")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Title != "BOM saved" || doc.Body != "Body" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestParseDocument(t *testing.T) {
	text := "---\ntitle: Google Ads 101\nslug: google-ads-101\ndate: 2024-07-01\ntags: [ads, Google]\nkeywords: \"ppc, sem\"\nstatus: draft\n---\n\nBody **text**\n"
	doc, err := ParseDocument(text)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if doc.Meta.Title != "Google Ads 101" || doc.Meta.Slug != "google-ads-101" || doc.Meta.Status != "draft" {
		t.Errorf("Meta = %+v", doc.Meta)
	}
	if got := doc.Meta.DateString(); got != "2024-07-01" {
		t.Errorf("DateString() = %q", got)
	}
	if got := doc.Meta.TagList(); !reflect.DeepEqual(got, []string{"ads", "Google"}) {
		t.Errorf("TagList() = %v", got)
	}
	if got := doc.Meta.KeywordList(); !reflect.DeepEqual(got, []string{"ppc", "sem"}) {
		t.Errorf("KeywordList() = %v", got)
	}
	if doc.Body != "Body **text**" {
		t.Errorf("Body = %q", doc.Body)
	}
}

func TestParseDocument_HeadingTitle(t *testing.T) {
	doc, err := ParseDocument("# From Heading\n\nParagraph")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Title != "From Heading" || doc.Body != "Paragraph" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestParseDocument_Errors(t *testing.T) {
	for _, in := range []string{
		"---\ntitle: never closed\n",
		"---\ntitle: [unclosed\n---\nbody",
	} {
		if _, err := ParseDocument(in); err == nil {
			t.Errorf("ParseDocument(%q) error = nil, want error", in)
		}
	}
}

func TestBuildDocumentRoundTrip(t *testing.T) {
	meta := FrontMatter{Title: "Round Trip", Slug: "round-trip", Date: "2024-01-02", Tags: []string{"a", "b"}}
	text, err := BuildDocument(meta, "<p>html body</p>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "---\n") {
		t.Fatalf("BuildDocument() = %q", text)
	}
	doc, err := ParseDocument(text)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Title != "Round Trip" || doc.Meta.DateString() != "2024-01-02" || doc.Body != "<p>html body</p>" {
		t.Errorf("round trip = %+v", doc)
	}
	if got := doc.Meta.TagList(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("TagList() = %v", got)
	}
}
