package models

import (
	"strings"
	"time"
)

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

// Post is an article in the posts collection.
type Post struct {
	Content
}

func (*Post) Kind() Kind { return KindPost }

func (p *Post) Normalize(now time.Time) {
	p.normalize(now, contentDefaults{Author: "ทีมบทความ", Body: "<p>เนื้อหาบทความ…</p>"})
}

// BlogPost is an entry of the blog collection.
type BlogPost struct {
	Content
	ReadingMinutes int    `json:"readingMinutes"`
	Status         string `json:"status"`
	InLanguage     string `json:"inLanguage"`
	CoverURL       string `json:"coverUrl,omitempty"`
	ImageAlt       string `json:"imageAlt,omitempty"`
	LegacyImage    string `json:"image,omitempty"` // pre-thumbnail field, folded into Thumbnail
}

func (*BlogPost) Kind() Kind { return KindBlog }

func (b *BlogPost) Normalize(now time.Time) {
	b.normalize(now, contentDefaults{Author: "ทีมคอนเทนต์", Body: "<h2>หัวข้อย่อย</h2><p>เนื้อหาบทความ…</p>"})
	if b.ReadingMinutes <= 0 {
		b.ReadingMinutes = 5
	}
	b.Status = strings.ToLower(strings.TrimSpace(b.Status))
	if b.Status != BlogStatusDraft {
		b.Status = BlogStatusPublished
	}
	b.InLanguage = strings.TrimSpace(b.InLanguage)
	if b.InLanguage == "" {
		b.InLanguage = "th-TH"
	}
	if img := strings.TrimSpace(b.LegacyImage); img != "" && b.Thumbnail == "" {
		b.Thumbnail = img
	}
	b.LegacyImage = ""
	b.CoverURL = strings.TrimSpace(b.CoverURL)
	b.ImageAlt = strings.TrimSpace(b.ImageAlt)
}

// IsDraft reports whether the entry is hidden from the public site.
func (b *BlogPost) IsDraft() bool { return b.Status == BlogStatusDraft }
