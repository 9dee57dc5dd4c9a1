package models

import (
	"strings"
	"time"
)

// Video is an entry of the video library.
type Video struct {
	Content
	YouTube        string    `json:"youtube"`
	Duration       string    `json:"duration"` // ISO-8601, e.g. PT5M30S
	TranscriptHTML string    `json:"transcriptHtml"`
	Chapters       []Chapter `json:"chapters"`
	ContentURL     string    `json:"contentUrl"`
	UploadDate     string    `json:"uploadDate"`
	Views          int       `json:"views,omitempty"`
	Rank           int       `json:"rank,omitempty"` // 0 means unranked
}

// Chapter is a named offset into a video.
type Chapter struct {
	T     string `json:"t"`
	Label string `json:"label"`
}

func (*Video) Kind() Kind { return KindVideo }

func (v *Video) Normalize(now time.Time) {
	v.normalize(now, contentDefaults{Author: "ทีมวิดีโอ", Body: "<p>สรุป/ไฮไลท์วิดีโอ…</p>"})
	v.YouTube = strings.TrimSpace(v.YouTube)
	v.Duration = strings.TrimSpace(v.Duration)
	if v.Duration == "" {
		v.Duration = "PT0M"
	}
	v.TranscriptHTML = strings.TrimSpace(v.TranscriptHTML)
	v.ContentURL = strings.TrimSpace(v.ContentURL)
	v.UploadDate = strings.TrimSpace(v.UploadDate)
	if v.Views < 0 {
		v.Views = 0
	}
	if v.Rank < 0 {
		v.Rank = 0
	}
	v.Chapters = CleanChapters(v.Chapters)
}

// CleanChapters trims entries, drops those without a timecode or label and
// keeps only the first chapter for each timecode string.
func CleanChapters(in []Chapter) []Chapter {
	seen := make(map[string]struct{}, len(in))
	out := make([]Chapter, 0, len(in))
	for _, c := range in {
		c.T = strings.TrimSpace(c.T)
		c.Label = strings.TrimSpace(c.Label)
		if c.T == "" || c.Label == "" {
			continue
		}
		if _, ok := seen[c.T]; ok {
			continue
		}
		seen[c.T] = struct{}{}
		out = append(out, c)
	}
	return out
}
