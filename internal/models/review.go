package models

import (
	"strings"
	"time"
)

const (
	ReviewCategoryGoogle   = "google"
	ReviewCategoryFacebook = "facebook"
)

// Review is a customer review, grouped on the site by the ad platform it concerns.
type Review struct {
	Content
	Category string `json:"category"`
	Rating   int    `json:"rating,omitempty"`
}

func (*Review) Kind() Kind { return KindReview }

func (r *Review) Normalize(now time.Time) {
	r.normalize(now, contentDefaults{Author: "ทีมรีวิว", Body: "<p>รีวิวจากลูกค้า…</p>"})
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.Rating = min(max(r.Rating, 0), 5)
}
