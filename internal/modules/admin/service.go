// Package admin runs the admin form workflows server-side: validate the form,
// apply the transcript generator, write through the store and hand back the
// refreshed list the form redraws from.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/database"
	"github.com/myad-dev/site/internal/models"
	"github.com/myad-dev/site/internal/modules/content"
	"github.com/myad-dev/site/internal/modules/content/blog"
	"github.com/myad-dev/site/internal/modules/content/post"
	"github.com/myad-dev/site/internal/modules/content/review"
	"github.com/myad-dev/site/internal/modules/content/video"
	"github.com/myad-dev/site/internal/modules/processing/transcript"
	"github.com/myad-dev/site/internal/pkg/textutil"
)

// ValidationError rejects a form before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Result is the outcome of a workflow: the written item and the full
// collection as it stands afterwards.
type Result[P models.Publishable] struct {
	Item  P   `json:"item,omitempty"`
	Items []P `json:"items"`
}

// VideoForm is the video editor state.
type VideoForm struct {
	Video          models.Video `json:"video"`
	RawTranscript  string       `json:"rawTranscript"`
	AutoTranscript bool         `json:"autoTranscript"`
	AutoChapters   bool         `json:"autoChapters"`
}

// Preview is what the editor shows next to the raw transcript box.
type Preview struct {
	TranscriptHTML string           `json:"transcriptHtml"`
	Chapters       []models.Chapter `json:"chapters"`
}

// Services are the collections the workflows write to.
type Services struct {
	Posts   *post.Service
	Blog    *blog.Service
	Videos  *video.Service
	Reviews *review.Service
}

type Service struct {
	svc           Services
	publicBaseURL string
	logger        *zap.Logger
}

func NewService(svc Services, publicBaseURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{svc: svc, publicBaseURL: publicBaseURL, logger: logger.Named("admin")}
}

// PreviewTranscript renders raw transcript text the way SaveVideo would.
func (s *Service) PreviewTranscript(raw string) Preview {
	return Preview{
		TranscriptHTML: transcript.BuildHTML(raw),
		Chapters:       transcript.BuildChapters(raw),
	}
}

// SaveVideo applies the enabled generators and upserts the video. Generated
// output replaces the hand-edited transcriptHtml and chapters only when the
// matching toggle is on and there is raw text to generate from.
func (s *Service) SaveVideo(ctx context.Context, form VideoForm) (Result[*models.Video], error) {
	v := form.Video
	if raw := strings.TrimSpace(form.RawTranscript); raw != "" {
		if form.AutoTranscript {
			v.TranscriptHTML = transcript.BuildHTML(raw)
		}
		if form.AutoChapters {
			v.Chapters = transcript.BuildChapters(raw)
		}
	}
	return upsert(ctx, s, s.svc.Videos, &v)
}

func (s *Service) SavePost(ctx context.Context, p *models.Post) (Result[*models.Post], error) {
	return upsert(ctx, s, s.svc.Posts, p)
}

func (s *Service) SaveReview(ctx context.Context, r *models.Review) (Result[*models.Review], error) {
	return upsert(ctx, s, s.svc.Reviews, r)
}

// EditBlog rewrites the entry at originalSlug with the form in a single
// store call. The slug may change. An invalid form leaves the entry as it was.
func (s *Service) EditBlog(ctx context.Context, originalSlug string, b *models.BlogPost) (Result[*models.BlogPost], error) {
	if err := s.prepare(b); err != nil {
		return Result[*models.BlogPost]{}, err
	}
	item, err := s.svc.Blog.Replace(ctx, originalSlug, b)
	if err != nil {
		return Result[*models.BlogPost]{}, fmt.Errorf("edit blog %s: %w", originalSlug, err)
	}
	return refreshed(ctx, s.svc.Blog, item)
}

// CreateBlog validates and stores a new blog entry.
func (s *Service) CreateBlog(ctx context.Context, b *models.BlogPost) (Result[*models.BlogPost], error) {
	if err := s.prepare(b); err != nil {
		return Result[*models.BlogPost]{}, err
	}
	item, _, err := s.svc.Blog.Create(ctx, b, database.DisambiguateOnCollision)
	if err != nil {
		return Result[*models.BlogPost]{}, fmt.Errorf("create blog: %w", err)
	}
	return refreshed(ctx, s.svc.Blog, item)
}

func (s *Service) RenameBlog(ctx context.Context, from, to string) (Result[*models.BlogPost], error) {
	if strings.TrimSpace(to) == "" {
		return Result[*models.BlogPost]{}, &ValidationError{Field: "slug", Message: "กรุณาระบุ slug ใหม่"}
	}
	item, err := s.svc.Blog.Rename(ctx, from, to)
	if err != nil {
		return Result[*models.BlogPost]{}, fmt.Errorf("rename blog %s: %w", from, err)
	}
	return refreshed(ctx, s.svc.Blog, item)
}

// Delete removes slug from kind and returns the remaining items of that kind.
func (s *Service) Delete(ctx context.Context, kind models.Kind, slug string) (any, error) {
	switch kind {
	case models.KindPost:
		return remove(ctx, s.svc.Posts, slug)
	case models.KindBlog:
		return remove(ctx, s.svc.Blog, slug)
	case models.KindVideo:
		return remove(ctx, s.svc.Videos, slug)
	case models.KindReview:
		return remove(ctx, s.svc.Reviews, slug)
	}
	return nil, &ValidationError{Field: "kind", Message: "unknown collection " + string(kind)}
}

// prepare derives the slug, stores thumbnails site-relative and checks the
// required fields.
func (s *Service) prepare(item models.Publishable) error {
	b := item.Base()
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return &ValidationError{Field: "title", Message: "กรุณากรอกชื่อเรื่อง"}
	}
	if slug := strings.TrimSpace(b.Slug); slug != "" {
		b.Slug = textutil.Slugify(slug)
	} else {
		b.Slug = textutil.Slugify(b.Title)
	}
	if b.Slug == "" {
		return &ValidationError{Field: "slug", Message: "กรุณากรอก slug"}
	}
	b.Thumbnail = textutil.NormalizeThumbnail(s.publicBaseURL, b.Thumbnail)
	return nil
}

// upsert updates the item stored under the form's slug with the whole form,
// or creates it when the slug is new.
func upsert[T any, P interface {
	*T
	models.Publishable
}](ctx context.Context, s *Service, svc *content.Service[T, P], item P) (Result[P], error) {
	if err := s.prepare(item); err != nil {
		return Result[P]{}, err
	}
	slug := item.Base().Slug

	exists, err := svc.Exists(ctx, slug)
	if err != nil {
		return Result[P]{}, err
	}

	var stored P
	if exists {
		patch, err := formPatch(item)
		if err != nil {
			return Result[P]{}, err
		}
		stored, err = svc.Update(ctx, slug, patch)
		if err != nil {
			return Result[P]{}, fmt.Errorf("save %s %s: %w", svc.Kind(), slug, err)
		}
	} else {
		stored, _, err = svc.Create(ctx, item, database.DisambiguateOnCollision)
		if err != nil {
			return Result[P]{}, fmt.Errorf("save %s %s: %w", svc.Kind(), slug, err)
		}
	}
	s.logger.Info("form saved", zap.String("kind", string(svc.Kind())), zap.String("slug", stored.Base().Slug), zap.Bool("update", exists))
	return refreshed[T, P](ctx, svc, stored)
}

func remove[T any, P interface {
	*T
	models.Publishable
}](ctx context.Context, svc *content.Service[T, P], slug string) ([]P, error) {
	if err := svc.Delete(ctx, slug); err != nil {
		return nil, fmt.Errorf("delete %s %s: %w", svc.Kind(), slug, err)
	}
	return svc.List(ctx, content.Query{Admin: true})
}

func refreshed[T any, P interface {
	*T
	models.Publishable
}](ctx context.Context, svc *content.Service[T, P], item P) (Result[P], error) {
	items, err := svc.List(ctx, content.Query{Admin: true})
	if err != nil {
		return Result[P]{}, err
	}
	return Result[P]{Item: item, Items: items}, nil
}

// formPatch turns the whole form into an update patch. Fields the store owns
// are left out.
func formPatch(item any) (database.Patch, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var patch database.Patch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, err
	}
	for _, k := range []string{"id", "createdAt", "updatedAt"} {
		delete(patch, k)
	}
	return patch, nil
}
