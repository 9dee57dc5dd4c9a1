package database

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/config"
	"github.com/myad-dev/site/internal/models"
)

type (
	Posts   = Collection[models.Post, *models.Post]
	Blog    = Collection[models.BlogPost, *models.BlogPost]
	Videos  = Collection[models.Video, *models.Video]
	Reviews = Collection[models.Review, *models.Review]
)

// Store groups the site's collections under one data directory.
type Store struct {
	Dir     string
	Posts   *Posts
	Blog    *Blog
	Videos  *Videos
	Reviews *Reviews
}

// Connect ensures the data directory exists and starts one owner goroutine
// per collection.
func Connect(cfg *config.AppConfig, logger *zap.Logger, opts ...Option) (*Store, error) {
	dir := cfg.DataPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return Open(dir, append([]Option{WithLogger(logger)}, opts...)...), nil
}

// Open starts the collections under dir without touching the filesystem.
func Open(dir string, opts ...Option) *Store {
	return &Store{
		Dir:     dir,
		Posts:   OpenCollection[models.Post](dir, opts...),
		Blog:    OpenCollection[models.BlogPost](dir, opts...),
		Videos:  OpenCollection[models.Video](dir, opts...),
		Reviews: OpenCollection[models.Review](dir, opts...),
	}
}

// Close stops every collection.
func (s *Store) Close() {
	s.Posts.Close()
	s.Blog.Close()
	s.Videos.Close()
	s.Reviews.Close()
}
