package file

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appcfg "github.com/myad-dev/site/internal/config"
)

// Storage persists an uploaded object and returns the URL it is served from.
type Storage interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) (string, error)
}

// NewStorage picks the driver named by cfg.Upload.Driver.
func NewStorage(cfg *appcfg.AppConfig) (Storage, error) {
	switch cfg.Upload.Driver {
	case appcfg.UploadDriverS3:
		return NewS3Storage(cfg.S3)
	default:
		return NewLocalStorage(cfg.StaticPath()), nil
	}
}

// LocalStorage writes under the static directory, which the server exposes
// at the site root. URLs are site-relative.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage { return &LocalStorage{root: root} }

func (s *LocalStorage) Put(_ context.Context, key string, payload []byte, _ string) (string, error) {
	key = normalizeObjectKey(key)
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	return "/" + key, nil
}

// S3Storage uploads with PutObject to any S3 compatible endpoint.
type S3Storage struct {
	client       *s3.Client
	bucket       string
	prefix       string
	endpoint     *url.URL
	customDomain string
	pathStyle    bool
}

func NewS3Storage(opts appcfg.S3Options) (*S3Storage, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	region := strings.TrimSpace(opts.Region)
	accessKey := strings.TrimSpace(opts.AccessKeyID)
	secretKey := strings.TrimSpace(opts.SecretAccessKey)
	if bucket == "" || region == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket/region/access_key_id/secret_access_key are required")
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	parsed, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid s3 endpoint: %s", endpoint)
	}

	// Custom endpoints (R2, MinIO) generally only speak path style.
	pathStyle := opts.PathStyleAccess || strings.TrimSpace(opts.Endpoint) != ""

	client := s3.New(s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		BaseEndpoint: aws.String(parsed.String()),
		UsePathStyle: pathStyle,
	})
	return &S3Storage{
		client:       client,
		bucket:       bucket,
		prefix:       normalizeObjectKey(opts.Prefix),
		endpoint:     parsed,
		customDomain: strings.TrimRight(strings.TrimSpace(opts.CustomDomain), "/"),
		pathStyle:    pathStyle,
	}, nil
}

func (s *S3Storage) Put(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	key = s.objectKey(key)
	if key == "" {
		return "", fmt.Errorf("invalid s3 object key")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

func (s *S3Storage) objectKey(key string) string {
	key = normalizeObjectKey(key)
	if key == "" {
		return ""
	}
	if s.prefix != "" {
		return s.prefix + "/" + key
	}
	return key
}

// PublicURL is where a stored key can be fetched from.
func (s *S3Storage) PublicURL(key string) string {
	encoded := encodeObjectKey(key)
	if s.customDomain != "" {
		return s.customDomain + "/" + encoded
	}
	base := strings.TrimSuffix(s.endpoint.Path, "/")
	if s.pathStyle {
		return s.endpoint.Scheme + "://" + s.endpoint.Host + joinURLPath(base, s.bucket, encoded)
	}
	host := s.endpoint.Host
	if !strings.HasPrefix(strings.ToLower(host), strings.ToLower(s.bucket)+".") {
		host = s.bucket + "." + host
	}
	return s.endpoint.Scheme + "://" + host + joinURLPath(base, encoded)
}

func normalizeObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return strings.Trim(key, "/")
}

func encodeObjectKey(key string) string {
	parts := strings.Split(normalizeObjectKey(key), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func joinURLPath(parts ...string) string {
	var segments []string
	for _, p := range parts {
		for _, seg := range strings.Split(p, "/") {
			if seg = strings.TrimSpace(seg); seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	return "/" + strings.Join(segments, "/")
}
