package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort          = 3000
	defaultEnv           = "development"
	defaultSiteURL       = "http://localhost:3000"
	defaultDataDir       = "data"
	defaultStaticDir     = "public"
	defaultAdminUser     = "admin"
	defaultAdminPass     = "1122"
	defaultAdminPassword = "admin123"
	defaultRedisPort     = 6379
	defaultUploadDriver  = UploadDriverLocal
	defaultUploadMaxMB   = 10
	defaultLoginLimit    = 10
)

const (
	UploadDriverLocal = "local"
	UploadDriverS3    = "s3"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"` // "development" | "production"
	SiteURL        string             `yaml:"site_url"`
	PublicBaseURL  string             `yaml:"public_base_url"` // prefix stripped from thumbnails before storing
	DataDir        string             `yaml:"data_dir"`
	Paths          RuntimePathsConfig `yaml:"paths"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	Admin          AdminConfig        `yaml:"admin"`
	Redis          RedisRuntimeConfig `yaml:"redis"`
	Upload         UploadConfig       `yaml:"upload"`
	S3             S3Options          `yaml:"s3"`
	Course         CourseConfig       `yaml:"course"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

// AdminConfig configures the shared-secret admin gate.
type AdminConfig struct {
	User         string `yaml:"user"`
	Pass         string `yaml:"pass"`
	Password     string `yaml:"password"`      // login form password
	PasswordHash string `yaml:"password_hash"` // bcrypt; wins over Password when set
	AuthSecret   string `yaml:"auth_secret"`   // bearer token; empty disables bearer auth
	LoginLimit   int    `yaml:"login_limit"`   // attempts per minute per IP (redis only)
}

// CourseConfig holds the shared enrollment login of the Google Ads course.
// An empty Username means "User" followed by the password.
type CourseConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type UploadConfig struct {
	Driver    string `yaml:"driver"` // "local" | "s3"
	MaxSizeMB int    `yaml:"max_size_mb"`
}

type S3Options struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	Prefix          string `yaml:"prefix"`
}

type rawAppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"`
	NodeEnv        string         `yaml:"node_env"`
	SiteURL        string         `yaml:"site_url"`
	PublicSiteURL  string         `yaml:"next_public_site_url"`
	PublicBaseURL  string         `yaml:"public_base_url"`
	DataDir        string         `yaml:"data_dir"`
	PostsDataDir   string         `yaml:"posts_data_dir"`
	Paths          rawPathsConfig `yaml:"paths"`
	LogDir         string         `yaml:"log_dir"`
	StaticDir      string         `yaml:"static_dir"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	CORSOrigins    []string       `yaml:"cors_allowed_origins"`
	JWTSecret      string         `yaml:"jwt_secret"`
	Admin          rawAdminConfig `yaml:"admin"`
	AdminUser      string         `yaml:"admin_user"`
	AdminPass      string         `yaml:"admin_pass"`
	AdminPassword  string         `yaml:"admin_password"`
	AuthSecret     string         `yaml:"auth_secret"`
	Redis          rawRedisConfig `yaml:"redis"`
	RedisURL       string         `yaml:"redis_url"`
	Upload         rawUpload      `yaml:"upload"`
	S3             S3Options      `yaml:"s3"`
	Course         CourseConfig   `yaml:"course"`
}

type rawPathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

type rawAdminConfig struct {
	User         string `yaml:"user"`
	Username     string `yaml:"username"`
	Pass         string `yaml:"pass"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	AuthSecret   string `yaml:"auth_secret"`
	LoginLimit   *int   `yaml:"login_limit"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawUpload struct {
	Driver    string `yaml:"driver"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// Load reads the YAML config at configPath. A missing file at the default
// path is not an error: defaults plus environment overrides are used.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		raw, err := decodeRaw(content)
		if err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		applyRawAppConfig(&cfg, raw)
	case errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnv(&cfg, os.Getenv)
	normalizeAppConfig(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// Parse decodes YAML content into a normalized config without consulting the environment.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw, err := decodeRaw(content)
	if err != nil {
		return nil, err
	}
	applyRawAppConfig(&cfg, raw)
	normalizeAppConfig(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeRaw(content []byte) (rawAppConfig, error) {
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) == 0 {
		return raw, nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return raw, err
	}
	return raw, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:    defaultPort,
		Env:     defaultEnv,
		SiteURL: defaultSiteURL,
		DataDir: defaultDataDir,
		Paths: RuntimePathsConfig{
			Static: defaultStaticDir,
		},
		Admin: AdminConfig{
			User:       defaultAdminUser,
			Pass:       defaultAdminPass,
			Password:   defaultAdminPassword,
			LoginLimit: defaultLoginLimit,
		},
		Upload: UploadConfig{
			Driver:    defaultUploadDriver,
			MaxSizeMB: defaultUploadMaxMB,
		},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.SiteURL); v != "" {
		cfg.SiteURL = v
	}
	if v := strings.TrimSpace(raw.PublicSiteURL); v != "" {
		cfg.SiteURL = v
	}
	if v := strings.TrimSpace(raw.PublicBaseURL); v != "" {
		cfg.PublicBaseURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(raw.PostsDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Static); v != "" {
		cfg.Paths.Static = v
	}
	if v := strings.TrimSpace(raw.StaticDir); v != "" {
		cfg.Paths.Static = v
	}

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSOrigins)
	}

	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}

	cfg.Admin = applyRawAdminConfig(cfg.Admin, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	if v := strings.TrimSpace(raw.Upload.Driver); v != "" {
		cfg.Upload.Driver = v
	}
	if raw.Upload.MaxSizeMB != 0 {
		cfg.Upload.MaxSizeMB = raw.Upload.MaxSizeMB
	}
	cfg.S3 = raw.S3
	cfg.Course = CourseConfig{
		Username: strings.TrimSpace(raw.Course.Username),
		Password: strings.TrimSpace(raw.Course.Password),
	}
}

func applyRawAdminConfig(current AdminConfig, raw rawAppConfig) AdminConfig {
	out := current
	if v := strings.TrimSpace(raw.Admin.User); v != "" {
		out.User = v
	}
	if v := strings.TrimSpace(raw.Admin.Username); v != "" {
		out.User = v
	}
	if v := strings.TrimSpace(raw.AdminUser); v != "" {
		out.User = v
	}
	if v := strings.TrimSpace(raw.Admin.Pass); v != "" {
		out.Pass = v
	}
	if v := strings.TrimSpace(raw.AdminPass); v != "" {
		out.Pass = v
	}
	if v := strings.TrimSpace(raw.Admin.Password); v != "" {
		out.Password = v
	}
	if v := strings.TrimSpace(raw.AdminPassword); v != "" {
		out.Password = v
	}
	if v := strings.TrimSpace(raw.Admin.PasswordHash); v != "" {
		out.PasswordHash = v
	}
	if v := strings.TrimSpace(raw.Admin.AuthSecret); v != "" {
		out.AuthSecret = v
	}
	if v := strings.TrimSpace(raw.AuthSecret); v != "" {
		out.AuthSecret = v
	}
	if raw.Admin.LoginLimit != nil {
		out.LoginLimit = *raw.Admin.LoginLimit
	}
	return out
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	out := current
	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		out.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		out.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		out.Host = v
	}
	if raw.Redis.Port != 0 {
		out.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		out.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		out.Password = v
	}
	if raw.Redis.DB != nil {
		out.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		out.TLS = *raw.Redis.TLS
	}
	return out
}

// applyEnv lets deployment environments override the file, mirroring the
// variables the site has always been configured with.
func applyEnv(cfg *AppConfig, getenv func(string) string) {
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := strings.TrimSpace(getenv("SITE_URL")); v != "" {
		cfg.SiteURL = v
	}
	if v := strings.TrimSpace(getenv("SITE_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(getenv("ADMIN_USER")); v != "" {
		cfg.Admin.User = v
	}
	if v := strings.TrimSpace(getenv("ADMIN_PASS")); v != "" {
		cfg.Admin.Pass = v
	}
	if v := strings.TrimSpace(getenv("ADMIN_PASSWORD")); v != "" {
		cfg.Admin.Password = v
	}
	if v := strings.TrimSpace(getenv("AUTH_SECRET")); v != "" {
		cfg.Admin.AuthSecret = v
	}
	if v := strings.TrimSpace(getenv("GOOGLE_COURSE_USERNAME")); v != "" {
		cfg.Course.Username = v
	}
	if v := strings.TrimSpace(getenv("GOOGLE_COURSE_PASSWORD")); v != "" {
		cfg.Course.Password = v
	}
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Redis.Enabled() && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.Upload.Driver {
	case UploadDriverLocal:
	case UploadDriverS3:
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return errors.New("upload.driver s3 requires s3.bucket and s3.region")
		}
	default:
		return fmt.Errorf("unknown upload.driver %q", c.Upload.Driver)
	}
	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("invalid upload.max_size_mb %d", c.Upload.MaxSizeMB)
	}
	return nil
}

// IsDev reports whether the server runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env == "development" }

// Addr returns the listen address.
func (c *AppConfig) Addr() string { return ":" + strconv.Itoa(c.Port) }
