package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Minio      MinioConfig      `yaml:"minio"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	JWT        JWTConfig        `yaml:"jwt"`
	AuthCookie AuthCookieConfig `yaml:"auth_cookie"`
	Upload     UploadConfig     `yaml:"upload"`
	Thumbnail  ThumbnailConfig  `yaml:"thumbnail"`
	Pagination PaginationConfig `yaml:"pagination"`
	Categories CategoryConfig   `yaml:"categories"`
	Seed       SeedConfig       `yaml:"seed"`
	CORS       CORSConfig       `yaml:"cors"`
}

type ServerConfig struct {
	Port            int    `yaml:"port"`
	Host            string `yaml:"host"`
	Mode            string `yaml:"mode"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the record store. Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Path         string `yaml:"path"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// StorageConfig selects the blob store. Backend is "local" or "minio".
type StorageConfig struct {
	Backend  string `yaml:"backend"`
	BasePath string `yaml:"base_path"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type RedisConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SessionConfig selects where server-side sessions live. Store is "database" or "redis".
type SessionConfig struct {
	Store       string `yaml:"store"`
	TTLHours    int    `yaml:"ttl_hours"`
	CleanupSpec string `yaml:"cleanup_spec"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type AuthCookieConfig struct {
	Name     string `yaml:"name"`
	HttpOnly bool   `yaml:"http_only"`
	SameSite string `yaml:"same_site"`
	Secure   bool   `yaml:"secure"`
	Path     string `yaml:"path"`
}

type UploadConfig struct {
	MaxFiles          int      `yaml:"max_files"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	MaxTotalSize      int64    `yaml:"max_total_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// ThumbnailConfig.MaxPixels caps width*height of images that get a thumbnail; a negative value disables the cap.
type ThumbnailConfig struct {
	Disabled  bool  `yaml:"disabled"`
	Width     int   `yaml:"width"`
	Height    int   `yaml:"height"`
	Quality   int   `yaml:"quality"`
	MaxPixels int64 `yaml:"max_pixels"`
}

type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type CategoryConfig struct {
	Defaults []string `yaml:"defaults"`
	Fallback string   `yaml:"fallback"`
}

type SeedConfig struct {
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	AdminName     string `yaml:"admin_name"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

const envPrefix = "JARYO_"

// LoadConfig reads path (a missing file is allowed), then .env and JARYO_* overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.Mode, "SERVER_MODE")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Path, "DB_PATH")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.Username, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Database, "DB_NAME")

	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.BasePath, "STORAGE_PATH")
	setString(&cfg.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Minio.Bucket, "MINIO_BUCKET")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Session.Store, "SESSION_STORE")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.Seed.AdminEmail, "ADMIN_EMAIL")
	setString(&cfg.Seed.AdminPassword, "ADMIN_PASSWORD")
	setString(&cfg.Seed.AdminName, "ADMIN_NAME")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3005
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/jaryo.db"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "uploads"
	}
	if cfg.Minio.Bucket == "" {
		cfg.Minio.Bucket = "jaryo"
	}

	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "jaryo"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "database"
	}
	if cfg.Session.TTLHours <= 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Session.CleanupSpec == "" {
		cfg.Session.CleanupSpec = "@hourly"
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "jaryo"
	}
	if cfg.AuthCookie.Name == "" {
		cfg.AuthCookie.Name = "jaryo_session"
		cfg.AuthCookie.HttpOnly = true
	}
	if cfg.AuthCookie.Path == "" {
		cfg.AuthCookie.Path = "/"
	}
	if cfg.AuthCookie.SameSite == "" {
		cfg.AuthCookie.SameSite = "lax"
	}

	if cfg.Upload.MaxFiles <= 0 {
		cfg.Upload.MaxFiles = 20
	}
	if cfg.Upload.MaxFileSize <= 0 {
		cfg.Upload.MaxFileSize = 2 << 30
	}
	if cfg.Upload.MaxTotalSize <= 0 {
		cfg.Upload.MaxTotalSize = 2 << 30
	}

	if cfg.Thumbnail.Width <= 0 {
		cfg.Thumbnail.Width = 320
	}
	if cfg.Thumbnail.Height <= 0 {
		cfg.Thumbnail.Height = 320
	}
	if cfg.Thumbnail.Quality <= 0 {
		cfg.Thumbnail.Quality = 80
	}
	if cfg.Thumbnail.MaxPixels == 0 {
		cfg.Thumbnail.MaxPixels = 40_000_000
	}

	if cfg.Pagination.DefaultLimit <= 0 {
		cfg.Pagination.DefaultLimit = 100
	}
	if cfg.Pagination.MaxLimit <= 0 {
		cfg.Pagination.MaxLimit = 1000
	}

	if len(cfg.Categories.Defaults) == 0 {
		cfg.Categories.Defaults = []string{"문서", "이미지", "동영상", "프레젠테이션", "기타"}
	}
	if cfg.Categories.Fallback == "" {
		cfg.Categories.Fallback = "기타"
	}
	if cfg.Seed.AdminName == "" {
		cfg.Seed.AdminName = "관리자"
	}
}
