package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Clamd     ClamdConfig     `mapstructure:"clamd"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Recompute RecomputeConfig `mapstructure:"recompute"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port                  int      `mapstructure:"port"`
	LoginRateLimitPerHour int      `mapstructure:"login_rate_limit_per_hour"`
	WsAllowedOrigins      []string `mapstructure:"ws_allowed_origins"`
	CookieDomain          string   `mapstructure:"cookie_domain"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// GeminiConfig 包含外部生成式模型配置；APIKey 为空时整个系统只走启发式回退。
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled 返回是否配置了模型调用。
func (g GeminiConfig) Enabled() bool {
	return g.APIKey != ""
}

// AuthConfig contains JWT signing key locations and token lifetimes.
type AuthConfig struct {
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// ClamdConfig 包含病毒扫描服务地址；Addr 为空时跳过扫描。
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// UploadConfig 限制简历上传。
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// RecomputeConfig 控制匹配分重算批任务。
type RecomputeConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.login_rate_limit_per_hour", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "talenttrack")
	v.SetDefault("database.user", "talenttrack")
	v.SetDefault("database.password", "talenttrack")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumes")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", time.Minute)
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("upload.max_bytes", 10*1024*1024)
	v.SetDefault("recompute.page_size", 100)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                      "API_PORT",
		"api.login_rate_limit_per_hour": "API_LOGIN_RATE_LIMIT_PER_HOUR",
		"api.ws_allowed_origins":        "API_WS_ALLOWED_ORIGINS",
		"api.cookie_domain":             "API_COOKIE_DOMAIN",
		"database.host":                 "DATABASE_HOST",
		"database.port":                 "DATABASE_PORT",
		"database.name":                 "POSTGRES_DB",
		"database.user":                 "POSTGRES_USER",
		"database.password":             "POSTGRES_PASSWORD",
		"database.sslmode":              "DATABASE_SSLMODE",
		"redis.host":                    "REDIS_HOST",
		"redis.port":                    "REDIS_PORT",
		"minio.endpoint":                "MINIO_ENDPOINT",
		"minio.public_endpoint":         "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":           "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":       "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                 "MINIO_USE_SSL",
		"minio.bucket":                  "MINIO_BUCKET",
		"minio.region":                  "MINIO_REGION",
		"minio.bucket_lookup":           "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":      "MINIO_AUTO_CREATE_BUCKET",
		"gemini.api_key":                "GEMINI_API_KEY",
		"gemini.model":                  "GEMINI_MODEL",
		"gemini.timeout":                "GEMINI_TIMEOUT",
		"auth.private_key_path":         "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":          "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":         "AUTH_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":        "AUTH_REFRESH_TOKEN_TTL",
		"clamd.addr":                    "CLAMD_ADDR",
		"upload.max_bytes":              "UPLOAD_MAX_BYTES",
		"recompute.page_size":           "RECOMPUTE_PAGE_SIZE",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Auth.PrivateKeyPath == "" {
		return errors.New("auth private key path is required")
	}
	if cfg.Auth.PublicKeyPath == "" {
		return errors.New("auth public key path is required")
	}
	if cfg.Upload.MaxBytes <= 0 {
		return errors.New("upload max bytes must be positive")
	}
	if cfg.Recompute.PageSize <= 0 {
		return errors.New("recompute page size must be positive")
	}
	return nil
}
