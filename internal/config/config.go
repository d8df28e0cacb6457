package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort               = "8000"
	defaultStoreDriver        = "sql"
	defaultDatabaseURL        = "vidtube.db"
	defaultMongoURI           = "mongodb://localhost:27017"
	defaultDBName             = "vidtube"
	defaultAccessTokenSecret  = "change-me-access-secret"
	defaultAccessTokenExpiry  = "15m"
	defaultRefreshTokenSecret = "change-me-refresh-secret"
	defaultRefreshTokenExpiry = "240h"
	defaultCookieSecure       = "true"
	defaultCookieSameSite     = "Lax"
	defaultCookiePath         = "/"
	defaultMediaDriver        = "disk"
	defaultUploadTmpDir       = "./public/temp"
	defaultUploadsDir         = "./uploads"
	defaultStaticURLBase      = "/static/uploads"
	defaultMaxUploadBytes     = 10 << 20
	defaultS3Region           = "us-east-1"
	defaultBcryptCost         = 10
)

const (
	StoreSQL   = "sql"
	StoreMongo = "mongo"
	MediaS3    = "s3"
	MediaDisk  = "disk"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	StoreDriver string
	DatabaseURL string
	MongoURI    string
	DBName      string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	BcryptCost         int

	CookieSecure   bool
	CookieSameSite string
	CookiePath     string
	CORSOrigins    []string

	MediaDriver    string
	UploadTmpDir   string
	UploadsDir     string
	StaticURLBase  string
	MaxUploadBytes int64
	S3             S3Config
}

// S3Config addresses an S3-compatible bucket (AWS or MinIO).
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	UsePathStyle  bool
}

// LoadDotEnv reads .env files when present. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", defaultStoreDriver)))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.MongoURI = strings.TrimSpace(getEnv("MONGODB_URI", defaultMongoURI))
	cfg.DBName = strings.TrimSpace(getEnv("DB_NAME", defaultDBName))

	cfg.AccessTokenSecret = strings.TrimSpace(getEnv("ACCESS_TOKEN_SECRET", defaultAccessTokenSecret))
	cfg.RefreshTokenSecret = strings.TrimSpace(getEnv("REFRESH_TOKEN_SECRET", defaultRefreshTokenSecret))

	var err error
	cfg.AccessTokenExpiry, err = parseDurationEnv("ACCESS_TOKEN_EXPIRY", defaultAccessTokenExpiry)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTokenExpiry, err = parseDurationEnv("REFRESH_TOKEN_EXPIRY", defaultRefreshTokenExpiry)
	if err != nil {
		return nil, err
	}
	cfg.BcryptCost, err = parseIntEnv("BCRYPT_COST", defaultBcryptCost)
	if err != nil {
		return nil, err
	}

	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))
	cfg.CookiePath = strings.TrimSpace(getEnv("COOKIE_PATH", defaultCookiePath))
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGIN"))

	cfg.MediaDriver = strings.ToLower(strings.TrimSpace(getEnv("MEDIA_DRIVER", defaultMediaDriver)))
	cfg.UploadTmpDir = strings.TrimSpace(getEnv("UPLOAD_TMP_DIR", defaultUploadTmpDir))
	cfg.UploadsDir = strings.TrimSpace(getEnv("UPLOADS_DIR", defaultUploadsDir))
	cfg.StaticURLBase = strings.TrimSpace(getEnv("STATIC_URL_BASE", defaultStaticURLBase))
	maxUpload, err := parseIntEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	cfg.S3 = S3Config{
		Endpoint:      strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		Region:        strings.TrimSpace(getEnv("S3_REGION", defaultS3Region)),
		Bucket:        strings.TrimSpace(os.Getenv("S3_BUCKET")),
		AccessKey:     strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		SecretKey:     strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		PublicBaseURL: strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
		UsePathStyle:  parseBoolEnv("S3_USE_PATH_STYLE", "true"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.StoreDriver != StoreSQL && cfg.StoreDriver != StoreMongo {
		return fmt.Errorf("STORE_DRIVER must be one of: sql, mongo")
	}
	if cfg.StoreDriver == StoreSQL && cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.StoreDriver == StoreMongo && (cfg.MongoURI == "" || cfg.DBName == "") {
		return fmt.Errorf("MONGODB_URI and DB_NAME must not be empty")
	}
	if cfg.AccessTokenExpiry <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRY must be > 0")
	}
	if cfg.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRY must be > 0")
	}
	if cfg.RefreshTokenExpiry <= cfg.AccessTokenExpiry {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRY must be longer than ACCESS_TOKEN_EXPIRY")
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must not be empty")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.CookiePath == "" {
		return fmt.Errorf("COOKIE_PATH must not be empty")
	}
	sameSite := strings.ToLower(strings.TrimSpace(cfg.CookieSameSite))
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	switch cfg.MediaDriver {
	case MediaDisk:
		if cfg.UploadsDir == "" {
			return fmt.Errorf("UPLOADS_DIR must not be empty")
		}
	case MediaS3:
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set when MEDIA_DRIVER=s3")
		}
	default:
		return fmt.Errorf("MEDIA_DRIVER must be one of: disk, s3")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.AccessTokenSecret, defaultAccessTokenSecret) {
			return fmt.Errorf("in prod/release ACCESS_TOKEN_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.RefreshTokenSecret, defaultRefreshTokenSecret) {
			return fmt.Errorf("in prod/release REFRESH_TOKEN_SECRET must be set and not default")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		// Bare day counts like "10d" are common in .env files.
		if days, ok := strings.CutSuffix(value, "d"); ok {
			if n, convErr := strconv.Atoi(days); convErr == nil {
				return time.Duration(n) * 24 * time.Hour, nil
			}
		}
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
