package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yukikurage/issue-tracker-api/internal/constants"
)

type Config struct {
	AppPort string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	RedisHost     string
	RedisPort     string
	SessionSecret string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	BlobBackend    string
	UploadDir      string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	LoginRateLimit  int
	LoginRateWindow time.Duration

	AdminEmail    string
	AdminPassword string

	LogLevel  string
	LogFormat string
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "issueuser")
	v.SetDefault("DB_PASSWORD", "issuepassword")
	v.SetDefault("DB_NAME", "issue_tracker")
	v.SetDefault("DB_PATH", "issue_tracker.db")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")
	v.SetDefault("JWT_SECRET", "default-jwt-secret-change-me")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", int(constants.DefaultAccessTokenTTL/time.Minute))
	v.SetDefault("REFRESH_TOKEN_TTL_HOURS", int(constants.DefaultRefreshTokenTTL/time.Hour))
	v.SetDefault("BLOB_BACKEND", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_USE_PATH_STYLE", false)
	v.SetDefault("LOGIN_RATE_LIMIT", constants.DefaultLoginRateLimit)
	v.SetDefault("LOGIN_RATE_WINDOW_MIN", int(constants.DefaultLoginRateWindow/time.Minute))
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// a missing .env is fine; the environment alone is enough
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:         v.GetString("APP_PORT"),
		GinMode:         v.GetString("GIN_MODE"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBName:          v.GetString("DB_NAME"),
		DBPath:          v.GetString("DB_PATH"),
		RedisHost:       v.GetString("REDIS_HOST"),
		RedisPort:       v.GetString("REDIS_PORT"),
		SessionSecret:   v.GetString("SESSION_SECRET"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		AccessTokenTTL:  time.Duration(v.GetInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
		RefreshTokenTTL: time.Duration(v.GetInt("REFRESH_TOKEN_TTL_HOURS")) * time.Hour,
		BlobBackend:     strings.ToLower(v.GetString("BLOB_BACKEND")),
		UploadDir:       v.GetString("UPLOAD_DIR"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Region:        v.GetString("S3_REGION"),
		S3Endpoint:      v.GetString("S3_ENDPOINT"),
		S3AccessKey:     v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:     v.GetString("S3_SECRET_KEY"),
		S3UsePathStyle:  v.GetBool("S3_USE_PATH_STYLE"),
		LoginRateLimit:  v.GetInt("LOGIN_RATE_LIMIT"),
		LoginRateWindow: time.Duration(v.GetInt("LOGIN_RATE_WINDOW_MIN")) * time.Minute,
		AdminEmail:      v.GetString("ADMIN_EMAIL"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	switch cfg.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	switch cfg.BlobBackend {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("unsupported BLOB_BACKEND %q", cfg.BlobBackend)
	}
	if cfg.BlobBackend == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when BLOB_BACKEND=s3")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.LoginRateLimit < 1 {
		cfg.LoginRateLimit = constants.DefaultLoginRateLimit
	}
	if cfg.LoginRateWindow <= 0 {
		cfg.LoginRateWindow = constants.DefaultLoginRateWindow
	}

	return cfg, nil
}
