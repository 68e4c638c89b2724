package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Env         string   `envconfig:"APP_ENV" default:"development"`
	Port        string   `envconfig:"PORT" default:"3000"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// MongoURI wins over the Atlas credentials below when set.
	MongoURI string `envconfig:"MONGODB_URI"`
	DBUser   string `envconfig:"DB_USER"`
	DBPass   string `envconfig:"DB_PASS"`
	DBHost   string `envconfig:"DB_HOST" default:"cluster0.vhtgohj.mongodb.net"`
	DBName   string `envconfig:"MONGODB_DB" default:"Asset"`

	TokenSecret    string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	RoleCacheTTL time.Duration `envconfig:"ROLE_CACHE_TTL" default:"1m"`

	S3Bucket      string `envconfig:"AWS_S3_BUCKET"`
	S3Region      string `envconfig:"AWS_REGION" default:"us-east-1"`
	S3AccessKeyID string `envconfig:"AWS_ACCESS_KEY_ID"`
	S3SecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	MaxUploadMB   int64  `envconfig:"MAX_UPLOAD_MB" default:"5"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM"`
}

// Load reads the process environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if strings.TrimSpace(cfg.TokenSecret) == "" {
		return nil, errors.New("config: ACCESS_TOKEN_SECRET must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("config: TOKEN_TTL must be positive")
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 5
	}
	if cfg.MongoURI == "" {
		if cfg.DBUser == "" || cfg.DBPass == "" {
			return nil, errors.New("config: set MONGODB_URI or DB_USER and DB_PASS")
		}
		cfg.MongoURI = atlasURI(cfg.DBUser, cfg.DBPass, cfg.DBHost)
	}
	return &cfg, nil
}

func atlasURI(user, pass, host string) string {
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// MaxUploadBytes is the image upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}
