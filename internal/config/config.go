package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// PathEnv names the environment variable holding an optional YAML config file.
const PathEnv = "CLOUDBYTE_CONFIG"

type Config struct {
	Env      string   `yaml:"env" env:"CLOUDBYTE_ENV" env-default:"development"`
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
	Auth     Auth     `yaml:"auth"`
	Email    Email    `yaml:"email"`
	Terminal Terminal `yaml:"terminal"`

	// GeneratedSecret is set when no JWT secret was configured and a random
	// one was created for this process.
	GeneratedSecret bool `yaml:"-" env:"-"`
}

type HTTP struct {
	Port            string        `yaml:"port" env:"CLOUDBYTE_PORT" env-default:"8080"`
	BaseURL         string        `yaml:"base_url" env:"CLOUDBYTE_BASE_URL" env-default:"http://localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"CLOUDBYTE_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"CLOUDBYTE_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"CLOUDBYTE_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CLOUDBYTE_SHUTDOWN_TIMEOUT" env-default:"5s"`

	// TrustProxyHeaders keys rate limits on CF-Connecting-IP and
	// X-Forwarded-For. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" env:"CLOUDBYTE_TRUST_PROXY_HEADERS" env-default:"false"`
}

type Database struct {
	Path string `yaml:"path" env:"CLOUDBYTE_DB_PATH" env-default:"cloudbyte.db"`
}

type Log struct {
	Level  string `yaml:"level" env:"CLOUDBYTE_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"CLOUDBYTE_LOG_FORMAT" env-default:"text"`
}

type Auth struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"CLOUDBYTE_JWT_SECRET"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"CLOUDBYTE_SESSION_TTL" env-default:"168h"`
	SecureCookie bool          `yaml:"secure_cookie" env:"CLOUDBYTE_SECURE_COOKIE" env-default:"false"`
}

type Email struct {
	PostmarkToken string `yaml:"postmark_token" env:"CLOUDBYTE_POSTMARK_TOKEN"`
	FromAddress   string `yaml:"from_address" env:"CLOUDBYTE_FROM_EMAIL" env-default:"noreply@cloudbyte.example"`
}

type Terminal struct {
	SSHHost      string `yaml:"ssh_host" env:"CLOUDBYTE_SSH_HOST" env-default:"your-server-ip"`
	ProjectDir   string `yaml:"project_dir" env:"CLOUDBYTE_PROJECT_DIR" env-default:"/var/www/your-project"`
	SupportEmail string `yaml:"support_email" env:"CLOUDBYTE_SUPPORT_EMAIL" env-default:"support@cloudbyte.com"`
}

// Load reads the YAML file named by CLOUDBYTE_CONFIG when it is set, then
// applies environment overrides and defaults.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv(PathEnv); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	c.HTTP.BaseURL = strings.TrimRight(c.HTTP.BaseURL, "/")

	// Production always serves over TLS.
	if c.IsProduction() {
		c.Auth.SecureCookie = true
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Auth.SessionTTL)
	}

	if c.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generate jwt secret: %w", err)
		}
		c.Auth.JWTSecret = secret
		c.GeneratedSecret = true
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.HTTP.Port
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
