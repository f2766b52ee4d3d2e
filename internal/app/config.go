package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the API server configuration, loadable from environment
// variables (CATALOG_ prefix), flags, a .env file, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CATALOG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Server      ServerConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RateLimitConfig controls the per-client sliding window limiter. Max 0
// disables it.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per client per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentialed cross-origin requests" flag:"cors-credentials"`
	MaxAge           int      `default:"86400" usage:"Preflight cache lifetime in seconds" flag:"cors-max-age"`
}

// ServerConfig holds http.Server timeouts.
type ServerConfig struct {
	ReadTimeout  time.Duration `default:"5s" usage:"Maximum duration for reading a request" flag:"read-timeout"`
	WriteTimeout time.Duration `default:"10s" usage:"Maximum duration before timing out a response write" flag:"write-timeout"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig reads .env (if present) into the environment and then loads
// Config. DATABASE_URL and PORT are honoured when the prefixed variables
// are unset.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

// loadConfig parses args as flags; nil skips flag parsing.
func loadConfig(args []string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: args == nil,
		Args:      args,
		EnvPrefix: "CATALOG",
		Files:     []string{"config.yaml", "/etc/catalog/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CATALOG_DATABASE_URL or DATABASE_URL")
	}
	return &cfg, nil
}

func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
