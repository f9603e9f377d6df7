package config

import (
	"time"

	"github.com/bjaus/gateway"
	"github.com/bjaus/gateway/ratelimit"
)

// Config is the top-level configuration of the server.
//
// Struct tags:
//   - envPrefix / env: environment variable names (caarlos0/env).
//   - yaml: keys of the optional configuration file.
type Config struct {
	// Mode is the deployment mode, "development" or "production".
	// Env: MODE
	Mode string `env:"MODE" yaml:"mode"`

	Server    Server    `envPrefix:"SERVER_" yaml:"server"`
	HTTP      HTTP      `envPrefix:"HTTP_" yaml:"http"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_" yaml:"rate_limit"`
	Redis     Redis     `envPrefix:"REDIS_" yaml:"redis"`

	// File is the path of an optional YAML configuration file.
	// Env: CONFIG
	File string `env:"CONFIG" yaml:"-"`
}

// Server holds listener settings.
type Server struct {
	// Address is the TCP address to listen on, "host:port".
	// Env: SERVER_ADDRESS
	Address string `env:"ADDRESS" yaml:"address"`

	// TrustProxy keys clients by the first X-Forwarded-For hop.
	// Env: SERVER_TRUST_PROXY
	TrustProxy bool `env:"TRUST_PROXY" yaml:"trust_proxy"`
}

// HTTP holds pipeline settings.
type HTTP struct {
	// Env: HTTP_BODY_LIMIT (bytes)
	BodyLimit int64 `env:"BODY_LIMIT" yaml:"body_limit"`
	// Env: HTTP_API_PREFIX
	APIPrefix string `env:"API_PREFIX" yaml:"api_prefix"`
	// Env: HTTP_DOCS_PREFIX
	DocsPrefix string `env:"DOCS_PREFIX" yaml:"docs_prefix"`
	// StaticDir is served ahead of the API. Empty disables static files.
	// Env: HTTP_STATIC_DIR
	StaticDir string `env:"STATIC_DIR" yaml:"static_dir"`
	// DocsFile is an OpenAPI document (JSON or YAML). Empty uses the built-in one.
	// Env: HTTP_DOCS_FILE
	DocsFile string `env:"DOCS_FILE" yaml:"docs_file"`
}

// RateLimit holds the production rate limit.
type RateLimit struct {
	// Env: RATE_LIMIT_WINDOW (e.g. "1h")
	Window time.Duration `env:"WINDOW" yaml:"window"`
	// Env: RATE_LIMIT_MAX
	Max int `env:"MAX" yaml:"max"`
}

// Redis selects a shared rate-limit store. An empty Address keeps counters in
// process.
type Redis struct {
	// Env: REDIS_ADDRESS
	Address string `env:"ADDRESS" yaml:"address"`
	// Env: REDIS_PASSWORD
	Password string `env:"PASSWORD" yaml:"password"`
	// Env: REDIS_DB
	DB int `env:"DB" yaml:"db"`
}

func defaults() *Config {
	return &Config{
		Mode: "development",
		Server: Server{
			Address: ":8080",
		},
		HTTP: HTTP{
			BodyLimit:  gateway.DefaultBodyLimit,
			APIPrefix:  gateway.DefaultAPIPrefix,
			DocsPrefix: gateway.DefaultDocsPrefix,
		},
		RateLimit: RateLimit{
			Window: ratelimit.DefaultWindow,
			Max:    ratelimit.DefaultLimit,
		},
	}
}

// GatewayMode returns the parsed deployment mode. Load has already validated it.
func (c *Config) GatewayMode() gateway.Mode {
	m, _ := gateway.ParseMode(c.Mode) //nolint:errcheck // validated by Load
	return m
}

// Load reads, merges and validates the configuration. args are the
// command-line arguments without the program name.
func Load(args []string) (*Config, error) {
	return newBuilder().
		withEnv().
		withFlags(args).
		withFile().
		withDefaults().
		build()
}
