// Package config loads process settings from HELPLINE_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dukerupert/helpline/internal/token"
)

const envPrefix = "HELPLINE_"

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"helpline.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"helpline"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	ResetTTL      time.Duration `env:"RESET_TTL" envDefault:"1h"`
	BaseURL       string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	PostmarkToken string        `env:"POSTMARK_TOKEN"`
	FromEmail     string        `env:"FROM_EMAIL" envDefault:"noreply@localhost"`

	// AllowedOrigins are websocket origin patterns. Empty accepts any origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads the process environment.
func Load() (Config, error) {
	return load(env.Options{Prefix: envPrefix})
}

// LoadFrom reads settings from vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return load(env.Options{Prefix: envPrefix, Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.TokenSecret) < token.MinSecretLen {
		return fmt.Errorf("%sTOKEN_SECRET must be at least %d bytes", envPrefix, token.MinSecretLen)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%sTOKEN_TTL must be positive", envPrefix)
	}
	if c.ResetTTL <= 0 {
		return fmt.Errorf("%sRESET_TTL must be positive", envPrefix)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// TokenConfig converts the credential settings for token.NewService.
func (c Config) TokenConfig() token.Config {
	return token.Config{
		Secret: []byte(c.TokenSecret),
		Issuer: c.TokenIssuer,
		TTL:    c.TokenTTL,
	}
}
