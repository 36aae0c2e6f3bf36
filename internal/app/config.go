package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/maisonnoir/storefront/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (MAISON_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MAISON_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AuthAPIURL  string `usage:"Base URL of the identity service" flag:"auth-api-url"`
	TokenDir    string `default:"" usage:"Directory for per-session token files (empty = in-memory)" flag:"token-dir"`
	Pricing     PricingConfig
	Suggest     SuggestConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig holds the shipping and tax policy as decimal strings.
type PricingConfig struct {
	FreeShippingThreshold string `default:"100000" usage:"Raw subtotal at which shipping becomes free" flag:"free-shipping-threshold"`
	FlatShippingFee       string `default:"5000" usage:"Shipping fee below the free threshold" flag:"flat-shipping-fee"`
	TaxRate               string `default:"0.18" usage:"Tax rate applied to the discounted subtotal" flag:"tax-rate"`
}

// Engine parses the decimal strings into a pricing.Config.
func (c PricingConfig) Engine() (pricing.Config, error) {
	threshold, err := decimal.NewFromString(c.FreeShippingThreshold)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse free shipping threshold")
	}
	fee, err := decimal.NewFromString(c.FlatShippingFee)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse flat shipping fee")
	}
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse tax rate")
	}
	return pricing.Config{
		FreeShippingThreshold: threshold,
		FlatShippingFee:       fee,
		TaxRate:               rate,
	}, nil
}

// SuggestConfig tunes the suggestion endpoint.
type SuggestConfig struct {
	Limit int `default:"8" usage:"Max suggestions per query"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MAISON",
		Files:     []string{"config.yaml", "/etc/maison/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set MAISON_DATABASE_URL or DATABASE_URL")
	}
	if cfg.AuthAPIURL == "" {
		return nil, errors.New("identity service URL is required: set MAISON_AUTH_API_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's MAISON_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
