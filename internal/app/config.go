package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr              string `default:"0.0.0.0:8080" usage:"API server listen address"`
	FixturePath       string `default:"" usage:"Catalog fixture file; empty uses the embedded seed" flag:"fixture"`
	ShippingRatePerKg string `default:"10" usage:"Shipping rate per kilogram" flag:"shipping-rate"`
	Graceful          GracefulConfig
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// ShippingRate parses the configured per-kilogram shipping rate.
func (c *Config) ShippingRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.ShippingRatePerKg)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse shipping rate")
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, errors.New("shipping rate must be non-negative")
	}
	return rate, nil
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	return &cfg, nil
}

// applyPlatformDefaults maps the PORT variable used by container platforms
// onto the listen address.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
