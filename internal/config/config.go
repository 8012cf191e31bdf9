package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Listen string `yaml:"listen" env:"PVCARBON_LISTEN" env-default:"0.0.0.0:2922" env-description:"HTTP server listen address"`

	Log struct {
		Level  string `yaml:"level" env:"PVCARBON_LOG_LEVEL" env-default:"info" env-description:"log level (debug, info, warn, error)"`
		Format string `yaml:"format" env:"PVCARBON_LOG_FORMAT" env-default:"text" env-description:"log format (text, json)"`
	} `yaml:"log"`

	Demo struct {
		Enabled bool `yaml:"enabled" env:"PVCARBON_DEMO_ENABLED" env-default:"false" env-description:"use embedded demonstration data instead of external services"`
	} `yaml:"demo"`

	// FactorsFile is an optional YAML overlay of material and transport factors.
	FactorsFile string `yaml:"factors_file" env:"PVCARBON_FACTORS_FILE" env-description:"YAML emission factor overlay"`

	DefaultCountry string `yaml:"default_country" env:"PVCARBON_DEFAULT_COUNTRY" env-default:"GBR" env-description:"country used for grid intensity when the request has none"`

	HTTP struct {
		Timeout    time.Duration `yaml:"timeout" env:"PVCARBON_HTTP_TIMEOUT" env-default:"30s"`
		Attempts   int           `yaml:"attempts" env:"PVCARBON_HTTP_ATTEMPTS" env-default:"3"`
		Backoff    time.Duration `yaml:"backoff" env:"PVCARBON_HTTP_BACKOFF" env-default:"500ms"`
		MaxBackoff time.Duration `yaml:"max_backoff" env:"PVCARBON_HTTP_MAX_BACKOFF" env-default:"5s"`
	} `yaml:"http"`

	Sources struct {
		PVGISURL      string        `yaml:"pvgis_url" env:"PVCARBON_PVGIS_URL" env-default:"https://re.jrc.ec.europa.eu/api/v5_2/seriescalc"`
		PVGISDatabase string        `yaml:"pvgis_database" env:"PVCARBON_PVGIS_DATABASE" env-default:"PVGIS-ERA5"`
		PVGISCacheTTL time.Duration `yaml:"pvgis_cache_ttl" env:"PVCARBON_PVGIS_CACHE_TTL" env-default:"24h" env-description:"how long a PVGIS series is reused for identical queries"`
		OWIDURL       string        `yaml:"owid_url" env:"PVCARBON_OWID_URL" env-default:"https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-data.csv"`
		PostcodesURL  string        `yaml:"postcodes_url" env:"PVCARBON_POSTCODES_URL" env-default:"https://api.postcodes.io/postcodes"`
	} `yaml:"sources"`
}

// Load reads the configuration file at path, when set, then the environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	cfg := new(Config)

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		if desc, descErr := cleanenv.GetDescription(cfg, nil); descErr == nil {
			slog.Debug(desc)
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.HTTP.Attempts < 1 {
		return fmt.Errorf("invalid configuration: http attempts must be at least 1, got %d", cfg.HTTP.Attempts)
	}
	if cfg.Sources.PVGISCacheTTL <= 0 {
		return fmt.Errorf("invalid configuration: pvgis cache ttl must be positive")
	}
	if cfg.HTTP.Backoff <= 0 || cfg.HTTP.MaxBackoff < cfg.HTTP.Backoff {
		return fmt.Errorf("invalid configuration: http backoff must be positive and lower than max backoff")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid configuration: unsupported log format %q", cfg.Log.Format)
	}
	return nil
}

// Usage describes every environment variable.
func Usage() string {
	desc, err := cleanenv.GetDescription(new(Config), nil)
	if err != nil {
		return ""
	}
	return desc
}
