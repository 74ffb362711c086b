// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Translate TranslateConfig `yaml:"translate" mapstructure:"translate"`
	Metadata  MetadataConfig  `yaml:"metadata" mapstructure:"metadata"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run log and geocode cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures source downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// GeocodeConfig configures the geocoding providers.
type GeocodeConfig struct {
	Providers    []string `yaml:"providers" mapstructure:"providers"` // cascade order
	NominatimURL string   `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	GiscoURL     string   `yaml:"gisco_url" mapstructure:"gisco_url"`
	GoogleKey    string   `yaml:"google_api_key" mapstructure:"google_api_key"`
	RateLimit    float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/s per provider
	CacheEnabled bool     `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	Concurrency  int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// TranslateConfig configures the translation providers.
type TranslateConfig struct {
	Provider          string `yaml:"provider" mapstructure:"provider"` // "libretranslate" or "anthropic"
	LibreTranslateURL string `yaml:"libretranslate_url" mapstructure:"libretranslate_url"`
	LibreTranslateKey string `yaml:"libretranslate_key" mapstructure:"libretranslate_key"`
	AnthropicKey      string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	AnthropicModel    string `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	TargetLang        string `yaml:"target_lang" mapstructure:"target_lang"`
}

// MetadataConfig locates the per-dataset metadata files.
type MetadataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// OutputConfig configures where formatted datasets are written.
type OutputConfig struct {
	Dir  string `yaml:"dir" mapstructure:"dir"`
	File string `yaml:"file" mapstructure:"file"` // pattern, supports {name} and {fmt}
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "harvest.db")
	v.SetDefault("fetch.user_agent", "harvest-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.temp_dir", "/tmp/harvest")
	v.SetDefault("geocode.providers", []string{"nominatim"})
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.gisco_url", "https://gisco-services.ec.europa.eu/api")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.cache_enabled", true)
	v.SetDefault("geocode.concurrency", 4)
	v.SetDefault("translate.provider", "libretranslate")
	v.SetDefault("translate.libretranslate_url", "https://libretranslate.com")
	v.SetDefault("translate.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("translate.target_lang", "en")
	v.SetDefault("metadata.dir", "metadata")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.file", "{name}.{fmt}")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
