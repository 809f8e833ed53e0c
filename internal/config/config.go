// Package config loads and validates the pipeline configuration using Viper.
//
// Configuration is layered: built-in defaults < optional YAML config file <
// environment variables. Environment variables use the AFGC_ prefix (e.g.,
// AFGC_SOURCE_API_KEY overrides source.api_key). The pipeline entry points
// receive a validated Config value; nothing reads the environment after
// startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Issuance IssuanceConfig `mapstructure:"issuance"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
}

// SourceConfig holds the records API connection configuration
type SourceConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	APIKey   string        `mapstructure:"api_key"`
	BaseID   string        `mapstructure:"base_id"`
	TableID  string        `mapstructure:"table_id"`
	PageSize int           `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PublishConfig holds the registry artifact output configuration
type PublishConfig struct {
	OutputDir           string `mapstructure:"output_dir"`
	ArtifactName        string `mapstructure:"artifact_name"`
	SchemaPath          string `mapstructure:"schema_path"`
	PublisherName       string `mapstructure:"publisher_name"`
	PublisherDisclaimer string `mapstructure:"publisher_disclaimer"`
}

// IssuanceConfig holds the issuance pack output configuration
type IssuanceConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	PackBaseURL string `mapstructure:"pack_base_url"`
}

// DatabaseConfig holds the optional run archive database configuration
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ServerConfig holds the serve command configuration
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// MissingError reports required configuration keys that were absent at
// startup. It is fatal before any run begins.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("configuration missing: %s", strings.Join(e.Keys, ", "))
}

// Load reads configuration from defaults, an optional YAML file, and
// AFGC_-prefixed environment variables. path may be empty, in which case
// afgc.yaml in the working directory is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AFGC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("afgc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every key. Defaults double as key
// declarations: AutomaticEnv only resolves keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("source.api_url", "https://api.airtable.com/v0")
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.base_id", "")
	v.SetDefault("source.table_id", "")
	v.SetDefault("source.page_size", 100)
	v.SetDefault("source.timeout", 30*time.Second)

	v.SetDefault("publish.output_dir", "public/registry")
	v.SetDefault("publish.artifact_name", "registry.json")
	v.SetDefault("publish.schema_path", "schema/certification_registry.schema.json")
	v.SetDefault("publish.publisher_name", "AI Fiduciary Governance Certification Registry")
	v.SetDefault("publish.publisher_disclaimer",
		"This registry lists certifications issued under the AFGC program. "+
			"Listing does not constitute legal, financial, or fiduciary advice.")

	v.SetDefault("issuance.output_dir", "output")
	v.SetDefault("issuance.pack_base_url", "https://afgc-registry.github.io/packs")

	v.SetDefault("database.url", "")

	v.SetDefault("server.port", 8080)
}

// ValidateSource checks the configuration required before any source-touching
// run can begin. Missing values are reported together so an operator fixes
// them in one pass.
func (c *Config) ValidateSource() error {
	var missing []string
	if c.Source.APIKey == "" {
		missing = append(missing, "source.api_key")
	}
	if c.Source.BaseID == "" {
		missing = append(missing, "source.base_id")
	}
	if c.Source.TableID == "" {
		missing = append(missing, "source.table_id")
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}
