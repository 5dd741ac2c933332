package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"hsedash/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Database DatabaseConfig
	Server   ServerConfig
	Cache    CacheConfig
	Rules    RulesConfig
	Log      LogConfig
}

// DataConfig names the file sources and how often they are re-read
type DataConfig struct {
	File           string
	LocationsFile  string
	ReloadSchedule string
}

// DatabaseConfig holds database connection settings. An empty URL means the
// findings come from DataConfig.File instead.
type DatabaseConfig struct {
	URL            string
	MaxOpenConns   int
	MigrateOnStart bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// CacheConfig bounds how long a normalized dataset is reused
type CacheConfig struct {
	TTL time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// RulesConfig holds the dashboard's business rules. Zero values mean "use
// the built-in default".
type RulesConfig struct {
	File           string              `yaml:"-"`
	ExcludedMarker string              `yaml:"excluded_marker"`
	Delimiter      string              `yaml:"object_delimiter"`
	SLADays        int                 `yaml:"sla_days"`
	TopN           int                 `yaml:"top_n"`
	Stopwords      []string            `yaml:"stopwords"`
	Aliases        map[string][]string `yaml:"column_aliases"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:     *loadDataConfig(),
		Database: *loadDatabaseConfig(),
		Server:   *loadServerConfig(),
		Cache:    *loadCacheConfig(),
		Log:      LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
	}

	rules, err := LoadRules(getEnvOrDefault("RULES_FILE", ""))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load rules")
	}
	if v := os.Getenv("EXCLUDED_MARKER"); v != "" {
		rules.ExcludedMarker = v
	}
	if v := getEnvIntOrDefault("SLA_DAYS", 0); v > 0 {
		rules.SLADays = v
	}
	config.Rules = *rules

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// LoadRules parses a YAML rules file. An empty path returns empty rules.
func LoadRules(path string) (*RulesConfig, error) {
	rules := &RulesConfig{File: path}
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigInvalid("cannot read rules file " + path + ": " + err.Error())
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, errors.ConfigInvalid("cannot parse rules file " + path + ": " + err.Error())
	}
	rules.File = path

	if rules.SLADays < 0 {
		return nil, errors.ConfigInvalid("sla_days must not be negative")
	}
	return rules, nil
}

// RequireSource reports a configuration error when neither a data file nor a
// database is configured. Server binaries call it; the CLI takes its file as
// a flag instead.
func (c *Config) RequireSource() error {
	if c.Data.File == "" && c.Database.URL == "" {
		return errors.ConfigInvalid("DATA_FILE or DATABASE_URL is required")
	}
	return nil
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:           getEnvOrDefault("DATA_FILE", ""),
		LocationsFile:  getEnvOrDefault("LOCATIONS_FILE", ""),
		ReloadSchedule: strings.TrimSpace(getEnvOrDefault("RELOAD_SCHEDULE", "")),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:            getEnvOrDefault("DATABASE_URL", ""),
		MaxOpenConns:   getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MigrateOnStart: getEnvBoolOrDefault("DB_MIGRATE", false),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadCacheConfig() *CacheConfig {
	return &CacheConfig{
		TTL: getEnvDurationOrDefault("CACHE_TTL", 10*time.Minute),
	}
}

func validateConfig(config *Config) error {
	if config.Cache.TTL <= 0 {
		return errors.ConfigInvalid("CACHE_TTL must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
