// Package config provides configuration management for facet using Viper
// for loading from files, environment variables and command-line flags.
//
// Configuration comes from a YAML file (.facet.yml by default), FACET_
// prefixed environment variables and flags bound by the CLI. Load applies
// defaults and validates the result.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/logging"
	"github.com/conneroisu/facet/internal/request"
)

// Config is the complete application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Localization LocalizationConfig `mapstructure:"localization" yaml:"localization"`
	Sitemap      SitemapConfig      `mapstructure:"sitemap" yaml:"sitemap"`
	Site         SiteConfig         `mapstructure:"site" yaml:"site"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host      string          `mapstructure:"host" yaml:"host"`
	Port      int             `mapstructure:"port" yaml:"port"`
	Engine    string          `mapstructure:"engine" yaml:"engine"`
	BaseURL   string          `mapstructure:"base_url" yaml:"base_url"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Burst             int  `mapstructure:"burst" yaml:"burst"`
}

type CacheConfig struct {
	// MaxBytes is an absolute budget. When zero, MemoryFraction of the
	// available memory is used instead.
	MaxBytes       int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
	MemoryFraction float64       `mapstructure:"memory_fraction" yaml:"memory_fraction"`
	Shards         int           `mapstructure:"shards" yaml:"shards"`
	TTL            time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type LocalizationConfig struct {
	// Bundle is the path of a YAML bundle; empty uses the demo bundle.
	Bundle         string `mapstructure:"bundle" yaml:"bundle"`
	QueryParameter string `mapstructure:"query_parameter" yaml:"query_parameter"`
	DefaultTag     string `mapstructure:"default_tag" yaml:"default_tag"`
}

type SitemapConfig struct {
	FileName string `mapstructure:"file_name" yaml:"file_name"`
	MaxBytes int    `mapstructure:"max_bytes" yaml:"max_bytes"`
}

type SiteConfig struct {
	Name         string   `mapstructure:"name" yaml:"name"`
	Author       string   `mapstructure:"author" yaml:"author"`
	AssetsDir    string   `mapstructure:"assets_dir" yaml:"assets_dir"`
	Minify       bool     `mapstructure:"minify" yaml:"minify"`
	WatchAssets  bool     `mapstructure:"watch_assets" yaml:"watch_assets"`
	IgnoredQuery []string `mapstructure:"ignored_query" yaml:"ignored_query"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.engine", "stdlib")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.rate_limit.enabled", false)
	v.SetDefault("server.rate_limit.requests_per_minute", 600)
	v.SetDefault("server.rate_limit.burst", 50)

	v.SetDefault("cache.max_bytes", 0)
	v.SetDefault("cache.memory_fraction", 0.1)
	v.SetDefault("cache.shards", 16)
	v.SetDefault("cache.ttl", "0s")

	v.SetDefault("localization.bundle", "")
	v.SetDefault("localization.query_parameter", request.DefaultLanguageParameter)
	v.SetDefault("localization.default_tag", "")

	v.SetDefault("sitemap.file_name", "sitemap.txt")
	v.SetDefault("sitemap.max_bytes", 10<<20)

	v.SetDefault("site.name", "facet")
	v.SetDefault("site.author", "")
	v.SetDefault("site.assets_dir", "")
	v.SetDefault("site.minify", false)
	v.SetDefault("site.watch_assets", false)
	v.SetDefault("site.ignored_query", request.DefaultIgnoredQuery)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults for unset keys
// and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "decoding configuration: "+err.Error())
	}

	config.Site.IgnoredQuery = splitList(v.GetStringSlice("site.ignored_query"))

	config.Server.BaseURL = strings.TrimSuffix(config.Server.BaseURL, "/")
	config.Server.Engine = strings.ToLower(config.Server.Engine)

	if err := validateConfig(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid configuration: "+err.Error())
	}
	return &config, nil
}

// splitList accepts both YAML lists and comma separated values from the
// environment.
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateCacheConfig(&config.Cache); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	if err := validateLocalizationConfig(&config.Localization); err != nil {
		return fmt.Errorf("localization config: %w", err)
	}
	if err := validateSitemapConfig(&config.Sitemap); err != nil {
		return fmt.Errorf("sitemap config: %w", err)
	}
	if config.Site.AssetsDir != "" {
		if err := validatePath(config.Site.AssetsDir); err != nil {
			return fmt.Errorf("site config: assets_dir: %w", err)
		}
	}
	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unknown format %q", config.Log.Format)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Port 0 lets the system pick one, which tests rely on.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", "/"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	switch config.Engine {
	case "stdlib", "gin":
	default:
		return fmt.Errorf("unknown engine %q (want stdlib or gin)", config.Engine)
	}

	if config.BaseURL != "" {
		u, err := url.Parse(config.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("base_url must be an absolute http(s) URL: %q", config.BaseURL)
		}
		if u.RawQuery != "" || u.Fragment != "" {
			return fmt.Errorf("base_url must not carry a query or fragment: %q", config.BaseURL)
		}
	}

	if rl := config.RateLimit; rl.Enabled && (rl.RequestsPerMinute <= 0 || rl.Burst <= 0) {
		return fmt.Errorf("rate_limit needs positive requests_per_minute and burst")
	}
	return nil
}

func validateCacheConfig(config *CacheConfig) error {
	if config.MaxBytes < 0 {
		return fmt.Errorf("max_bytes %d is negative", config.MaxBytes)
	}
	if config.MemoryFraction < 0 || config.MemoryFraction > 1 {
		return fmt.Errorf("memory_fraction %v is not in range 0-1", config.MemoryFraction)
	}
	if config.Shards < 0 {
		return fmt.Errorf("shards %d is negative", config.Shards)
	}
	if config.TTL < 0 {
		return fmt.Errorf("ttl %v is negative", config.TTL)
	}
	return nil
}

func validateLocalizationConfig(config *LocalizationConfig) error {
	if config.Bundle != "" {
		if err := validatePath(config.Bundle); err != nil {
			return fmt.Errorf("bundle: %w", err)
		}
	}
	if config.QueryParameter == "" {
		return fmt.Errorf("query_parameter is empty")
	}
	if strings.ContainsAny(config.QueryParameter, "&=?# ") {
		return fmt.Errorf("query_parameter %q contains a reserved character", config.QueryParameter)
	}
	return nil
}

func validateSitemapConfig(config *SitemapConfig) error {
	if config.FileName == "" || strings.Contains(config.FileName, "/") {
		return fmt.Errorf("file_name must be a single path segment: %q", config.FileName)
	}
	if config.MaxBytes < 0 {
		return fmt.Errorf("max_bytes %d is negative", config.MaxBytes)
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return errors.ErrInvalidPath(path).WithContext("reason", "traversal")
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return errors.ErrInvalidPath(path).WithContext("reason", "dangerous character "+char)
		}
	}
	return nil
}

// CacheBytes resolves the cache budget: MaxBytes when set, otherwise the
// configured fraction of available memory.
func (c CacheConfig) CacheBytes(available func() uint64) int64 {
	if c.MaxBytes > 0 {
		return c.MaxBytes
	}
	if available == nil {
		available = AvailableMemory
	}
	return int64(float64(available()) * c.MemoryFraction)
}
