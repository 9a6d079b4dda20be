// Package config provides build configuration with support for command-line flags,
// environment variables, .env files and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/boothvault/asset-library/internal/validation"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ASSET_LIBRARY_"

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Library   LibraryConfig
	Translate TranslateConfig
	Thumbnail ThumbnailConfig
	Relations RelationsConfig
	Search    SearchConfig
	Server    ServerConfig
	Watch     WatchConfig
	Publish   PublishConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// LibraryConfig describes where items are read from and where the page is written.
type LibraryConfig struct {
	// SourcePath is the root folder holding one subfolder per item.
	SourcePath string `validate:"required"`
	// OutputPath is the directory that receives the page, data file and thumbnails.
	OutputPath string `validate:"required"`
	// OutputFile is the HTML file name inside OutputPath.
	OutputFile string `validate:"required"`
	// DataPath holds caches, the ledger, the record database and the search index.
	DataPath string `validate:"required"`
	// TemplatePath overrides the embedded page template (optional).
	TemplatePath string
	// I18nPath points at the optional language table injected into the page.
	I18nPath string
	// KeywordsPath points at an optional JSON array of extra adult keywords.
	KeywordsPath string
}

// TranslateConfig configures the translation cache and its backend.
type TranslateConfig struct {
	Enabled      bool
	Backend      string `validate:"oneof=google ollama"`
	Endpoint     string
	Model        string
	SourceLang   string `validate:"required"`
	TargetLang   string `validate:"required"`
	Workers      int    `validate:"gte=1,lte=64"`
	RatePerSec   float64
	Timeout      time.Duration
	Tags         bool
	Descriptions bool
}

// ThumbnailConfig configures the thumbnail optimizer.
type ThumbnailConfig struct {
	Enabled bool
	Size    int `validate:"gte=16,lte=4096"`
	Quality int `validate:"gte=1,lte=100"`
	Workers int `validate:"gte=1,lte=64"`
}

// RelationsConfig configures the avatar/accessory resolver.
type RelationsConfig struct {
	Enabled        bool
	MinFragmentLen int `validate:"gte=1"`
	// BodyModelsPath optionally replaces the built-in body model list.
	BodyModelsPath string
}

// SearchConfig toggles the search index.
type SearchConfig struct {
	Enabled bool
}

// ServerConfig holds configuration for the serve command.
type ServerConfig struct {
	Port         string `validate:"required,numeric"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	// SettleDelay is how long the tree must be quiet before a rebuild.
	SettleDelay time.Duration
}

// PublishConfig holds the S3 compatible target for the publish command.
type PublishConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// settings lists every key understood by the loader. The same key names the
// config file entry, the flag ("." becomes "-") and the environment variable.
var settings = []struct {
	key   string
	usage string
}{
	{"env", "Environment (development, staging, production)"},
	{"log.level", "Log level (debug, info, warn, error)"},
	{"source", "Root folder with one subfolder per item (default: BoothDownloaderOut)"},
	{"output", "Output directory (default: dist)"},
	{"output.file", "HTML file name (default: asset_library.html)"},
	{"data", "Cache and database directory (default: {output}/../.asset-library)"},
	{"template", "Override the built-in page template"},
	{"i18n", "Language table JSON injected into the page"},
	{"keywords", "Extra adult keyword list (JSON array)"},
	{"translate.enabled", "Translate names, authors and tags (default: true)"},
	{"translate.backend", "Translation backend: google or ollama (default: google)"},
	{"translate.endpoint", "Translation backend base URL"},
	{"translate.model", "Model name for the ollama backend"},
	{"translate.source", "Source language (default: ja)"},
	{"translate.target", "Target language (default: en)"},
	{"translate.workers", "Concurrent translation requests (default: 5)"},
	{"translate.rate", "Translation requests per second, 0 for unlimited (default: 5)"},
	{"translate.timeout", "Per request timeout (default: 20s)"},
	{"translate.tags", "Translate tags (default: true)"},
	{"translate.descriptions", "Translate descriptions (default: false)"},
	{"thumbnail.enabled", "Build thumbnails (default: true)"},
	{"thumbnail.size", "Thumbnail edge in pixels (default: 320)"},
	{"thumbnail.quality", "JPEG quality (default: 82)"},
	{"thumbnail.workers", "Concurrent thumbnail encoders (default: 4)"},
	{"relations.enabled", "Infer avatar/accessory relations (default: true)"},
	{"relations.min-fragment", "Minimum name fragment length (default: 3)"},
	{"relations.body-models", "Body model list override (JSON array)"},
	{"search.enabled", "Maintain the search index (default: true)"},
	{"port", "Serve port (default: 8080)"},
	{"read-timeout", "HTTP read timeout (default: 15s)"},
	{"write-timeout", "HTTP write timeout (default: 15s)"},
	{"idle-timeout", "HTTP idle timeout (default: 60s)"},
	{"watch.settle", "Quiet period before a rebuild (default: 2s)"},
	{"publish.endpoint", "S3 endpoint (host:port)"},
	{"publish.access-key", "S3 access key"},
	{"publish.secret-key", "S3 secret key"},
	{"publish.bucket", "S3 bucket"},
	{"publish.region", "S3 region"},
	{"publish.prefix", "Object key prefix"},
	{"publish.ssl", "Use TLS for the S3 endpoint (default: true)"},
}

// RegisterFlags declares every setting on fs. Flags are strings with empty
// defaults so an unset flag falls through to the next source.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (yaml, toml or json)")
	fs.String("env-file", ".env", "Path to .env file")
	for _, s := range settings {
		fs.String(flagName(s.key), "", s.usage)
	}
}

func flagName(key string) string {
	return strings.ReplaceAll(key, ".", "-")
}

func envName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// loader resolves a key against flags, the environment and the config file.
type loader struct {
	flags *pflag.FlagSet
	file  *viper.Viper
}

func (l *loader) lookup(key string) string {
	if l.flags != nil {
		if f := l.flags.Lookup(flagName(key)); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	if v := os.Getenv(envName(key)); v != "" {
		return v
	}
	if l.file != nil && l.file.IsSet(key) {
		return l.file.GetString(key)
	}
	return ""
}

// getConfigValue returns the first non-empty value from flag, env var, config file, or default.
func (l *loader) getConfigValue(key, defaultValue string) string {
	if v := l.lookup(key); v != "" {
		return v
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func (l *loader) getBoolConfigValue(key string, defaultValue bool) bool {
	v := l.lookup(key)
	if v == "" {
		return defaultValue
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

func (l *loader) getIntConfigValue(key string, defaultValue int) int {
	v := l.lookup(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func (l *loader) getFloatConfigValue(key string, defaultValue float64) float64 {
	v := l.lookup(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func (l *loader) getDurationConfigValue(key, defaultValue string) (time.Duration, error) {
	v := l.getConfigValue(key, defaultValue)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Config file given by --config.
// 5. Default values (lowest priority).
//
// fs may be nil, in which case only the environment and defaults apply.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	l := &loader{flags: fs}

	envFile, configFile := ".env", ""
	if fs != nil {
		if f := fs.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	// Missing .env is fine; variables already in the environment win.
	_ = godotenv.Load(envFile)

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "CONFIG")
	}
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
		l.file = v
	}

	cfg := &Config{
		App: AppConfig{
			Environment: l.getConfigValue("env", "development"),
		},
		Logger: LoggerConfig{
			Level: l.getConfigValue("log.level", "info"),
		},
		Library: LibraryConfig{
			SourcePath:   l.getConfigValue("source", "BoothDownloaderOut"),
			OutputPath:   l.getConfigValue("output", "dist"),
			OutputFile:   l.getConfigValue("output.file", "asset_library.html"),
			DataPath:     l.getConfigValue("data", ""),
			TemplatePath: l.getConfigValue("template", ""),
			I18nPath:     l.getConfigValue("i18n", ""),
			KeywordsPath: l.getConfigValue("keywords", ""),
		},
		Translate: TranslateConfig{
			Enabled:      l.getBoolConfigValue("translate.enabled", true),
			Backend:      l.getConfigValue("translate.backend", "google"),
			Endpoint:     l.getConfigValue("translate.endpoint", ""),
			Model:        l.getConfigValue("translate.model", "qwen2.5:7b"),
			SourceLang:   l.getConfigValue("translate.source", "ja"),
			TargetLang:   l.getConfigValue("translate.target", "en"),
			Workers:      l.getIntConfigValue("translate.workers", 5),
			RatePerSec:   l.getFloatConfigValue("translate.rate", 5),
			Tags:         l.getBoolConfigValue("translate.tags", true),
			Descriptions: l.getBoolConfigValue("translate.descriptions", false),
		},
		Thumbnail: ThumbnailConfig{
			Enabled: l.getBoolConfigValue("thumbnail.enabled", true),
			Size:    l.getIntConfigValue("thumbnail.size", 320),
			Quality: l.getIntConfigValue("thumbnail.quality", 82),
			Workers: l.getIntConfigValue("thumbnail.workers", 4),
		},
		Relations: RelationsConfig{
			Enabled:        l.getBoolConfigValue("relations.enabled", true),
			MinFragmentLen: l.getIntConfigValue("relations.min-fragment", 3),
			BodyModelsPath: l.getConfigValue("relations.body-models", ""),
		},
		Search: SearchConfig{
			Enabled: l.getBoolConfigValue("search.enabled", true),
		},
		Server: ServerConfig{
			Port: l.getConfigValue("port", "8080"),
		},
		Publish: PublishConfig{
			Endpoint:  l.getConfigValue("publish.endpoint", ""),
			AccessKey: l.getConfigValue("publish.access-key", ""),
			SecretKey: l.getConfigValue("publish.secret-key", ""),
			Bucket:    l.getConfigValue("publish.bucket", ""),
			Region:    l.getConfigValue("publish.region", ""),
			Prefix:    l.getConfigValue("publish.prefix", ""),
			UseSSL:    l.getBoolConfigValue("publish.ssl", true),
		},
	}

	var err error
	if cfg.Translate.Timeout, err = l.getDurationConfigValue("translate.timeout", "20s"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = l.getDurationConfigValue("read-timeout", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = l.getDurationConfigValue("write-timeout", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = l.getDurationConfigValue("idle-timeout", "60s"); err != nil {
		return nil, err
	}
	if cfg.Watch.SettleDelay, err = l.getDurationConfigValue("watch.settle", "2s"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return err
	}
	if c.Library.OutputPath == c.Library.SourcePath {
		return errors.New("output path must differ from source path")
	}
	if c.Translate.Backend == "ollama" && c.Translate.Model == "" {
		return errors.New("translate model is required for the ollama backend")
	}
	if c.Translate.RatePerSec < 0 {
		return errors.New("translate rate cannot be negative")
	}
	return nil
}

// ValidatePublish checks the settings only the publish command needs.
func (c *Config) ValidatePublish() error {
	var missing []string
	if c.Publish.Endpoint == "" {
		missing = append(missing, "publish.endpoint")
	}
	if c.Publish.Bucket == "" {
		missing = append(missing, "publish.bucket")
	}
	if c.Publish.AccessKey == "" || c.Publish.SecretKey == "" {
		missing = append(missing, "publish.access-key/publish.secret-key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing publish settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// OutputFilePath is the absolute path of the generated HTML page.
func (c *Config) OutputFilePath() string {
	return filepath.Join(c.Library.OutputPath, c.Library.OutputFile)
}

func (c *Config) expandPaths() error {
	var err error
	if c.Library.SourcePath, err = expandPath(c.Library.SourcePath, ""); err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}
	if c.Library.OutputPath, err = expandPath(c.Library.OutputPath, ""); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	defaultData := filepath.Join(filepath.Dir(c.Library.OutputPath), ".asset-library")
	if c.Library.DataPath, err = expandPath(c.Library.DataPath, defaultData); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	for _, p := range []*string{&c.Library.TemplatePath, &c.Library.I18nPath, &c.Library.KeywordsPath, &c.Relations.BodyModelsPath} {
		if *p, err = expandPath(*p, ""); err != nil {
			return err
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}
