package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// Store backends selectable through the "store" key.
const (
	StoreMemory  = "memory"
	StoreFiles   = "files"
	StoreLevelDB = "leveldb"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose  bool
	Quiet    bool
	NoColor  bool
	Format   string
	LogLevel string

	// Config file
	ConfigFile string

	// Remote catalog
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration

	// Local store
	Store             string
	DataDir           string
	PersistTimeout    time.Duration
	ReconcileStrategy string

	// Presentation
	PageSize int
	PageStep int

	// Background work
	ConnectivityInterval time.Duration
	RefreshInterval      time.Duration

	// Image cache
	ImageCacheSize int
	ImageCacheTTL  time.Duration

	// Logging configuration
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (configFile, or ~/.storefront.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".storefront")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "failed to read config file", err)
		}
	}

	config := &Config{
		Verbose:  v.GetBool("verbose"),
		Quiet:    v.GetBool("quiet"),
		NoColor:  v.GetBool("no-color"),
		Format:   v.GetString("format"),
		LogLevel: v.GetString("log_level"),

		ConfigFile: v.ConfigFileUsed(),

		BaseURL:        v.GetString("base_url"),
		APIKey:         v.GetString("api_key"),
		RequestTimeout: v.GetDuration("request_timeout"),

		Store:             strings.ToLower(v.GetString("store")),
		DataDir:           expandHome(v.GetString("data_dir")),
		PersistTimeout:    v.GetDuration("persist_timeout"),
		ReconcileStrategy: v.GetString("reconcile_strategy"),

		PageSize: v.GetInt("page_size"),
		PageStep: v.GetInt("page_step"),

		ConnectivityInterval: v.GetDuration("connectivity_interval"),
		RefreshInterval:      v.GetDuration("refresh_interval"),

		ImageCacheSize: v.GetInt("image_cache_size"),
		ImageCacheTTL:  v.GetDuration("image_cache_ttl"),

		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFiles, StoreLevelDB:
	default:
		return errors.NewValidationError("store", c.Store, "must be memory, files or leveldb")
	}
	if c.PageSize <= 0 {
		return errors.NewValidationError("page_size", c.PageSize, "must be positive")
	}
	if c.PageStep <= 0 {
		return errors.NewValidationError("page_step", c.PageStep, "must be positive")
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", constants.DefaultBaseURL)
	v.SetDefault("request_timeout", constants.DefaultRequestTimeout)
	v.SetDefault("store", StoreFiles)
	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("persist_timeout", constants.DefaultPersistTimeout)
	v.SetDefault("reconcile_strategy", "replace")
	v.SetDefault("page_size", constants.DefaultPageSize)
	v.SetDefault("page_step", constants.DefaultPageStep)
	v.SetDefault("connectivity_interval", constants.DefaultConnectivityInterval)
	v.SetDefault("refresh_interval", constants.DefaultRefreshInterval)
	v.SetDefault("image_cache_size", constants.ImageCacheCapacity)
	v.SetDefault("image_cache_ttl", constants.ImageCacheTTL)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first since godotenv never overrides a set variable.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
