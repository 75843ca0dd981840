package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultBaseURL, config.BaseURL)
	assert.Equal(t, StoreFiles, config.Store)
	assert.Equal(t, constants.DefaultPageSize, config.PageSize)
	assert.Equal(t, constants.DefaultPageStep, config.PageStep)
	assert.Equal(t, "replace", config.ReconcileStrategy)
	assert.Equal(t, constants.DefaultRequestTimeout, config.RequestTimeout)
	assert.Equal(t, "auto", config.LogFormat)
	assert.True(t, filepath.IsAbs(config.DataDir), "home is expanded")
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BASE_URL", "http://localhost:9999")
	t.Setenv("STORE", "LevelDB")
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("RECONCILE_STRATEGY", "merge")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", config.BaseURL)
	assert.Equal(t, StoreLevelDB, config.Store)
	assert.Equal(t, 5, config.PageSize)
	assert.Equal(t, 3*time.Second, config.RequestTimeout)
	assert.Equal(t, "merge", config.ReconcileStrategy)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: memory\npage_step: 3\nimage_cache_size: 10\n"), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, config.Store)
	assert.Equal(t, 3, config.PageStep)
	assert.Equal(t, 10, config.ImageCacheSize)
	assert.Equal(t, path, config.ConfigFile)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	var configErr *errors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Store: StoreMemory, PageSize: 7, PageStep: 7}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store = "redis" }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"negative page step", func(c *Config) { c.PageStep = -7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			assert.True(t, errors.IsValidationError(c.Validate()))
		})
	}
}

func TestUpdateFromFlags(t *testing.T) {
	c := &Config{Format: "yaml", LogLevel: "warn"}
	c.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "warn", c.LogLevel)

	c.UpdateFromFlags(false, false, false, "json", "debug")
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".storefront"), expandHome("~/.storefront"))
	assert.Equal(t, "/var/lib/storefront", expandHome("/var/lib/storefront"))
}
