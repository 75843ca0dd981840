// Package settings persists small user preferences such as the layout style.
package settings

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// Well-known keys.
const (
	KeyLayout = "layout_style"
)

// Store is a string key-value preference store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Exists(key string) bool
}

var (
	_ Store = (*File)(nil)
	_ Store = (*Memory)(nil)
)

// File stores preferences in a YAML file through viper.
type File struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// NewFile opens the settings file at path, creating its directory if needed.
// A missing file starts empty.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", path, "settings path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("settings", "failed to read "+path, err)
		}
	}
	return &File{path: path, v: v}, nil
}

// Get returns the value for key.
func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.v.IsSet(key) {
		return "", false
	}
	return f.v.GetString(key), true
}

// Set stores value under key and writes the file.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.v.Set(key, value)
	if err := f.v.WriteConfigAs(f.path); err != nil {
		return errors.WrapIO("write", f.path, err)
	}
	return nil
}

// Exists reports whether key has a value.
func (f *File) Exists(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v.IsSet(key)
}

// Memory keeps preferences for the life of the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value for key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Exists reports whether key has a value.
func (m *Memory) Exists(key string) bool {
	_, ok := m.Get(key)
	return ok
}
