package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	_, ok := s.Get(KeyLayout)
	assert.False(t, ok)
	assert.False(t, s.Exists(KeyLayout))

	require.NoError(t, s.Set(KeyLayout, "list"))
	v, ok := s.Get(KeyLayout)
	assert.True(t, ok)
	assert.Equal(t, "list", v)
	assert.True(t, s.Exists(KeyLayout))

	require.NoError(t, s.Set(KeyLayout, "grid"))
	v, _ = s.Get(KeyLayout)
	assert.Equal(t, "grid", v)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s, err := NewFile(path)
	require.NoError(t, err)
	testStore(t, s)

	reopened, err := NewFile(path)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyLayout)
	assert.True(t, ok)
	assert.Equal(t, "grid", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "layout_style: grid")
}

func TestFileRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout_style: [unclosed"), 0o644))
	_, err := NewFile(path)
	assert.Error(t, err)
}

func TestFileRequiresPath(t *testing.T) {
	_, err := NewFile("")
	assert.Error(t, err)
}
