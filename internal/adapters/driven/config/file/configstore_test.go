package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStorePersistence(t *testing.T) {
	dir := t.TempDir()

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	s.Set("embedding.provider", "openai")
	s.Set("embedding.model", "text-embedding-3-small")
	s.Set("search.limit", int64(25))
	s.Set("search.min_relevance", 0.5)
	require.NoError(t, s.Save())

	// Reopen and verify the values survived the round-trip.
	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai", reopened.GetString("embedding.provider"))
	assert.Equal(t, 25, reopened.GetInt("search.limit"))
	assert.Equal(t, 0.5, reopened.GetFloat("search.min_relevance"))
}

func TestConfigStoreNestedTables(t *testing.T) {
	dir := t.TempDir()

	content := `
[embedding]
provider = "ollama"
model = "nomic-embed-text"

[scoring]
semantic = 0.35
keyword = 0.25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", s.GetString("embedding.provider"))
	assert.Equal(t, 0.35, s.GetFloat("scoring.semantic"))
	assert.Equal(t, 0.25, s.GetFloat("scoring.keyword"))
}

func TestConfigStoreDefaults(t *testing.T) {
	s, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, s.GetString("missing"))
	assert.Zero(t, s.GetInt("missing"))
	assert.Zero(t, s.GetFloat("missing"))
	assert.False(t, s.GetBool("missing"))

	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestConfigStoreSaveWritesNestedToml(t *testing.T) {
	dir := t.TempDir()

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	s.Set("embedding.provider", "openai")
	require.NoError(t, s.Save())

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.Contains(t, string(data), "provider")
	assert.Contains(t, string(data), "openai")
}
