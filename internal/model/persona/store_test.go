package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreDefaultsToFirstItem(t *testing.T) {
	store := NewMemoryStore(Seed())

	got := store.Default()
	assert.Equal(t, DefaultID, got.ID)
	assert.Contains(t, got.OpeningLine, "I'm Mait")
}

func TestMemoryStoreWithDefault(t *testing.T) {
	items := append(Seed(), Persona{ID: "alt", OpeningLine: "hey"})
	store := NewMemoryStore(items).WithDefault("alt")
	assert.Equal(t, "alt", store.Default().ID)

	store.WithDefault("missing")
	assert.Equal(t, "alt", store.Default().ID)
}

func TestMemoryStoreEmptyFallsBackToSeed(t *testing.T) {
	store := NewMemoryStore(nil)
	assert.Equal(t, DefaultID, store.Default().ID)

	_, ok := store.FindByID(DefaultID)
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `personas:
  - id: nova
    name: Nova
    opening_line: Hello from Nova.
    traits: [calm, precise]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	items, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nova", items[0].Name)
	assert.Equal(t, "Hello from Nova.", items[0].OpeningLine)
	assert.Equal(t, []string{"calm", "precise"}, items[0].Traits)
}

func TestLoadFileRejectsMissingGreeting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("personas:\n  - id: nova\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening_line")
}
