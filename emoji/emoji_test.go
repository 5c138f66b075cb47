package emoji

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, ".gitkeep", "kappa.png", "pog.champ.gif")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	m, err := LoadDir(dir, URLPrefix)
	require.NoError(t, err)
	assert.Equal(t, Map{
		"kappa":     "/emojis/kappa.png",
		"pog.champ": "/emojis/pog.champ.gif",
	}, m)
}

func TestLoadYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "kappa.png", "smile.png")
	file := filepath.Join(t.TempDir(), "emojis.yaml")
	require.NoError(t, os.WriteFile(file, []byte("emojis:\n  \":)\": http://x/smile.png\n  kappa: http://cdn/kappa.webp\n"), 0o644))

	m, err := Load(dir, file)
	require.NoError(t, err)
	assert.Equal(t, "http://x/smile.png", m[":)"])
	assert.Equal(t, "http://cdn/kappa.webp", m["kappa"])
	assert.Equal(t, "/emojis/smile.png", m["smile"])
}

func TestLoadMissingDir(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent"), "")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = LoadDir(filepath.Join(t.TempDir(), "absent"), URLPrefix)
	assert.Error(t, err)
}

func TestLoadYAMLErrors(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("emojis: [not, a, map]"), 0o644))
	_, err = LoadYAML(bad)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte(""), 0o644))
	m, err := LoadYAML(empty)
	require.NoError(t, err)
	assert.NotNil(t, m)
}
