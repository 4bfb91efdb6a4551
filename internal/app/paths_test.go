package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	configHome := filepath.Join(t.TempDir(), "cfg")
	cacheHome := filepath.Join(t.TempDir(), "cache")
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	paths, err := ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, Paths{
		RootDir:    filepath.Join(configHome, Name),
		ConfigFile: filepath.Join(configHome, Name, ConfigFilename),
		DBFile:     filepath.Join(configHome, Name, DBFilename),
		CacheDir:   filepath.Join(cacheHome, Name),
		LogFile:    filepath.Join(cacheHome, Name, LogFilename),
	}, paths)
	assert.DirExists(t, paths.RootDir)
	assert.DirExists(t, paths.CacheDir)
}

func TestPathsWithConfigFile(t *testing.T) {
	base := Paths{ConfigFile: "/home/nurse/.config/dripmon/config.yaml"}

	assert.Equal(t, base.ConfigFile, base.WithConfigFile("").ConfigFile)
	assert.Equal(t, "ward3.yaml", base.WithConfigFile("./ward3/../ward3.yaml").ConfigFile)
}
