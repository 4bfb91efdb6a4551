package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths stores resolved runtime file locations for user config, history and logs.
type Paths struct {
	RootDir    string
	ConfigFile string
	DBFile     string
	CacheDir   string
	LogFile    string
}

// ResolvePaths places config and history under the user config dir and the
// log file under the user cache dir.
func ResolvePaths() (Paths, error) {
	root, err := appDir("config", os.UserConfigDir)
	if err != nil {
		return Paths{}, err
	}
	cache, err := appDir("cache", os.UserCacheDir)
	if err != nil {
		return Paths{}, err
	}

	return Paths{
		RootDir:    root,
		ConfigFile: filepath.Join(root, ConfigFilename),
		DBFile:     filepath.Join(root, DBFilename),
		CacheDir:   cache,
		LogFile:    filepath.Join(cache, LogFilename),
	}, nil
}

// appDir creates and returns the dripmon directory under the base resolved
// by userDir.
func appDir(kind string, userDir func() (string, error)) (string, error) {
	base, err := userDir()
	if err != nil {
		return "", fmt.Errorf("resolve %s dir: %w", kind, err)
	}
	dir := filepath.Join(base, Name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create app %s dir: %w", kind, err)
	}

	return dir, nil
}

// WithConfigFile points the config at an explicit file, e.g. from a flag.
func (p Paths) WithConfigFile(path string) Paths {
	if path != "" {
		p.ConfigFile = filepath.Clean(path)
	}

	return p
}
