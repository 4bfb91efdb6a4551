//go:build unix && !windows

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var flockLocker = fileLocker{
	tryLock: func(f *os.File) error {
		return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	},
	unlock: func(f *os.File) error {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil && !errors.Is(err, unix.EBADF) {
			return fmt.Errorf("unlock device file lock: %w", err)
		}

		return nil
	},
	contended: func(err error) bool {
		return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
	},
}

func acquireDeviceLock(appID, deviceKey string) (DeviceLock, error) {
	path, err := unixDeviceLockPath(appID, deviceKey)
	if err != nil {
		return nil, err
	}

	return acquireFileLock(path, flockLocker)
}

// unixDeviceLockPath prefers $XDG_RUNTIME_DIR and falls back to a per-uid
// directory under the system temp dir.
func unixDeviceLockPath(appID, deviceKey string) (string, error) {
	dir := filepath.Join(os.TempDir(), appID+"-"+strconv.Itoa(os.Getuid()))
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		dir = filepath.Join(runtimeDir, appID)
	}

	return deviceLockPath(dir, deviceKey)
}
