//go:build windows

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// The locked byte lies past the pid record so other processes can still
// read the owner.
const windowsLockOffset = 1 << 20

var lockFileExLocker = fileLocker{
	tryLock: func(f *os.File) error {
		const flags = windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY

		return windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, lockRegion())
	},
	unlock: func(f *os.File) error {
		if err := windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, lockRegion()); err != nil {
			return fmt.Errorf("unlock device file lock: %w", err)
		}

		return nil
	},
	contended: func(err error) bool {
		return errors.Is(err, windows.ERROR_LOCK_VIOLATION)
	},
}

func acquireDeviceLock(appID, deviceKey string) (DeviceLock, error) {
	path, err := deviceLockPath(filepath.Join(os.TempDir(), appID), deviceKey)
	if err != nil {
		return nil, err
	}

	return acquireFileLock(path, lockFileExLocker)
}

func lockRegion() *windows.Overlapped {
	return &windows.Overlapped{Offset: windowsLockOffset}
}
