package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrDeviceMonitored indicates another process already monitors the device.
var ErrDeviceMonitored = errors.New("device is already monitored by another process")

// ErrDeviceLockUnsupported indicates the current platform has no lock backend implementation.
var ErrDeviceLockUnsupported = errors.New("device lock unsupported")

// DeviceLock is held for as long as a process monitors one device, so two
// monitors never alarm for the same sensor.
type DeviceLock interface {
	Release() error
}

// AcquireDeviceLock takes the per-user lock for deviceKey, typically the
// device host:port.
func AcquireDeviceLock(appID, deviceKey string) (DeviceLock, error) {
	return acquireDeviceLock(
		normalizeLockComponent(appID, "app"),
		normalizeLockComponent(deviceKey, "device"),
	)
}

func normalizeLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	normalized := strings.Trim(b.String(), "_-.")
	if normalized == "" {
		return fallback
	}

	return normalized
}

// fileLocker is the OS specific part of a lock file.
type fileLocker struct {
	tryLock   func(*os.File) error
	unlock    func(*os.File) error
	contended func(error) bool
}

type fileDeviceLock struct {
	file   *os.File
	unlock func(*os.File) error
}

func acquireFileLock(path string, locker fileLocker) (DeviceLock, error) {
	// #nosec G304 -- path is built from per-user runtime or temp directories.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open device lock file: %w", err)
	}

	if err := locker.tryLock(file); err != nil {
		owner := readLockOwner(file)
		_ = file.Close()
		if locker.contended(err) {
			return nil, monitoredError(owner)
		}

		return nil, fmt.Errorf("acquire device file lock: %w", err)
	}

	if err := writeLockOwner(file, os.Getpid()); err != nil {
		_ = locker.unlock(file)
		_ = file.Close()

		return nil, err
	}

	return &fileDeviceLock{file: file, unlock: locker.unlock}, nil
}

// Release clears the owner record and drops the lock. Calling it again is a no-op.
func (l *fileDeviceLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	_ = l.file.Truncate(0)
	unlockErr := l.unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil

	return errors.Join(unlockErr, closeErr)
}

func deviceLockPath(dir, deviceKey string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create device lock dir: %w", err)
	}

	return filepath.Join(dir, "device-"+deviceKey+".lock"), nil
}

// writeLockOwner stores pid in the lock file so a refused monitor can name
// the owner.
func writeLockOwner(file *os.File, pid int) error {
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate device lock file: %w", err)
	}
	if _, err := file.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		return fmt.Errorf("write device lock owner: %w", err)
	}

	return nil
}

func readLockOwner(file *os.File) int {
	buf := make([]byte, 32)
	n, err := file.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}

	return pid
}

func monitoredError(owner int) error {
	if owner > 0 {
		return fmt.Errorf("%w (pid %d)", ErrDeviceMonitored, owner)
	}

	return ErrDeviceMonitored
}
