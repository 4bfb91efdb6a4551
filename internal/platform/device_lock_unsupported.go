//go:build !unix && !windows

package platform

import "runtime"

func acquireDeviceLock(string, string) (DeviceLock, error) {
	return nil, &unsupportedError{goos: runtime.GOOS}
}

type unsupportedError struct {
	goos string
}

func (e *unsupportedError) Error() string {
	return ErrDeviceLockUnsupported.Error() + " on " + e.goos
}

func (e *unsupportedError) Unwrap() error {
	return ErrDeviceLockUnsupported
}
