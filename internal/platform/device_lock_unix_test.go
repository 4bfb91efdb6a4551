//go:build unix && !windows

package platform

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

const lockHolderEnv = "DRIPMON_LOCK_HOLDER_APP"

func TestAcquireDeviceLock_ContentionAndRelease(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	const device = "192.168.194.50:8000"

	held, err := AcquireDeviceLock("dripmon", device)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	refused, err := AcquireDeviceLock("dripmon", device)
	if !errors.Is(err, ErrDeviceMonitored) || refused != nil {
		t.Fatalf("expected refusal, got lock=%v err=%v", refused, err)
	}
	if want := fmt.Sprintf("(pid %d)", os.Getpid()); !strings.HasSuffix(err.Error(), want) {
		t.Fatalf("expected owner %q in %q", want, err.Error())
	}

	if err := held.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := held.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}

	again, err := AcquireDeviceLock("dripmon", device)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	_ = again.Release()
}

func TestAcquireDeviceLock_DevicesAreIndependent(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	bed4, err := AcquireDeviceLock("dripmon", "192.168.194.50:8000")
	if err != nil {
		t.Fatalf("acquire bed 4: %v", err)
	}
	defer func() { _ = bed4.Release() }()

	bed5, err := AcquireDeviceLock("dripmon", "/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("acquire bed 5: %v", err)
	}
	_ = bed5.Release()
}

func TestUnixDeviceLockPath(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	path, err := unixDeviceLockPath("dripmon", "Testing")
	if err != nil {
		t.Fatalf("lock path: %v", err)
	}
	if want := filepath.Join(runtimeDir, "dripmon", "device-Testing.lock"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}

	t.Setenv("XDG_RUNTIME_DIR", "")
	path, err = unixDeviceLockPath("dripmon", "Testing")
	if err != nil {
		t.Fatalf("fallback lock path: %v", err)
	}
	if fragment := "dripmon-" + strconv.Itoa(os.Getuid()); !strings.Contains(path, fragment) {
		t.Fatalf("expected %q in fallback path %q", fragment, path)
	}
}

// A killed monitor must not leave its device locked.
func TestAcquireDeviceLock_ReleasedWhenHolderDies(t *testing.T) {
	if appID := os.Getenv(lockHolderEnv); appID != "" {
		holdLockForever(appID)

		return
	}

	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	appID := "dripmon-holder-" + strconv.Itoa(os.Getpid())
	holder := startLockHolder(t, appID)

	_, err := AcquireDeviceLock(appID, "sensor")
	if !errors.Is(err, ErrDeviceMonitored) {
		t.Fatalf("expected contention with holder, got %v", err)
	}
	if want := fmt.Sprintf("(pid %d)", holder.Process.Pid); !strings.Contains(err.Error(), want) {
		t.Fatalf("expected holder pid in %q", err.Error())
	}

	_ = holder.Process.Kill()
	_ = holder.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for {
		lock, err := AcquireDeviceLock(appID, "sensor")
		if err == nil {
			_ = lock.Release()

			return
		}
		if !errors.Is(err, ErrDeviceMonitored) || time.Now().After(deadline) {
			t.Fatalf("lock not released after holder exit: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func startLockHolder(t *testing.T, appID string) *exec.Cmd {
	t.Helper()

	// #nosec G204 -- re-runs the current test binary.
	cmd := exec.Command(os.Args[0], "-test.run", "^TestAcquireDeviceLock_ReleasedWhenHolderDies$")
	cmd.Env = append(os.Environ(), lockHolderEnv+"="+appID)
	out, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatalf("holder stdout: %v", err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start holder: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	ready := make(chan bool, 1)
	go func() {
		line, _ := bufio.NewReader(out).ReadString('\n')
		ready <- strings.TrimSpace(line) == "locked"
	}()

	select {
	case ok := <-ready:
		if !ok {
			t.Fatalf("holder failed to take the lock")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for holder")
	}

	return cmd
}

func holdLockForever(appID string) {
	if _, err := AcquireDeviceLock(appID, "sensor"); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	_, _ = fmt.Println("locked")
	select {}
}
