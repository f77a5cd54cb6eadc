// Package pid guards against two daemons driving the same session.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/greenland/internal/errors"
)

const (
	pidFile = "greenland.pid"
	runDir  = "/run"
	writeOK = 0x2 // access(2) W_OK
)

// DefaultPath prefers /run when it is writable and falls back to the temp dir.
func DefaultPath() string {
	if err := syscall.Access(runDir, writeOK); err == nil {
		return filepath.Join(runDir, pidFile)
	}
	return filepath.Join(os.TempDir(), pidFile)
}

// Write records the current process ID at path. It fails with
// ErrAlreadyRunning when the file names another live process; a stale or
// unreadable file is replaced.
func Write(path string) error {
	errFactory := errors.New()

	if owner, ok := readOwner(path); ok && owner != os.Getpid() && alive(owner) {
		return errFactory.WithData(errors.ErrAlreadyRunning, owner)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove deletes the PID file if it still belongs to this process.
func Remove(path string) error {
	errFactory := errors.New()

	owner, ok := readOwner(path)
	if !ok || owner != os.Getpid() {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func readOwner(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
