package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"codeberg.org/mutker/greenland/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenland.pid")

	require.NoError(t, Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteRefusesLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenland.pid")
	// The parent of the test binary is alive for the whole test.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := Write(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenland.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid\n"), 0o600))

	require.NoError(t, Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestWriteIsRepeatableForSameProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenland.pid")

	require.NoError(t, Write(path))
	require.NoError(t, Write(path))
}

func TestRemoveLeavesForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenland.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o600))

	require.NoError(t, Remove(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRemoveMissingFile(t *testing.T) {
	assert.NoError(t, Remove(filepath.Join(t.TempDir(), "missing.pid")))
}
