package shell_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTrimsOneNewline(t *testing.T) {
	sh := shell.New(time.Second)

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"single line", "echo 1", "1"},
		{"no newline", "printf 1", "1"},
		{"two newlines keep one", `printf '1\n\n'`, "1\n"},
		{"cursor position", "echo 1280, 720", "1280, 720"},
		{"empty output", "true", ""},
		{"failing pipeline still yields output", "echo 3; exit 2", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := sh.Execute(context.Background(), tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestExecuteNoResult(t *testing.T) {
	sh := shell.New(time.Second)

	_, err := sh.Execute(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, shell.ErrNoResult))

	_, err = sh.Execute(context.Background(), `printf '\377\376'`)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, shell.ErrNoResult))
}

func TestExecuteTimeout(t *testing.T) {
	sh := shell.New(50 * time.Millisecond)

	start := time.Now()
	_, err := sh.Execute(context.Background(), "sleep 5")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, shell.ErrTimeout))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRun(t *testing.T) {
	sh := shell.New(time.Second)

	require.NoError(t, sh.Run(context.Background(), "true"))

	err := sh.Run(context.Background(), "echo nope >&2; exit 3")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, shell.ErrCommandFailed))
	assert.Contains(t, err.Error(), "nope")

	err = sh.Run(context.Background(), "")
	assert.True(t, errors.HasCode(err, shell.ErrCommandFailed))
}
