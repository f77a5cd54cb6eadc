package query_test

import (
	"context"
	"fmt"
	"testing"

	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor answers expressions from a fixed table.
type fakeExecutor struct {
	outputs map[string]string
	calls   []string
}

func (f *fakeExecutor) Execute(_ context.Context, expr string) (string, error) {
	f.calls = append(f.calls, expr)
	out, ok := f.outputs[expr]
	if !ok {
		return "", fmt.Errorf("no result for %q", expr)
	}
	return out, nil
}

var exprs = query.Expressions{
	Workspace: "ws",
	Windows:   "win",
	Cursor:    "cur",
}

func TestCommandSource(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"ws":  "3",
		"win": "2",
		"cur": "10, 10",
	}}
	src := query.NewCommandSource(exec, exprs)
	ctx := context.Background()

	id, err := src.ActiveWorkspace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", id)

	count, err := src.WindowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pos, err := src.CursorPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10, 10", pos)
}

func TestCommandSourceFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		outputs map[string]string
		call    func(*query.CommandSource) error
		code    errors.ErrorCode
	}{
		{
			name:    "workspace no result",
			outputs: map[string]string{},
			call: func(s *query.CommandSource) error {
				_, err := s.ActiveWorkspace(ctx)
				return err
			},
			code: query.ErrWorkspaceFailed,
		},
		{
			name:    "workspace null",
			outputs: map[string]string{"ws": "null"},
			call: func(s *query.CommandSource) error {
				_, err := s.ActiveWorkspace(ctx)
				return err
			},
			code: query.ErrMalformed,
		},
		{
			name:    "windows not a number",
			outputs: map[string]string{"win": "many"},
			call: func(s *query.CommandSource) error {
				_, err := s.WindowCount(ctx)
				return err
			},
			code: query.ErrWindowsFailed,
		},
		{
			name:    "cursor no result",
			outputs: map[string]string{},
			call: func(s *query.CommandSource) error {
				_, err := s.CursorPosition(ctx)
				return err
			},
			code: query.ErrCursorFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := query.NewCommandSource(&fakeExecutor{outputs: tt.outputs}, exprs)
			err := tt.call(src)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCommandSourceEmptyCursorIsAReading(t *testing.T) {
	src := query.NewCommandSource(&fakeExecutor{outputs: map[string]string{"cur": ""}}, exprs)

	pos, err := src.CursorPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", pos)
}

func TestHyprctlSource(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"hyprctl activeworkspace -j": `{"id": 4, "name": "4", "monitor": "DP-1", "windows": 0, "hasfullscreen": false}`,
		"hyprctl cursorpos":          "1280, 720",
	}}
	src := query.NewHyprctlSource(exec)
	ctx := context.Background()

	id, err := src.ActiveWorkspace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4", id)

	count, err := src.WindowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	pos, err := src.CursorPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1280, 720", pos)
}

func TestHyprctlSourceMalformed(t *testing.T) {
	ctx := context.Background()

	src := query.NewHyprctlSource(&fakeExecutor{outputs: map[string]string{
		"hyprctl activeworkspace -j": `{"name": "special"}`,
	}})
	_, err := src.ActiveWorkspace(ctx)
	assert.True(t, errors.HasCode(err, query.ErrWorkspaceFailed))
	_, err = src.WindowCount(ctx)
	assert.True(t, errors.HasCode(err, query.ErrWindowsFailed))

	src = query.NewHyprctlSource(&fakeExecutor{outputs: map[string]string{
		"hyprctl activeworkspace -j": `HyprCtl error`,
	}})
	_, err = src.ActiveWorkspace(ctx)
	assert.True(t, errors.HasCode(err, query.ErrMalformed))
}

func TestHyprctlSourceRejectsBadCursor(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"empty", ""},
		{"error text", "HyprCtl error: no instance"},
		{"single number", "1280"},
		{"not numbers", "a, b"},
		{"trailing garbage", "1280, 720px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := query.NewHyprctlSource(&fakeExecutor{outputs: map[string]string{
				"hyprctl cursorpos": tt.out,
			}})

			pos, err := src.CursorPosition(context.Background())
			require.Error(t, err)
			assert.Empty(t, pos)
			assert.True(t, errors.HasCode(err, query.ErrCursorFailed))
			assert.True(t, errors.HasCode(err, query.ErrMalformed))
		})
	}
}

func TestHyprctlSourceNegativeCursor(t *testing.T) {
	src := query.NewHyprctlSource(&fakeExecutor{outputs: map[string]string{
		"hyprctl cursorpos": "-1920, 0",
	}})

	pos, err := src.CursorPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-1920, 0", pos)
}
