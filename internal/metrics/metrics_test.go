package metrics

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/greenland/internal/config"
	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	return logger.New(io.Discard, logger.DebugLevel)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBPath:       filepath.Join(t.TempDir(), "state", "metrics.db"),
		BatchSize:    2,
		BatchTimeout: 0,
		Enabled:      true,
	}
}

func snapshot(idle uint32, outcome string) *Snapshot {
	return &Snapshot{
		Timestamp: time.Unix(1700000000, 0),
		Workspace: WorkspaceMetrics{ID: "3", Preset: "performance", Windows: -1},
		Idle:      IdleMetrics{Seconds: idle, Moved: outcome == "moved", Outcome: outcome},
	}
}

func countTicks(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&n))
	return n
}

func TestConfigValidate(t *testing.T) {
	defaults := Config{
		DBPath:       config.DefaultMetricsDBPath,
		BatchSize:    config.DefaultMetricsBatchSize,
		BatchTimeout: config.DefaultMetricsBatchTimeout,
	}
	assert.NoError(t, defaults.Validate())
	defaults.Enabled = true
	assert.NoError(t, defaults.Validate())
	assert.NoError(t, Config{Enabled: false}.Validate())

	err := Config{Enabled: true}.Validate()
	assert.True(t, errors.HasCode(err, ErrInvalidDBPath))

	err = Config{Enabled: true, DBPath: "x.db", BatchSize: -1}.Validate()
	assert.True(t, errors.HasCode(err, ErrInvalidConfig))
}

func TestNewServiceDisabledIsNoop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Enabled = false

	collector, err := NewService(cfg, testLogger())
	require.NoError(t, err)

	assert.NoError(t, collector.Record(context.Background(), snapshot(1, "idle")))
	assert.NoError(t, collector.Close())

	_, statErr := os.Stat(cfg.DBPath)
	assert.True(t, os.IsNotExist(statErr), "disabled metrics must not create a database")
}

func TestRecordFlushesByBatchSize(t *testing.T) {
	cfg := testConfig(t)

	collector, err := NewService(cfg, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, collector.Record(ctx, snapshot(1, "moved")))
	assert.Equal(t, 0, countTicks(t, cfg.DBPath))

	require.NoError(t, collector.Record(ctx, snapshot(2, "idle")))
	assert.Equal(t, 2, countTicks(t, cfg.DBPath))

	require.NoError(t, collector.Record(ctx, snapshot(3, "idle")))
	require.NoError(t, collector.Close())
	assert.Equal(t, 3, countTicks(t, cfg.DBPath), "close writes the partial batch")
}

func TestRecordStoresColumns(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	collector, err := NewService(cfg, testLogger())
	require.NoError(t, err)

	s := snapshot(300, "warn")
	s.Workspace = WorkspaceMetrics{ID: "7", Preset: "powersave", Windows: 0}
	s.QueryFailures = 1
	require.NoError(t, collector.Record(context.Background(), s))
	require.NoError(t, collector.Close())

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var (
		ts                   int64
		workspace, preset    string
		windows, idle, moved int
		outcome              string
		failures             int
	)
	err = db.QueryRow(`SELECT timestamp, workspace, preset, windows, idle_seconds, moved, outcome, query_failures FROM ticks`).
		Scan(&ts, &workspace, &preset, &windows, &idle, &moved, &outcome, &failures)
	require.NoError(t, err)

	assert.Equal(t, int64(1700000000), ts)
	assert.Equal(t, "7", workspace)
	assert.Equal(t, "powersave", preset)
	assert.Equal(t, 0, windows)
	assert.Equal(t, 300, idle)
	assert.Equal(t, 0, moved)
	assert.Equal(t, "warn", outcome)
	assert.Equal(t, 1, failures)
}

func TestRecordRejectsNil(t *testing.T) {
	collector, err := NewService(testConfig(t), testLogger())
	require.NoError(t, err)
	defer collector.Close()

	err = collector.Record(context.Background(), nil)
	assert.True(t, errors.HasCode(err, ErrInvalidMetrics))
}

func TestRecordCanceledContext(t *testing.T) {
	collector, err := NewService(testConfig(t), testLogger())
	require.NoError(t, err)
	defer collector.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = collector.Record(ctx, snapshot(1, "idle"))
	assert.True(t, errors.HasCode(err, ErrOperationTimeout))
}

func TestCloseIsIdempotentWithFlusher(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchTimeout = 1

	repo, err := NewRepository(cfg, testLogger())
	require.NoError(t, err)

	require.NoError(t, repo.Record(snapshot(1, "idle")))
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
	assert.Equal(t, 1, countTicks(t, cfg.DBPath))
}

func TestSchemaMismatchBacksUpAndRecreates(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755))

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions (version, applied_at) VALUES (99, datetime('now'));`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewRepository(cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	backups, err := filepath.Glob(filepath.Join(backupDir(cfg.DBPath), "metrics_v99_*.db"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	db, err = sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}
