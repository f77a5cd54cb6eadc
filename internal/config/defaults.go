package config

const (
	DefaultInterval       = 1
	DefaultCommandTimeout = 5
	DefaultLogLevel       = "warning"
	DefaultThresholdMode  = ModeReached

	DefaultWindowsWarning   = 1500
	DefaultWindowsHibernate = 1800
	DefaultEmptyWarning     = 300
	DefaultEmptyHibernate   = 600

	DefaultWorkspaceQuery = "hyprctl activeworkspace -j | jq -r .id"
	DefaultWindowsQuery   = "hyprctl activeworkspace -j | jq -r .windows"
	DefaultCursorQuery    = "hyprctl cursorpos"

	DefaultGovernorCommand = "cpupower frequency-set -g {preset}"
	DefaultNotifyCommand   = `hyprctl dispatch exec 'notify-send -u critical -a "Greenland" "{message}"'`
	DefaultSuspendCommand  = "systemctl suspend"

	DefaultMetricsDBPath       = "/var/lib/greenland/metrics.db"
	DefaultMetricsBatchSize    = 60
	DefaultMetricsBatchTimeout = 30

	defaultConfigName = "greenland"
	defaultConfigDir  = "/etc"
	defaultEnvPrefix  = "GREENLAND"
	configPathEnv     = "GREENLAND_CONFIG"
)

// DefaultPerformanceWorkspaces are the workspaces that select the performance governor.
func DefaultPerformanceWorkspaces() []string {
	return []string{"1", "3", "4"}
}

var defaults = map[string]any{
	"interval":                     DefaultInterval,
	"command_timeout":              DefaultCommandTimeout,
	"log_level":                    DefaultLogLevel,
	"strict":                       false,
	"threshold_mode":               DefaultThresholdMode,
	"performance_workspaces":       DefaultPerformanceWorkspaces(),
	"thresholds.windows_warning":   DefaultWindowsWarning,
	"thresholds.windows_hibernate": DefaultWindowsHibernate,
	"thresholds.empty_warning":     DefaultEmptyWarning,
	"thresholds.empty_hibernate":   DefaultEmptyHibernate,
	"queries.backend":              BackendHyprctl,
	"queries.workspace":            DefaultWorkspaceQuery,
	"queries.windows":              DefaultWindowsQuery,
	"queries.cursor":               DefaultCursorQuery,
	"actions.governor":             BackendCommand,
	"actions.governor_command":     DefaultGovernorCommand,
	"actions.notify":               BackendCommand,
	"actions.notify_command":       DefaultNotifyCommand,
	"actions.suspend":              BackendCommand,
	"actions.suspend_command":      DefaultSuspendCommand,
	"metrics.enabled":              false,
	"metrics.db_path":              DefaultMetricsDBPath,
	"metrics.batch_size":           DefaultMetricsBatchSize,
	"metrics.batch_timeout":        DefaultMetricsBatchTimeout,
}
