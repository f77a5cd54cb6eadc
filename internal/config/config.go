package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/greenland/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Interval              int        `mapstructure:"interval"`
	CommandTimeout        int        `mapstructure:"command_timeout"`
	LogLevel              string     `mapstructure:"log_level"`
	Strict                bool       `mapstructure:"strict"`
	ThresholdMode         string     `mapstructure:"threshold_mode"`
	PerformanceWorkspaces []string   `mapstructure:"performance_workspaces"`
	Thresholds            Thresholds `mapstructure:"thresholds"`
	Queries               Queries    `mapstructure:"queries"`
	Actions               Actions    `mapstructure:"actions"`
	Metrics               Metrics    `mapstructure:"metrics"`

	v           *viper.Viper
	levelPinned bool
}

// Thresholds are idle durations in seconds. The windows pair applies while
// the active workspace has at least one window, the empty pair otherwise.
type Thresholds struct {
	WindowsWarning   int `mapstructure:"windows_warning"`
	WindowsHibernate int `mapstructure:"windows_hibernate"`
	EmptyWarning     int `mapstructure:"empty_warning"`
	EmptyHibernate   int `mapstructure:"empty_hibernate"`
}

type Queries struct {
	Backend   string `mapstructure:"backend"`
	Workspace string `mapstructure:"workspace"`
	Windows   string `mapstructure:"windows"`
	Cursor    string `mapstructure:"cursor"`
}

type Actions struct {
	Governor        string `mapstructure:"governor"`
	GovernorCommand string `mapstructure:"governor_command"`
	Notify          string `mapstructure:"notify"`
	NotifyCommand   string `mapstructure:"notify_command"`
	Suspend         string `mapstructure:"suspend"`
	SuspendCommand  string `mapstructure:"suspend_command"`
}

type Metrics struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

// Load reads configuration from defaults, the TOML config file, GREENLAND_*
// environment variables and command line flags, in increasing precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envPrefix: defaultEnvPrefix,
		args:      os.Args[1:],
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	flags := newFlagSet()
	if err := flags.Parse(o.args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if err := bindFlags(v, flags); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, configPath(o, flags)); err != nil {
		return nil, err
	}

	config := &Config{v: v}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	// Apply debug and verbose flags
	if debug, _ := flags.GetBool("debug"); debug {
		config.LogLevel = LogLevelDebug.String()
		config.levelPinned = true
	} else if verbose, _ := flags.GetBool("verbose"); verbose {
		config.LogLevel = LogLevelInfo.String()
		config.levelPinned = true
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("greenland", pflag.ContinueOnError)

	flags.StringP("config", "c", "", "Path to configuration file")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Int("interval", DefaultInterval, "Seconds between ticks")
	flags.Int("command-timeout", DefaultCommandTimeout, "Seconds before a query or action is killed")
	flags.Bool("strict", false, "Exit on the first failed query instead of substituting defaults")
	flags.String("threshold-mode", DefaultThresholdMode, "Idle threshold comparison (reached, exact)")
	flags.StringSlice("performance-workspaces", DefaultPerformanceWorkspaces(), "Workspaces that select the performance governor")
	flags.Bool("metrics", false, "Record every tick to the metrics database")
	flags.String("metrics-db", DefaultMetricsDBPath, "Path to the metrics database")

	return flags
}

var flagKeys = map[string]string{
	"log-level":              "log_level",
	"interval":               "interval",
	"command-timeout":        "command_timeout",
	"strict":                 "strict",
	"threshold-mode":         "threshold_mode",
	"performance-workspaces": "performance_workspaces",
	"metrics":                "metrics.enabled",
	"metrics-db":             "metrics.db_path",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func configPath(o *options, flags *pflag.FlagSet) string {
	if o.configPath != "" {
		return o.configPath
	}
	if path, _ := flags.GetString("config"); path != "" {
		return path
	}
	return os.Getenv(configPathEnv)
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(defaultConfigName)
	v.AddConfigPath(defaultConfigDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks ranges and enumerations of every setting.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.CommandTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidTimeout, c.CommandTimeout)
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.ThresholdMode != ModeExact && c.ThresholdMode != ModeReached {
		return errFactory.WithData(errors.ErrInvalidMode, c.ThresholdMode)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}

	if c.Queries.Backend != BackendHyprctl && c.Queries.Backend != BackendCommand {
		return errFactory.WithData(errors.ErrInvalidBackend, "queries.backend="+c.Queries.Backend)
	}
	if c.Actions.Governor != BackendCommand && c.Actions.Governor != BackendSysfs {
		return errFactory.WithData(errors.ErrInvalidBackend, "actions.governor="+c.Actions.Governor)
	}
	if c.Actions.Notify != BackendCommand && c.Actions.Notify != BackendDBus {
		return errFactory.WithData(errors.ErrInvalidBackend, "actions.notify="+c.Actions.Notify)
	}
	if c.Actions.Suspend != BackendCommand && c.Actions.Suspend != BackendDBus {
		return errFactory.WithData(errors.ErrInvalidBackend, "actions.suspend="+c.Actions.Suspend)
	}

	if c.Metrics.Enabled && c.Metrics.DBPath == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "metrics enabled without db_path")
	}

	return nil
}

// minWarningLead is the shortest warning-to-hibernate gap, so the warning
// always announces at least one minute.
const minWarningLead = 60

// Validate requires each warning to come at least a minute before its
// hibernate threshold.
func (t Thresholds) Validate() error {
	errFactory := errors.New()

	if t.WindowsWarning <= 0 || t.WindowsHibernate-t.WindowsWarning < minWarningLead {
		return errFactory.WithData(errors.ErrInvalidThreshold, struct {
			Warning   int
			Hibernate int
		}{t.WindowsWarning, t.WindowsHibernate})
	}
	if t.EmptyWarning <= 0 || t.EmptyHibernate-t.EmptyWarning < minWarningLead {
		return errFactory.WithData(errors.ErrInvalidThreshold, struct {
			Warning   int
			Hibernate int
		}{t.EmptyWarning, t.EmptyHibernate})
	}

	return nil
}

func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func (c *Config) CommandTimeoutDuration() time.Duration {
	return time.Duration(c.CommandTimeout) * time.Second
}
