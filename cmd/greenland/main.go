package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/greenland/internal/action"
	"codeberg.org/mutker/greenland/internal/config"
	"codeberg.org/mutker/greenland/internal/daemon"
	"codeberg.org/mutker/greenland/internal/errors"
	"codeberg.org/mutker/greenland/internal/governor"
	"codeberg.org/mutker/greenland/internal/logger"
	"codeberg.org/mutker/greenland/internal/metrics"
	"codeberg.org/mutker/greenland/internal/pid"
	"codeberg.org/mutker/greenland/internal/query"
	"codeberg.org/mutker/greenland/internal/session"
	"codeberg.org/mutker/greenland/internal/shell"
	"github.com/spf13/pflag"
)

var (
	cfg     *config.Config
	pidPath string
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := checkPrivileges(); err != nil {
		fatal(err, "Refusing to start without root privileges")
	}

	pidPath = pid.DefaultPath()
	if err := pid.Write(pidPath); err != nil {
		fatal(err, "Another instance is running or the PID file is not writable")
	}

	collector, err := metrics.NewService(metrics.Config{
		DBPath:       cfg.Metrics.DBPath,
		BatchSize:    cfg.Metrics.BatchSize,
		BatchTimeout: cfg.Metrics.BatchTimeout,
		Enabled:      cfg.Metrics.Enabled,
	}, logger.Default())
	if err != nil {
		removePID()
		fatal(err, "Failed to initialize metrics")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.WatchLogLevel(reloadLogLevel) {
		logger.Debug().Msg("Watching config file for log level changes")
	}

	exec := shell.New(cfg.CommandTimeoutDuration())
	source := newSource(exec)

	// In-flight actions are bounded by the command timeout, not by shutdown.
	dispatcher := action.NewDispatcher(context.Background(), cfg.CommandTimeoutDuration(), logger.Default(),
		newGovernor(exec), newNotifier(exec), newSuspender(exec))

	selector := governor.NewSelector(source, dispatcher,
		governor.NewPolicy(cfg.PerformanceWorkspaces), cfg.Strict, logger.Default())

	d := daemon.New(daemon.Config{
		Interval: cfg.IntervalDuration(),
		Strict:   cfg.Strict,
		Policy:   sessionPolicy(),
	}, source, selector, dispatcher, collector, logger.Default())

	runErr := d.Run(ctx)
	cleanup(dispatcher, collector)

	if runErr != nil {
		fatal(runErr, "Error in main loop")
	}
}

func checkPrivileges() error {
	if os.Geteuid() == 0 {
		return nil
	}
	if cfg.Strict {
		return errors.New().New(errors.ErrNotPrivileged)
	}
	logger.Warn().Msg("Not running as root; governor and suspend actions will probably fail")
	return nil
}

func sessionPolicy() session.Policy {
	mode, _ := session.ParseMode(cfg.ThresholdMode)
	return session.Policy{
		Windows: session.Thresholds{
			Warning:   uint32(cfg.Thresholds.WindowsWarning),
			Hibernate: uint32(cfg.Thresholds.WindowsHibernate),
		},
		Empty: session.Thresholds{
			Warning:   uint32(cfg.Thresholds.EmptyWarning),
			Hibernate: uint32(cfg.Thresholds.EmptyHibernate),
		},
		Mode: mode,
	}
}

func newSource(exec *shell.Executor) query.Source {
	if cfg.Queries.Backend == config.BackendCommand {
		return query.NewCommandSource(exec, query.Expressions{
			Workspace: cfg.Queries.Workspace,
			Windows:   cfg.Queries.Windows,
			Cursor:    cfg.Queries.Cursor,
		})
	}
	return query.NewHyprctlSource(exec)
}

func newGovernor(exec *shell.Executor) action.GovernorSetter {
	if cfg.Actions.Governor == config.BackendSysfs {
		return action.NewSysfsGovernor(action.DefaultGovernorGlob)
	}
	return action.NewCommandGovernor(exec, cfg.Actions.GovernorCommand)
}

func newNotifier(exec *shell.Executor) action.Notifier {
	if cfg.Actions.Notify == config.BackendDBus {
		return action.NewDBusNotifier()
	}
	return action.NewCommandNotifier(exec, cfg.Actions.NotifyCommand)
}

func newSuspender(exec *shell.Executor) action.Suspender {
	if cfg.Actions.Suspend == config.BackendDBus {
		return action.NewDBusSuspender()
	}
	return action.NewCommandSuspender(exec, cfg.Actions.SuspendCommand)
}

func reloadLogLevel(level config.LogLevel) {
	parsed, _ := logger.ParseLevel(level.String())
	logger.SetLogLevel(parsed)
	logger.Info().Str("level", level.String()).Msg("Log level changed")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(dispatcher *action.Dispatcher, collector metrics.Collector) {
	dispatcher.Wait()
	if err := collector.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close metrics")
	}
	removePID()
	logger.Info().Msg("Exiting...")
}

func removePID() {
	if err := pid.Remove(pidPath); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
}

func fatal(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.FatalWithCode(appErr).Msg(msg)
	}
	logger.Fatal().Err(err).Msg(msg)
}
