package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchLogLevel calls fn with the new log level whenever the config file in
// use is rewritten with a valid, different level. Other keys need a restart.
// It reports false when there is nothing to watch: no file was read, or
// --debug/--verbose fixed the level.
func (c *Config) WatchLogLevel(fn func(level LogLevel)) bool {
	if c.v == nil || c.levelPinned || c.v.ConfigFileUsed() == "" {
		return false
	}

	current := LogLevel(c.LogLevel)
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		level := LogLevel(strings.ToLower(c.v.GetString("log_level")))
		if !level.IsValid() || level == current {
			return
		}
		current = level
		fn(level)
	})
	c.v.WatchConfig()

	return true
}
