package action

import (
	"context"
	"strings"

	"codeberg.org/mutker/greenland/internal/governor"
)

// CommandGovernor runs a template such as "cpupower frequency-set -g {preset}".
type CommandGovernor struct {
	runner   Runner
	template string
}

func NewCommandGovernor(runner Runner, template string) *CommandGovernor {
	return &CommandGovernor{runner: runner, template: template}
}

func (g *CommandGovernor) SetGovernor(ctx context.Context, preset governor.Preset) error {
	return g.runner.Run(ctx, strings.ReplaceAll(g.template, "{preset}", preset.String()))
}

// CommandNotifier runs a template with {message} substituted.
type CommandNotifier struct {
	runner   Runner
	template string
}

func NewCommandNotifier(runner Runner, template string) *CommandNotifier {
	return &CommandNotifier{runner: runner, template: template}
}

func (n *CommandNotifier) Notify(ctx context.Context, message string) error {
	return n.runner.Run(ctx, strings.ReplaceAll(n.template, "{message}", message))
}

// CommandSuspender runs a fixed command such as "systemctl suspend".
type CommandSuspender struct {
	runner  Runner
	command string
}

func NewCommandSuspender(runner Runner, command string) *CommandSuspender {
	return &CommandSuspender{runner: runner, command: command}
}

func (s *CommandSuspender) Suspend(ctx context.Context) error {
	return s.runner.Run(ctx, s.command)
}
