// Package notify delivers fire-and-forget notifications when a decision
// needs human attention. Delivery failures are logged and otherwise ignored.
package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// commandTimeout bounds a single notification command run.
const commandTimeout = 10 * time.Second

// Notifier sends a notification to the human reviewer.
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(context.Context, string, string) {}

// CommandNotifier runs a configured command with the title and body as
// arguments (e.g. notify-send, osascript, a sound player wrapper).
type CommandNotifier struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewCommandNotifier creates a notifier that shells out to command.
// Extra args are passed before the title and body.
func NewCommandNotifier(command string, args []string, logger *slog.Logger) *CommandNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandNotifier{command: command, args: args, logger: logger}
}

// Notify runs the command with title and body appended to the argument list.
// Errors are logged, never returned.
func (n *CommandNotifier) Notify(ctx context.Context, title, body string) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	args := append(append([]string{}, n.args...), title, body)
	cmd := exec.CommandContext(ctx, n.command, args...)
	if err := cmd.Run(); err != nil {
		n.logger.Warn("notification command failed",
			"command", n.command,
			"error", err,
		)
	}
}
