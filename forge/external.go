package forge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"appforge"
)

// retryBaseDelay is the first retry delay; it doubles per attempt.
const retryBaseDelay = 500 * time.Millisecond

// runExternal runs one external collaborator step with a per-attempt
// timeout and a bounded retry policy. Package installation and database
// migration are opaque blocking processes and the steps most likely to
// hang or fail transiently. A step with an empty argv is disabled.
func (r *Runner) runExternal(ctx context.Context, name string, argv []string) error {
	if len(argv) == 0 {
		return nil
	}
	var lastErr error
	delay := retryBaseDelay
	for attempt := 0; attempt <= r.cfg.CommandRetries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("retrying external command", "step", name, "attempt", attempt, "err", lastErr)
			select {
			case <-ctx.Done():
				return appforge.NewCommandError(name, argv, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.CommandTimeout)
		err := r.cfg.Exec(attemptCtx, r.Target(), argv)
		cancel()
		if err == nil {
			r.logger.Info("external command succeeded", "step", name)
			return nil
		}
		lastErr = err
	}
	return appforge.NewCommandError(name, argv, lastErr)
}

// execCommand is the default ExecFunc: run the process in dir and inspect
// only its exit status, folding captured output into the error for the
// operator.
func execCommand(ctx context.Context, dir string, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}
