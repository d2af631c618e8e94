package session

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// ExitCode derives the session_destroyed exit_code field from the error
// returned by (*exec.Cmd).Wait: 0 for a clean exit, the process's exit code,
// or the signal number that terminated it (spec.md §6 "session_destroyed
// {name, exit_code?}"; §8 scenario 5 "exit_code:15 or signal").
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return -1
}

// FormatIdleDuration formats a duration into a compact human-readable string
// for get_session/list_sessions responses.
func FormatIdleDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("%ds", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
