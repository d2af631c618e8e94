package session

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

// startPTY launches command/args in a new PTY sized cols x rows, merging
// extraEnv over the daemon's own environment (spec.md §3 "Session launch").
func startPTY(command string, args []string, cols, rows int, extraEnv map[string]string) (*os.File, *exec.Cmd, error) {
	cmd := exec.Command(command, args...)
	if len(extraEnv) > 0 {
		env := make([]string, 0, len(os.Environ())+len(extraEnv))
		for _, e := range os.Environ() {
			key := e
			if idx := strings.IndexByte(e, '='); idx >= 0 {
				key = e[:idx]
			}
			if _, override := extraEnv[key]; !override {
				env = append(env, e)
			}
		}
		for k, v := range extraEnv {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, nil, fmt.Errorf("start command: %w", err)
	}
	return ptm, cmd, nil
}

// resizePTY issues TIOCSWINSZ on the master side, which the kernel turns
// into a SIGWINCH delivered to the child's foreground process group (spec.md
// §4.3 "Panel resize").
func resizePTY(ptm *os.File, cols, rows int) error {
	return pty.Setsize(ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// errPTYWriteTimeout is returned by writePTYTimeout when the child isn't
// draining its stdin and the kernel's PTY buffer is full.
var errPTYWriteTimeout = fmt.Errorf("pty write timed out")

// writePTYTimeout writes to the PTY master with a deadline: if the child is
// hung and not reading, a blocking Write would hang the caller (and, absent
// this, the whole session actor) indefinitely.
func writePTYTimeout(ptm *os.File, p []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := ptm.Write(p)
		ch <- result{n, err}
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-timer.C:
		return 0, errPTYWriteTimeout
	}
}
