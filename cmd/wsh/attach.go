package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/dcosson/wshd/internal/socketdir"
)

// attachSession dials name's session socket, puts the local terminal into
// raw mode, and relays stdin/resize/clipboard between it and the daemon
// until the session exits or the client is interrupted.
func attachSession(name string) error {
	path, err := socketdir.Find(name)
	if err != nil {
		return fmt.Errorf("attach %s: %w", name, err)
	}
	c, err := dial(path)
	if err != nil {
		return err
	}
	defer c.Close()

	stdinFd := int(os.Stdin.Fd())
	raw := isatty.IsTerminal(uintptr(stdinFd))
	var restore *term.State
	if raw {
		restore, err = term.MakeRaw(stdinFd)
		if err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		defer term.Restore(stdinFd, restore)
	}

	if err := syncSize(c, stdinFd); err != nil {
		return err
	}

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		for range winch {
			syncSize(c, stdinFd)
		}
	}()

	if err := repaint(c); err != nil {
		return err
	}

	stdinDone := make(chan struct{})
	go func() {
		defer close(stdinDone)
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				c.send("send_input", map[string]any{"data": string(data)})
			}
			if err != nil {
				return
			}
		}
	}()

	for ev := range c.Events {
		switch ev.Kind {
		case "screen_delta":
			if err := repaint(c); err != nil {
				return err
			}
		case "clipboard":
			var payload struct {
				Data []byte `json:"data"`
			}
			if json.Unmarshal(ev.Payload, &payload) == nil {
				osc52.New(string(payload.Data)).WriteTo(os.Stdout)
			}
		case "title_changed":
			var payload struct {
				Title string `json:"title"`
			}
			if json.Unmarshal(ev.Payload, &payload) == nil {
				fmt.Fprintf(os.Stdout, "\033]0;%s\007", payload.Title)
			}
		case "session_destroyed":
			return nil
		}
	}
	return nil
}

func syncSize(c *client, stdinFd int) error {
	cols, rows, err := term.GetSize(stdinFd)
	if err != nil {
		return nil
	}
	_, err = c.call("resize", map[string]any{"cols": cols, "rows": rows})
	return err
}

func repaint(c *client) error {
	result, err := c.call("get_screen", struct{}{})
	if err != nil {
		return err
	}
	var screen struct {
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal(result, &screen); err != nil {
		return err
	}
	w := bufio.NewWriter(os.Stdout)
	w.WriteString("\033[H\033[2J")
	for _, line := range screen.Lines {
		w.WriteString(line)
		w.WriteString("\r\n")
	}
	return w.Flush()
}
