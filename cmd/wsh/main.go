// Command wsh is the terminal client for wshd: it creates, lists, kills,
// renames, and attaches to sessions hosted by a running daemon (spec.md §1).
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/dcosson/wshd/internal/socketdir"
)

var output = termenv.NewOutput(os.Stdout)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wsh",
		Short: "Create, list, and attach to wshd sessions",
	}
	cmd.AddCommand(
		newCreateCmd(),
		newLsCmd(),
		newKillCmd(),
		newRenameCmd(),
		newAttachCmd(),
	)
	return cmd
}

func dialControl() (*client, error) {
	return dial(socketdir.Path(socketdir.TypeControl, "hub"))
}

// colorizeStatus tints a session's lifecycle status for `wsh ls`, degrading
// to plain text when stdout isn't a color-capable terminal (termenv probes
// COLORTERM/TERM/NO_COLOR the same way the teacher's status line does).
func colorizeStatus(status string) string {
	s := termenv.String(status)
	switch status {
	case "running":
		s = s.Foreground(output.Color("2"))
	case "quiescent":
		s = s.Foreground(output.Color("3"))
	case "exited":
		s = s.Foreground(output.Color("1"))
	}
	return s.String()
}

func newCreateCmd() *cobra.Command {
	var cols, rows int
	var attach bool
	cmd := &cobra.Command{
		Use:   "create <name> [command] [args...]",
		Short: "Create a new session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			command := os.Getenv("SHELL")
			if command == "" {
				command = "/bin/sh"
			}
			var cmdArgs []string
			if len(args) > 1 {
				command = args[1]
				cmdArgs = args[2:]
			}

			c, err := dialControl()
			if err != nil {
				return err
			}
			defer c.Close()

			params := map[string]any{
				"name": name, "command": command, "args": cmdArgs,
				"cols": cols, "rows": rows,
			}
			if _, err := c.call("create_session", params); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created session %q\n", name)
			if attach {
				return attachSession(name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cols, "cols", 0, "initial terminal width (default from config)")
	cmd.Flags().IntVar(&rows, "rows", 0, "initial terminal height (default from config)")
	cmd.Flags().BoolVarP(&attach, "attach", "a", false, "attach to the session immediately")
	return cmd
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dialControl()
			if err != nil {
				return err
			}
			defer c.Close()
			result, err := c.call("list_sessions", struct{}{})
			if err != nil {
				return err
			}
			var sessions []map[string]any
			if err := json.Unmarshal(result, &sessions); err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(os.Stdout, "%s\t%vx%v\tidle=%v\t%s\n",
					s["name"], s["cols"], s["rows"], s["idle"], colorizeStatus(fmt.Sprint(s["status"])))
			}
			return nil
		},
	}
}

func newKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <name>",
		Short: "Kill a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dialControl()
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = c.call("kill_session", map[string]any{"name": args[0]})
			return err
		},
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-name> <new-name>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dialControl()
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = c.call("rename_session", map[string]any{"name": args[0], "new_name": args[1]})
			return err
		},
	}
}

func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <name>",
		Short: "Attach to a session's live terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return attachSession(args[0])
		},
	}
}
