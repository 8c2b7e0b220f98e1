/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/allbin/mcp2serial/internal/tui/models"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console for calling tools by hand",
	Long: `Open a terminal UI for trying the configured tools against the device.

The left pane lists the tools, the right pane is a transcript of every call
and reply. Type calls as "<tool> key=value ..." on the input line; calls go
through the same validation and connection handling as the MCP server.

Keys (normal mode):
  i        type a call          j/k   select a tool
  p/enter  use selected tool    r     connect
  c        clear transcript     g/G   transcript top/bottom
  ?        help                 q     quit

Keys (insert mode):
  enter    call                 tab   complete tool name
  ↑/↓      history              esc   normal mode

Logs would garble the screen, so they are discarded unless --log-file is
given.

Example usage:
  mcp2serial console --config Pico
  mcp2serial console --port /dev/ttyACM0 --log-file console.log`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logFile, _ := cmd.Flags().GetString("log-file")

		var logOut io.Writer = io.Discard
		if logFile != "" {
			f, err := tea.LogToFile(logFile, "")
			if err != nil {
				fatal(fmt.Errorf("open log file: %w", err))
			}
			defer f.Close()
			logOut = f
		}

		stack, err := newBridgeStack(newLogger(logOut))
		if err != nil {
			fatal(err)
		}
		defer stack.conn.Close()

		if err := runConsole(stack); err != nil {
			stack.conn.Close()
			fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().String("log-file", "", "Write logs to this file")
}

func runConsole(stack *bridgeStack) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := models.NewConsole(ctx, stack.dispatcher, stack.conn, stack.cfg.Serial)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
