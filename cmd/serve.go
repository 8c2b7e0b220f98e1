/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/allbin/mcp2serial/internal/mcpserver"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured commands as MCP tools over stdio",
	Long: `Start the MCP server on stdin/stdout.

The serial port is opened at startup. If that fails the server still
starts and each tool call retries the connection, so the device can be
plugged in later. Logs are written to stderr.

Register it with an MCP client, e.g.:

  {
    "mcpServers": {
      "mcp2serial": {
        "command": "mcp2serial",
        "args": ["serve", "--config", "Pico"]
      }
    }
  }

Example usage:
  mcp2serial serve
  mcp2serial serve --config Pico --port /dev/ttyACM0
  MCP2SERIAL_LOG_LEVEL=debug mcp2serial serve --no-connect`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		noConnect, _ := cmd.Flags().GetBool("no-connect")

		stack, err := newBridgeStack(newLogger(os.Stderr))
		if err != nil {
			fatal(err)
		}
		defer stack.conn.Close()
		log := stack.log

		if term.IsTerminal(int(os.Stdin.Fd())) {
			log.Warn("stdin is a terminal; serve expects an MCP client on stdin/stdout")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("starting",
			"version", version,
			"config", stack.cfg.Path,
			"tools", stack.catalog.Len(),
		)
		if !noConnect {
			if ok, err := stack.conn.Connect(ctx); err != nil || !ok {
				if err == nil {
					err = stack.conn.LastError()
				}
				log.Warn("serial device not connected, will retry on first tool call", "error", err)
			}
		}

		srv := mcpserver.New(stack.dispatcher, version, log)
		if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			stack.conn.Close()
			fatal(err)
		}
		log.Info("shutting down")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-connect", false, "Do not open the serial port until the first tool call")
}
