/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/dispatch"
)

// callCmd represents the call command
var callCmd = &cobra.Command{
	Use:   "call <tool> [key=value...]",
	Short: "Call one tool and print the device's reply",
	Long: `Invoke a configured tool once, exactly as an MCP client would, and print
the response.

Arguments are given as key=value pairs. Values are converted to the
parameter's type (number, integer, boolean) before validation, so a call
that the MCP server would reject is rejected here too, before anything is
written to the port.

Example usage:
  mcp2serial call read_temp
  mcp2serial call set_pwm frequency=50
  mcp2serial call servo pin=3 angle=90 --config Pico --json`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")

		stack, err := newBridgeStack(newLogger(os.Stderr))
		if err != nil {
			fatal(err)
		}

		tool, ok := stack.catalog.Lookup(args[0])
		if !ok {
			fatal(fmt.Errorf("%w: %q (see 'mcp2serial tools')", catalog.ErrUnknownTool, args[0]))
		}
		params, err := dispatch.ParseAssignments(tool, args[1:])
		if err != nil {
			fatal(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
		if !asJSON {
			fmt.Println(infoStyle.Render(fmt.Sprintf("📤 %s %s", tool.Name, formatParams(args[1:]))))
		}

		start := time.Now()
		items, err := stack.dispatcher.Invoke(ctx, tool.Name, params)
		port := stack.conn.Port()
		stack.conn.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render("✗ "+err.Error()))
			os.Exit(1)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(items); err != nil {
				fatal(err)
			}
			return
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("✓ %s in %s", port, time.Since(start).Round(time.Millisecond))))
		for _, item := range items {
			fmt.Println(item.Text)
		}
	},
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().Bool("json", false, "Print the response items as JSON")
}

func formatParams(words []string) string {
	return strings.Join(words, " ")
}
