/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/config"
	"github.com/allbin/mcp2serial/internal/mcpserver"
)

const maxListedPrompts = 3

// toolsCmd represents the tools command
var toolsCmd = &cobra.Command{
	Use:   "tools [name]",
	Short: "List the MCP tools built from the configuration",
	Long: `Show what an MCP client will see: the server name, the serial settings
and every tool with its parameters and example prompts.

With a tool name only that tool is shown. --json prints the tool
descriptors exactly as they are derived from the configuration.

Example usage:
  mcp2serial tools
  mcp2serial tools set_pwm
  mcp2serial tools --config Pico --json`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}
		cat, err := catalog.New(cfg.Commands)
		if err != nil {
			fatal(err)
		}

		tools := cat.Tools()
		if len(args) == 1 {
			tool, ok := cat.Lookup(args[0])
			if !ok {
				fatal(fmt.Errorf("%w: %q", catalog.ErrUnknownTool, args[0]))
			}
			tools = []catalog.ToolDescriptor{tool}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			var v any = tools
			if len(args) == 1 {
				v = tools[0]
			}
			if err := enc.Encode(v); err != nil {
				fatal(err)
			}
			return
		}

		if len(args) == 0 {
			renderServerInfo(cfg)
		}
		if len(tools) == 0 {
			fmt.Println("No tools configured.")
			fmt.Printf("Add commands to %s, for example:\n\n", cfg.Path)
			fmt.Println("  commands:")
			fmt.Println("    set_pwm:")
			fmt.Println(`      command: "PWM {frequency}"`)
			fmt.Println("      description: Set the PWM frequency")
			return
		}
		for _, t := range tools {
			renderTool(cfg, t)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)

	toolsCmd.Flags().Bool("json", false, "Print tool descriptors as JSON")
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	toolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func renderServerInfo(cfg *config.Config) {
	s := cfg.Serial
	port := s.Port
	if s.Autodetect() {
		port = "auto-detect"
	}

	fmt.Println(headingStyle.Render(fmt.Sprintf("⚡ %s %s", mcpserver.Name, version)))
	fmt.Printf("  %s %s\n", labelStyle.Render("Config:      "), cfg.Path)
	fmt.Printf("  %s %s\n", labelStyle.Render("Port:        "), port)
	fmt.Printf("  %s %d %s, flow control %s\n", labelStyle.Render("Baud rate:   "), s.BaudRate, s.Framing(), s.FlowControl)
	fmt.Printf("  %s %s write, %s read\n", labelStyle.Render("Timeouts:    "), s.Timeout, s.ReadTimeout)
	fmt.Printf("  %s %q\n", labelStyle.Render("Sentinel:    "), s.ResponseStartString)
	if s.Handshake != "" {
		fmt.Printf("  %s %q → %q\n", labelStyle.Render("Handshake:   "), s.Handshake, s.HandshakeResponse)
	}
	if s.CommandInterval > 0 {
		fmt.Printf("  %s %s\n", labelStyle.Render("Interval:    "), s.CommandInterval)
	}
	fmt.Println()
}

func renderTool(cfg *config.Config, t catalog.ToolDescriptor) {
	fmt.Println(toolStyle.Render("📋 " + t.Name))
	fmt.Printf("  %s\n", t.Description)
	fmt.Printf("  %s %s\n", labelStyle.Render("Command:"), t.Command)
	if spec, ok := cfg.Commands.Get(t.Name); ok && spec.NeedParse {
		fmt.Printf("  %s value after %q\n", labelStyle.Render("Returns:"), cfg.Serial.ParseSeparator)
	}

	if len(t.Parameters) > 0 {
		fmt.Printf("  %s\n", labelStyle.Render("Parameters:"))
		for _, p := range t.Parameters {
			line := fmt.Sprintf("    %s (%s)", p.Name, p.Type)
			if p.Description != "" {
				line += " " + p.Description
			}
			fmt.Println(line)
		}
	}

	if len(t.Prompts) > 0 {
		fmt.Printf("  %s\n", labelStyle.Render("Examples:"))
		prompts := t.Prompts
		if len(prompts) > maxListedPrompts {
			prompts = prompts[:maxListedPrompts]
		}
		for _, p := range prompts {
			fmt.Printf("    - %s\n", strings.TrimSpace(p))
		}
	}
	fmt.Println()
}
