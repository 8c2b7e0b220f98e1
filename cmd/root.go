/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/config"
	"github.com/allbin/mcp2serial/internal/dispatch"
)

// version is set at build time with -ldflags "-X github.com/allbin/mcp2serial/cmd.version=..."
var version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcp2serial",
	Short: "Expose serial device commands as MCP tools",
	Long: `mcp2serial bridges an AI client speaking the Model Context Protocol to a
device on a serial port (Arduino, Raspberry Pi Pico, ...).

Each command in the YAML configuration becomes one MCP tool. A tool call
fills the command template, writes it to the port and returns the device's
reply once the response sentinel line arrives.

The configuration is looked up by name: "Pico" resolves to Pico_config.yaml
in the working directory, the user config directory and /etc/mcp2serial.
Without a name config.yaml is used.

Flags can also be set from the environment with the MCP2SERIAL_ prefix,
e.g. MCP2SERIAL_CONFIG=Pico or MCP2SERIAL_LOG_LEVEL=debug.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration name or path (default: config.yaml)")
	rootCmd.PersistentFlags().StringP("port", "p", "", "Serial port, overrides the configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	for _, name := range []string{"config", "port", "log-level"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("MCP2SERIAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// newLogger returns a text logger writing to w at --log-level. Commands log
// to stderr; stdout is reserved for the MCP transport.
func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves and loads the configuration, applying --port.
func loadConfig() (*config.Config, error) {
	path, err := config.Resolve(viper.GetString("config"), config.SearchDirs())
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if port := viper.GetString("port"); port != "" {
		cfg = cfg.WithPort(port)
	}
	return cfg, nil
}

// bridgeStack is everything a command needs to run tools.
type bridgeStack struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	conn       *bridge.Connection
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
}

// newBridgeStack loads the configuration and wires the connection, the
// catalog and the dispatcher. The connection is not opened.
func newBridgeStack(logger *slog.Logger) (*bridgeStack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(cfg.Commands)
	if err != nil {
		return nil, err
	}
	conn := bridge.New(cfg.Serial, bridge.WithLogger(logger))
	return &bridgeStack{
		cfg:        cfg,
		catalog:    cat,
		conn:       conn,
		dispatcher: dispatch.New(cfg, cat, conn, dispatch.WithLogger(logger)),
		log:        logger,
	}, nil
}

// fatal prints err the way every command reports failures and exits.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
