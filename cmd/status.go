/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/allbin/mcp2serial"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the configuration and the serial device",
	Long: `Check that the configuration loads and that the serial device is usable.

For a configured port the device is checked for presence and read/write
permission. With auto-detection every candidate port is checked in the
order they would be probed. --probe additionally opens the connection
(including the handshake, if configured) and closes it again.

Example usage:
  mcp2serial status
  mcp2serial status --config Pico --probe`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		probe, _ := cmd.Flags().GetBool("probe")

		stack, err := newBridgeStack(newLogger(os.Stderr))
		if err != nil {
			fmt.Println(errStyle.Render("✗ configuration: " + err.Error()))
			os.Exit(1)
		}
		defer stack.conn.Close()

		renderServerInfo(stack.cfg)
		fmt.Printf("%s %d tools\n\n", okStyle.Render("✓ configuration loaded:"), stack.catalog.Len())

		ports := []string{stack.cfg.Serial.Port}
		if stack.cfg.Serial.Autodetect() {
			ports, err = serial.Candidates()
			if err != nil {
				fatal(err)
			}
			if len(ports) == 0 {
				fmt.Println(errStyle.Render("✗ no serial ports found for auto-detection"))
			}
		}

		usable := 0
		for _, p := range ports {
			if err := checkDevice(p); err != nil {
				fmt.Println(errStyle.Render(fmt.Sprintf("✗ %s: %v", p, err)))
				continue
			}
			usable++
			fmt.Println(okStyle.Render(fmt.Sprintf("✓ %s: present, read/write", p)))
		}

		if !probe {
			if usable == 0 {
				os.Exit(1)
			}
			return
		}

		fmt.Println()
		ctx, cancel := context.WithTimeout(context.Background(), stack.cfg.Serial.Timeout*time.Duration(len(ports)+1))
		defer cancel()
		ok, err := stack.conn.Connect(ctx)
		if err == nil && !ok {
			err = stack.conn.LastError()
		}
		if err != nil {
			fmt.Println(errStyle.Render("✗ probe: " + err.Error()))
			stack.conn.Close()
			os.Exit(1)
		}
		fmt.Println(okStyle.Render("✓ probe: connected to " + stack.conn.Port()))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("probe", false, "Open and close the connection")
}

// checkDevice reports whether path is a serial device this process may
// open for reading and writing.
func checkDevice(path string) error {
	if _, err := serial.GetPortInfo(path); err != nil {
		return err
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		if errors.Is(err, unix.EACCES) {
			return fmt.Errorf("%w (add the user to the dialout group)", serial.ErrPermissionDenied)
		}
		return err
	}
	return nil
}
