/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/mcp2serial"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [port]",
	Short: "Reset a USB serial device",
	Long: `Perform a USB-level reset on a serial device. This can recover boards
whose firmware has wedged the USB serial interface without physically
unplugging them.

Without arguments the port from the configuration (or --port) is reset.
The device will re-enumerate after reset, which may cause the port path
to change (e.g., /dev/ttyACM0 might become /dev/ttyACM1). Use serial
numbers to reliably identify devices after reset, or leave the port out
of the configuration so auto-detection finds it again.

Requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo mcp2serial reset /dev/ttyACM0      # Reset by port path
  sudo mcp2serial reset --config Pico     # Reset the configured port
  sudo mcp2serial reset --serial E6614C3  # Reset by serial number`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		if serialFlag != "" && len(args) > 0 {
			return errors.New("cannot specify both port path and --serial flag")
		}
		return cobra.MaximumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if !serial.IsUSBResetAvailable() {
			fmt.Fprintln(os.Stderr, "Error: usbreset utility not available")
			fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		serialFlag, _ := cmd.Flags().GetString("serial")

		var err error
		if serialFlag != "" {
			fmt.Printf("Resetting USB device with serial: %s\n", serialFlag)
			err = serial.ResetUSBDeviceBySerial(ctx, serialFlag)
		} else {
			portPath, perr := resetTarget(args)
			if perr != nil {
				fatal(perr)
			}
			fmt.Printf("Resetting USB device: %s\n", portPath)
			err = serial.ResetUSBDevice(ctx, portPath)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
				fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
			}
			os.Exit(1)
		}

		fmt.Println(okStyle.Render("✓ USB device reset successfully"))
		fmt.Println("Device will re-enumerate (port path may change)")
		fmt.Println("\nUse 'mcp2serial ports --table' to see updated device list")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("serial", "s", "", "Reset device by serial number")
}

// resetTarget picks the port to reset: the argument, else --port, else the
// configured port.
func resetTarget(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if port := viper.GetString("port"); port != "" {
		return port, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Serial.Autodetect() {
		return "", errors.New("no port given and the configuration uses auto-detection; pass a port or --serial")
	}
	return cfg.Serial.Port, nil
}
