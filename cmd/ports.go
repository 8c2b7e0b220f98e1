/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/mcp2serial"
)

// portsCmd represents the ports command
var portsCmd = &cobra.Command{
	Use:   "ports [port]",
	Short: "List serial ports or show details for one",
	Long: `List the serial ports auto-detection would consider, in probe order.

Scanned device families:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*), e.g. Pico and Arduino boards
- SoC UARTs (ttyAMA*, ttymxc*, ttyO*, ttySAC*, ttyTHS*)
- Standard serial ports (ttyS*)

Virtual terminals and pseudo-terminals are excluded. With a port argument
the port's USB metadata (vendor, product, serial number, bus) is shown.

Example usage:
  mcp2serial ports
  mcp2serial ports --filter usb --table
  mcp2serial ports /dev/ttyACM0`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			renderPortInfo(args[0])
			return
		}

		ports, err := serial.Candidates()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ports = filterPorts(ports, filterType)
		if len(ports) == 0 {
			if filterType != "" && filterType != "all" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderPortTable(ports)
			return
		}
		for _, p := range ports {
			fmt.Println(p)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)

	portsCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, soc, all")
	portsCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// portKind classifies a device name for filtering.
func portKind(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"), strings.HasPrefix(name, "ttyACM"):
		return "usb"
	case strings.HasPrefix(name, "ttyS") && !strings.HasPrefix(name, "ttySAC"):
		return "standard"
	default:
		return "soc"
	}
}

// filterPorts keeps the ports of the given kind
func filterPorts(ports []string, filterType string) []string {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, p := range ports {
		name := p[strings.LastIndex(p, "/")+1:]
		if portKind(name) == filterType {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// renderPortTable renders ports with their USB identity
func renderPortTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	const (
		portWidth   = 14
		idWidth     = 11
		serialWidth = 18
	)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))
	cellStyle := lipgloss.NewStyle().PaddingRight(2)

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %s",
		portWidth, "Port",
		idWidth, "VID:PID",
		serialWidth, "Serial",
		"Description")))

	for _, p := range ports {
		info, err := serial.GetPortInfo(p)
		if err != nil {
			fmt.Println(cellStyle.Render(fmt.Sprintf("%-*s %s", portWidth, p, errStyle.Render(err.Error()))))
			continue
		}
		id := "-"
		if info.IsUSB() {
			id = info.VendorID + ":" + info.ProductID
		}
		sn := info.SerialNumber
		if sn == "" {
			sn = "-"
		}
		fmt.Println(cellStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %s",
			portWidth, info.Name,
			idWidth, id,
			serialWidth, sn,
			info.Description)))
	}
}

// renderPortInfo prints everything known about one port
func renderPortInfo(portPath string) {
	info, err := serial.GetPortInfo(portPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(headingStyle.Render("Port Information: " + info.Path))
	fmt.Printf("  Name:        %s\n", info.Name)
	fmt.Printf("  Description: %s\n", info.Description)
	fmt.Printf("  Mode:        %s\n", info.Mode)
	if err := checkDevice(portPath); err != nil {
		fmt.Printf("  Access:      %s\n", errStyle.Render(err.Error()))
	} else {
		fmt.Printf("  Access:      %s\n", okStyle.Render("read/write"))
	}

	if !info.IsUSB() {
		return
	}
	fmt.Println("\nUSB Device Information:")
	fields := []struct{ label, value string }{
		{"Vendor ID:   ", info.VendorID},
		{"Product ID:  ", info.ProductID},
		{"Serial:      ", info.SerialNumber},
		{"Interface:   ", info.InterfaceNumber},
		{"Bus:         ", info.BusNumber},
		{"Device:      ", info.DeviceNumber},
		{"Manufacturer:", info.Manufacturer},
		{"Product:     ", info.Product},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Printf("  %s %s\n", f.label, f.value)
		}
	}
}
