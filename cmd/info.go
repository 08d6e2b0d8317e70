/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/allbin/serialcon"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata.

Examples:
  serialcon info /dev/ttyUSB0
  serialcon info /dev/serial/by-id/usb-FTDI_FT232R_USB_UART_A1B2C3-if00-port0

For USB devices, this displays vendor/product IDs, serial numbers, interface
numbers, and other USB-specific metadata extracted from sysfs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := serialcon.GetPortInfo(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}

		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))
		labelStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)

		field := func(label, value string) {
			if value != "" {
				fmt.Printf("  %s %s\n", labelStyle.Render(label+":"), value)
			}
		}

		fmt.Println(titleStyle.Render("Port " + info.Path))
		field("Name", info.Name)
		field("Description", info.Description)

		if info.IsUSB() {
			fmt.Println()
			fmt.Println(titleStyle.Render("USB device"))
			field("Vendor ID", info.VendorID)
			field("Product ID", info.ProductID)
			field("Serial", info.SerialNumber)
			field("Interface", info.InterfaceNumber)
			field("Bus", info.BusNumber)
			field("Device", info.DeviceNumber)
			field("Manufacturer", info.Manufacturer)
			field("Product", info.Product)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
