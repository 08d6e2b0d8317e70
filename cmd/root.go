/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/allbin/serialcon"
	"github.com/allbin/serialcon/internal/relay"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd relays the terminal to the first serial device that opens
var rootCmd = &cobra.Command{
	Use:   "serialcon [flags] tty ...",
	Short: "Connect the terminal to one of several serial devices",
	Long: `Connect the terminal to the first of the given serial devices that can be
opened and relay bytes in both directions. When the device disappears (USB
adapter unplugged, board reset) the next device in the list is tried, over
and over, until one is back.

While connected, the escape character (default ~) followed by:
  .   quits
  n   closes the current device and switches to the next one
Type the escape character twice to send it to the device.

Example usage:
  serialcon /dev/ttyUSB0 /dev/ttyUSB1
  serialcon -b 9600 /dev/ttyACM0
  serialcon -l session.log -a -T /dev/ttyUSB0
  serialcon -t 5ms /dev/ttyS0
  serialcon --auto`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRelay(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/serialcon/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug diagnostics to stderr")

	rootCmd.Flags().IntP("baud", "b", 115200, "Baud rate")
	rootCmd.Flags().StringP("escape", "e", "~", "Escape character, literal or caret notation (^])")
	rootCmd.Flags().StringP("log", "l", "", "Write a transcript of device output to this file")
	rootCmd.Flags().BoolP("append", "a", false, "Append to the transcript instead of truncating it")
	rootCmd.Flags().BoolP("timestamp", "T", false, "Prefix transcript lines with a timestamp")
	rootCmd.Flags().DurationP("delay", "t", 0, "Delay between characters sent to the device")
	rootCmd.Flags().Duration("poll", 100*time.Millisecond, "Readiness wait interval")
	rootCmd.Flags().Bool("auto", false, "Use every serial port under /dev when no tty is given")

	setDefaults(viper.GetViper())
	viper.BindPFlags(rootCmd.PersistentFlags())
	viper.BindPFlags(rootCmd.Flags())
}

func runRelay(args []string) error {
	log := newLogger(viper.GetBool("verbose"))
	defer log.Sync()

	opts, err := optionsFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	config, err := serialcon.NewConfig(opts...)
	if err != nil {
		return err
	}

	devices, err := resolveDevices(args, viper.GetViper(), serialcon.ListPorts)
	if err != nil {
		return err
	}

	printBanner(os.Stderr, devices, config)

	console, err := serialcon.OpenConsole(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer func() {
		if err := console.Restore(); err != nil {
			log.Warn("failed to restore terminal", zap.Error(err))
		}
	}()

	session, err := relay.NewSession(config, devices, console.Fd(), os.Stdout, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	err = session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

func printBanner(w io.Writer, devices []string, config serialcon.Config) {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	esc := escapeName(config.EscapeChar)
	fmt.Fprintf(w, "%s %s at %d bps\n", infoStyle.Render("⚡"), strings.Join(devices, ", "), config.BaudRate)
	fmt.Fprintf(w, "%s %s. quits, %sn switches device\n", infoStyle.Render("⌨"), esc, esc)
	if config.LogFile != "" {
		fmt.Fprintf(w, "%s Transcript: %s\n", infoStyle.Render("📋"), config.LogFile)
	}
}

// escapeName renders an escape character the way it is typed
func escapeName(b byte) string {
	switch {
	case b == 0x7f:
		return "^?"
	case b < ' ':
		return "^" + string(rune(b+'@'))
	default:
		return string(rune(b))
	}
}
