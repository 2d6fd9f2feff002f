package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swbot",
	Short: "Switchbot BLE control tool",
	Long: `Controls Switchbot bots and curtains over Bluetooth Low Energy.

Each invocation connects to one device, sends one command and disconnects:

- press, on, off       bot commands
- open, close, pause   curtain commands

Devices are addressed by MAC address or by an alias from the config file.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("swbot %s (commit %s, built %s)\n", formatVersion(version), commit, date))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(commandsCmd)
	for _, cmd := range shortcutCmds() {
		rootCmd.AddCommand(cmd)
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.String("config", "", "Config file (default $SWBOT_CONFIG or ~/.config/swbot/config.yaml)")
	flags.String("adapter", "", "Local adapter, e.g. hci0 (default: first adapter)")
	flags.Duration("timeout", 0, "Connection timeout (default 5s)")
	flags.String("address-type", "", "LE peer address type: random or public (default random)")
	flags.String("transport", "", "BLE transport: hci or bluez (default hci)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
