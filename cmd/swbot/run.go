package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/swbot/internal/connection"
	"github.com/srg/swbot/internal/switchbot"
)

const exampleDeviceAddress = "C1:2B:3C:4D:5E:6F"

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <device> <command>",
	Short: "Send a command to a Switchbot device",
	Long: fmt.Sprintf(`Connects to a Switchbot device, sends one command and disconnects.

<device> is a MAC address or a device alias from the config file.

Examples:
  # Press a bot
  swbot run %s press

  # Close a curtain through the second adapter
  swbot run %s close --adapter hci1

  # Use a configured alias and a longer timeout
  swbot run kitchen on --timeout 10s`, exampleDeviceAddress, exampleDeviceAddress),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args[0], args[1])
	},
}

// shortcutCmds creates one subcommand per table entry, e.g. "swbot press <device>"
func shortcutCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(switchbot.Names()))
	for _, c := range switchbot.Commands() {
		name := c.Name
		cmds = append(cmds, &cobra.Command{
			Use:     name + " <device>",
			Short:   fmt.Sprintf("Send %q (handle 0x%02X, payload %s)", name, c.Handle, c.PayloadHex()),
			Example: fmt.Sprintf("  swbot %s %s", name, exampleDeviceAddress),
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCommand(cmd, args[0], name)
			},
		})
	}
	return cmds
}

func runCommand(cmd *cobra.Command, device, name string) error {
	// Resolve the command before anything touches config or radio
	if _, err := switchbot.Lookup(name); err != nil {
		return err
	}

	s, err := loadSettings(cmd, device)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen)

	progress := NewProgressPrinter(out, fmt.Sprintf("Sending %s to %s", name, s.target.Name),
		connection.PhaseConnecting, connection.PhaseConnected, connection.PhaseFailed)
	if isInteractive(out) {
		progress.Start()
	}
	defer progress.Stop()

	printer := progress.Callback()
	onPhase := func(phase string) {
		printer(phase)
		if phase == connection.PhaseConnected {
			green.Fprintln(out, "Connected!")
		}
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := s.driver(onPhase).Run(ctx, name)
	if err != nil {
		return err
	}

	s.logger.WithField("payload", fmt.Sprintf("% X", result.Payload)).Info("Command written")
	green.Fprintln(out, "Command execution successful")
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
