package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/swbot/internal/switchbot"
)

// commandsCmd lists the command table
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the supported commands",
	Long: `Lists every supported command with the attribute handle it writes and the payload sent.

Examples:
  swbot commands
  swbot commands --json`,
	Args: cobra.NoArgs,
	RunE: runCommands,
}

var commandsJSON bool

func init() {
	commandsCmd.Flags().BoolVar(&commandsJSON, "json", false, "Print the table as JSON")
}

// commandJSON is the --json representation of a command
type commandJSON struct {
	Name    string `json:"name"`
	Handle  string `json:"handle"`
	Payload string `json:"payload"`
}

func runCommands(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	commands := switchbot.Commands()

	if commandsJSON {
		rows := make([]commandJSON, 0, len(commands))
		for _, c := range commands {
			rows = append(rows, commandJSON{Name: c.Name, Handle: fmt.Sprintf("0x%02X", c.Handle), Payload: c.PayloadHex()})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tHANDLE\tPAYLOAD")
	for _, c := range commands {
		fmt.Fprintf(w, "%s\t0x%02X\t%s\n", c.Name, c.Handle, c.PayloadHex())
	}
	return w.Flush()
}
