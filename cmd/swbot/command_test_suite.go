//go:build test

package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/swbot/internal/testutils"
	"github.com/srg/swbot/pkg/config"
)

// Test device addresses for consistent mock device identification
const (
	TestBotAddress     = "C1:2B:3C:4D:5E:6F"
	TestCurtainAddress = "D1:2B:3C:4D:5E:6F"
)

// CommandTestSuite extends MockBLEPeripheralSuite with command testing utilities.
// All cmd/swbot test suites should embed this instead of MockBLEPeripheralSuite.
type CommandTestSuite struct {
	testutils.MockBLEPeripheralSuite
}

// SetupSuite runs once before all tests in the suite
func (s *CommandTestSuite) SetupSuite() {
	s.MockBLEPeripheralSuite.SetupSuite()
	color.NoColor = true
}

// SetupTest isolates every test from the user's config and from flags set by previous tests
func (s *CommandTestSuite) SetupTest() {
	s.MockBLEPeripheralSuite.SetupTest()

	for _, env := range []string{config.EnvAdapter, config.EnvTimeout, config.EnvTransport, config.EnvAddressType, config.EnvLogLevel} {
		s.T().Setenv(env, "")
	}
	s.T().Setenv(config.EnvConfigPath, filepath.Join(s.T().TempDir(), "missing.yaml"))

	resetFlags(rootCmd)
}

// WriteConfig writes a config file for the current test and returns its path
func (s *CommandTestSuite) WriteConfig(content string) string {
	path := filepath.Join(s.T().TempDir(), "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600), "config file MUST be written")
	return path
}

// ExecuteCommand runs the root command with args and returns what it wrote to stdout and stderr.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, string, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default value
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
