package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose bool
	format  string
	indent  string
)

var rootCmd = &cobra.Command{
	Use:   "plistutil",
	Short: "Inspect, convert, and build Apple property lists",
	Long: `plistutil reads and writes Apple property lists in both their
binary (bplist00) and XML wire formats.

Commands:
  cat      Print a property list's tree as XML
  convert  Translate a property list between binary and XML
  create   Build a property list dict from key=value arguments`,
	Version: "0.1.0-dev",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose diagnostics")
	rootCmd.PersistentFlags().StringVar(&format, "format", "xml", "output wire format (xml, binary)")
	rootCmd.PersistentFlags().StringVar(&indent, "indent", "  ", "XML indent unit (informational; the codec always uses two spaces)")

	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.SetEnvPrefix("PLISTUTIL")
	viper.AutomaticEnv()
}

// execute runs the root command (subcommands register themselves in
// their init functions), printing any error to stderr and exiting 1.
func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func outputFormat() string {
	return viper.GetString("format")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

func logVerbose(msg string, args ...any) {
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "plistutil: "+msg+"\n", args...)
	}
}
