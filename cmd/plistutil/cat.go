package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print a property list's tree as XML",
	Long: `cat reads a property list in either wire format, auto-detected
from its content, and prints it to standard output in the format
named by --format (XML by default).

Examples:
  plistutil cat Info.plist
  plistutil cat --format binary Info.plist > Info.bplist`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCat(args[0])
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(path string) error {
	logVerbose("reading %s", path)
	root, err := readPlist(path)
	if err != nil {
		return err
	}
	if err := writePlist(root, outputFormat(), "-"); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
