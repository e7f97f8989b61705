package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var convertTo string

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Translate a property list between binary and XML",
	Long: `convert reads a property list in either wire format,
auto-detected from its content, and writes it back out in the format
named by --to (xml or binary).

Examples:
  plistutil convert Info.plist Info.bplist --to binary
  plistutil convert Info.bplist Info.plist --to xml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0], args[1])
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertTo, "to", "xml", "target wire format (xml, binary)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(inPath, outPath string) error {
	logVerbose("converting %s -> %s (%s)", inPath, outPath, convertTo)
	root, err := readPlist(inPath)
	if err != nil {
		return err
	}
	if err := writePlist(root, convertTo, outPath); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
