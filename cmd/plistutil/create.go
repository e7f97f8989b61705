package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-plist"
)

var createCmd = &cobra.Command{
	Use:   "create <output> [key=value ...]",
	Short: "Build a property list dict from key=value arguments",
	Long: `create builds a single top-level dict from its key=value
arguments and writes it to output in the format named by --format.

Each value may carry a type prefix to select something other than a
string: bool:true, int:42, real:3.5, string:hello. A value with no
recognized prefix is stored as a string, colons included.

Examples:
  plistutil create out.plist name=string:example count=int:3 active=bool:true
  plistutil create --format binary out.bplist label=hello`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(outPath string, pairs []string) error {
	dict := plist.NewDict()
	for _, arg := range pairs {
		key, node, err := parseTypedValue(arg)
		if err != nil {
			return err
		}
		if err := dict.Insert(key, node); err != nil {
			return fmt.Errorf("inserting %q: %w", key, err)
		}
	}
	logVerbose("writing %d entries to %s", len(pairs), outPath)
	if err := writePlist(dict, outputFormat(), outPath); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
