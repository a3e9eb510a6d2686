package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calpoly-csai/nimbus-transformer/internal/checksum"
	"github.com/calpoly-csai/nimbus-transformer/internal/observability"
)

var checksumFlags struct {
	endsWith  string
	noNewline bool
	root      string
	anchor    string
}

var checksumCmd = &cobra.Command{
	Use:   "checksum",
	Short: "Print a sha256 of all source files in the repository",
	Long: `Calculate a sha256 checksum of the concatenation of all .go files in this repository.

Files are found recursively below --root, sorted by path and hashed in that
order. The root must contain the --anchor file, so run it from the
repository root.`,
	Example: `  $ nimbus checksum
  $ nimbus checksum --ends-with .py -n
  $ nimbus checksum --root ./internal --anchor ""`,
	Args: cobra.NoArgs,
	RunE: runChecksum,
}

func init() {
	f := checksumCmd.Flags()
	f.StringVar(&checksumFlags.endsWith, "ends-with", checksum.DefaultSuffix, "Hash files whose name ends with this suffix")
	f.BoolVarP(&checksumFlags.noNewline, "no-newline", "n", false, "Do not print the trailing newline")
	f.StringVar(&checksumFlags.root, "root", ".", "Directory to walk")
	f.StringVar(&checksumFlags.anchor, "anchor", checksum.DefaultAnchor, "File that must exist in the root; empty disables the check")

	checksumCmd.SetHelpFunc(colorHelp)
	rootCmd.AddCommand(checksumCmd)
}

// colorHelp prints command help with the command name and headings highlighted.
func colorHelp(cmd *cobra.Command, _ []string) {
	p := observability.NewPrinter(cmd.OutOrStdout())
	doc := cmd.Long + "\n\nUsage:\n  " + cmd.UseLine() + "\n\nExamples:\n" + cmd.Example +
		"\n\nFlags:\n" + cmd.LocalFlags().FlagUsages()
	fmt.Fprint(cmd.OutOrStdout(), p.ColorDoc(doc, observability.Highlights{ //nolint:errcheck
		Green: []string{cmd.CommandPath()},
		White: []string{"Usage:", "Examples:", "Flags:"},
		Grey:  []string{"(default"},
	}))
}

func runChecksum(cmd *cobra.Command, _ []string) error {
	if debug {
		printer.Debug("ROOT", checksumFlags.root)
		printer.Debug("ENDS_WITH", checksumFlags.endsWith)
		printer.Debug("ANCHOR", checksumFlags.anchor)
	}

	summary, err := checksum.Compute(checksum.Options{
		Root:   checksumFlags.root,
		Suffix: checksumFlags.endsWith,
		Anchor: checksumFlags.anchor,
	})
	if err != nil {
		return err
	}

	if verbose || debug {
		for _, file := range summary.Files {
			printer.Verbose("file", file)
		}
		printer.Verbose("files", len(summary.Files))
		printer.Verbose("bytes", summary.Bytes)
	}

	out := cmd.OutOrStdout()
	if checksumFlags.noNewline {
		_, err = fmt.Fprint(out, summary.Sum)
	} else {
		_, err = fmt.Fprintln(out, summary.Sum)
	}
	return err
}
