package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/clubs"
)

const (
	defaultClubsCSV = "clubs.csv"
	defaultClubsTXT = "clubs.txt"
)

var clubsFlags struct {
	fuzz  int
	limit int
}

var clubsCmd = &cobra.Command{
	Use:   "clubs",
	Short: "Build and query the Cal Poly clubs document",
}

var clubsMakeDocCmd = &cobra.Command{
	Use:     "make-doc [IN_CSV] [OUT_TXT]",
	Aliases: []string{"md", "doc", "m"},
	Short:   "Turn the clubs CSV into a document of sentences",
	Args:    cobra.MaximumNArgs(2),
	RunE:    runClubsMakeDoc,
}

var clubsDemoCmd = &cobra.Command{
	Use:     "demo [IN_TXT]",
	Aliases: []string{"d"},
	Short:   "Ask the clubs document a fixed question",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runClubsDemo,
}

var clubsAskCmd = &cobra.Command{
	Use:   "ask [IN_TXT]",
	Short: "Ask the clubs document a question read from standard input",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClubsAsk,
}

func init() {
	pf := clubsCmd.PersistentFlags()
	pf.IntVar(&clubsFlags.fuzz, "fuzz", 0, "Fuzzy match threshold (0-100)")
	pf.IntVar(&clubsFlags.limit, "limit", 0, "Maximum number of context lines")

	clubsCmd.AddCommand(clubsMakeDocCmd, clubsDemoCmd, clubsAskCmd)
	rootCmd.AddCommand(clubsCmd)
}

func argOr(args []string, i int, def string) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return def
}

func applyClubsFlags(cmd *cobra.Command) error {
	if cmd.Flags().Changed("fuzz") {
		cfg.Fuzz = clubsFlags.fuzz
	}
	if cmd.Flags().Changed("limit") {
		cfg.Limit = clubsFlags.limit
	}
	return cfg.Validate()
}

func runClubsMakeDoc(cmd *cobra.Command, args []string) error {
	in := argOr(args, 0, defaultClubsCSV)
	out := argOr(args, 1, defaultClubsTXT)

	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open clubs CSV: %w", err)
	}
	defer f.Close() //nolint:errcheck

	all, err := clubs.ReadCSV(f)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, []byte(clubs.MakeDoc(all)), 0o644); err != nil {
		return fmt.Errorf("failed to write clubs document: %w", err)
	}

	if verbose || debug {
		printer.Verbose("clubs", len(all))
		printer.Verbose("written", out)
	}
	log.Info("wrote clubs document", zap.String("path", out), zap.Int("clubs", len(all)))
	return nil
}

func readClubsDoc(args []string) (string, error) {
	path := argOr(args, 0, defaultClubsTXT)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read clubs document: %w", err)
	}
	return string(data), nil
}

func runClubsDemo(cmd *cobra.Command, args []string) error {
	if err := applyClubsFlags(cmd); err != nil {
		return err
	}
	doc, err := readClubsDoc(args)
	if err != nil {
		return err
	}

	printer.Label("question", clubs.DemoQuestion)
	return askDocument(cmd.Context(), clubs.DemoQuestion, doc)
}

func runClubsAsk(cmd *cobra.Command, args []string) error {
	if err := applyClubsFlags(cmd); err != nil {
		return err
	}
	doc, err := readClubsDoc(args)
	if err != nil {
		return err
	}

	question, err := questionFrom(nil, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return askDocument(cmd.Context(), question, doc)
}
