package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calpoly-csai/nimbus-transformer/internal/pipeline"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

var askFlags struct {
	site      string
	results   int
	fuzz      int
	limit     int
	minLength int
	sections  bool
	browser   bool
	history   string
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from calpoly.edu pages",
	Long: `Search calpoly.edu for the question, scrape the result pages, filter
them down to the relevant lines and extract the answer. Without an argument
the question is read from standard input.`,
	Example: `  nimbus ask "where is the kennedy library?"
  nimbus ask --sections --results 3 -v`,
	RunE: runAsk,
}

func init() {
	f := askCmd.Flags()
	f.StringVar(&askFlags.site, "site", "", "Domain the search is scoped to")
	f.IntVar(&askFlags.results, "results", 0, "Number of result pages to scrape")
	f.IntVar(&askFlags.fuzz, "fuzz", 0, "Fuzzy match threshold (0-100) for lines without a keyword")
	f.IntVar(&askFlags.limit, "limit", 0, "Maximum number of context lines")
	f.IntVar(&askFlags.minLength, "min-length", 0, "Minimum context line length")
	f.BoolVar(&askFlags.sections, "sections", false, "Use the first HTML sections of each page instead of the full text")
	f.BoolVar(&askFlags.browser, "browser", false, "Render JavaScript-heavy pages with headless Chrome")
	f.StringVar(&askFlags.history, "history", "", "Append each answer to this CSV file")
	rootCmd.AddCommand(askCmd)
}

// applyAskFlags copies explicitly set flags over the loaded config.
func applyAskFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("site") {
		cfg.Site = askFlags.site
	}
	if f.Changed("results") {
		cfg.Results = askFlags.results
	}
	if f.Changed("fuzz") {
		cfg.Fuzz = askFlags.fuzz
	}
	if f.Changed("limit") {
		cfg.Limit = askFlags.limit
	}
	if f.Changed("min-length") {
		cfg.MinLength = askFlags.minLength
	}
	if f.Changed("sections") {
		cfg.Sections = askFlags.sections
	}
	if f.Changed("browser") {
		cfg.UseBrowser = askFlags.browser
	}
	if f.Changed("history") {
		cfg.History = askFlags.history
	}
	return cfg.Validate()
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := applyAskFlags(cmd); err != nil {
		return err
	}

	question, err := questionFrom(args, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{Pipeline: pipelineOptions(), Storage: true})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Ask(ctx, question)
	if err != nil {
		return err
	}

	if verbose || debug {
		printer.Verbose("query", result.Query)
		for _, src := range result.Sources {
			printer.Verbose("url", src.URL)
		}
		printer.PrintContext(result.Context)
	}
	printer.Label("answer", result.Answer)
	if verbose || debug {
		printer.PrintExtraData(result.ExtraData)
		printer.PrintResult(result)
	}
	return nil
}

// questionFrom joins args into a question, or prompts for one on in.
func questionFrom(args []string, in io.Reader, out io.Writer) (types.Question, error) {
	if len(args) > 0 {
		return types.Question(strings.Join(args, " ")), nil
	}

	fmt.Fprint(out, printer.GreenBold("question: ")) //nolint:errcheck
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read question: %w", err)
	}
	return types.Question(strings.TrimSpace(line)), nil
}

// askDocument answers question from document with the clubs filter settings.
func askDocument(ctx context.Context, question types.Question, document string) error {
	client, extractor, err := newExtractor(ctx)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	p := pipeline.New(nil, nil, extractor, pipelineOptions(), log)
	result, err := p.AskDocument(ctx, question, document)
	if err != nil {
		return err
	}

	if verbose || debug {
		printer.PrintContext(result.Context)
	}
	printer.Label("answer", result.Answer)
	if verbose || debug {
		printer.PrintExtraData(result.ExtraData)
	}
	return nil
}
