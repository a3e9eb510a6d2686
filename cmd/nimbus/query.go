package main

import (
	"github.com/spf13/cobra"

	"github.com/calpoly-csai/nimbus-transformer/internal/query"
)

var querySite string

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Print the search query built for a question",
	Long:  `Print the Query, the SanitizedQuery and the first search URL for a question without searching.`,
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&querySite, "site", "", "Domain the search is scoped to")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	site := cfg.Site
	if cmd.Flags().Changed("site") {
		site = querySite
	}

	question, err := questionFrom(args, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	q := query.Create(question, site)
	sanitized := query.Sanitize(q)

	printer.Label("question", question)
	printer.Label("query", q)
	printer.Label("sanitized", sanitized)
	printer.Label("url", query.SearchURL(cfg.SearchBaseURL, sanitized, 0))
	return nil
}
