package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var feedbackFlags struct {
	helpful   bool
	unhelpful bool
	comment   string
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <answer-id>",
	Short: "Mark a stored answer as good or bad",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedback,
}

func init() {
	f := feedbackCmd.Flags()
	f.BoolVar(&feedbackFlags.helpful, "helpful", false, "The answer was right")
	f.BoolVar(&feedbackFlags.unhelpful, "unhelpful", false, "The answer was wrong")
	f.StringVar(&feedbackFlags.comment, "comment", "", "Optional note")
	feedbackCmd.MarkFlagsMutuallyExclusive("helpful", "unhelpful")
	feedbackCmd.MarkFlagsOneRequired("helpful", "unhelpful")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid answer id %q: %w", args[0], err)
	}
	if !feedbackFlags.helpful && !feedbackFlags.unhelpful {
		return errors.New("one of --helpful or --unhelpful is required")
	}

	database, err := requireDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	fb, err := database.SaveFeedback(cmd.Context(), id, feedbackFlags.helpful, feedbackFlags.comment)
	if err != nil {
		return err
	}

	summary, err := database.GetFeedbackSummary(cmd.Context(), id)
	if err != nil {
		return err
	}
	printer.Label("feedback", fb.ID)
	printer.Label("helpful", summary.Helpful)
	printer.Label("unhelpful", summary.Unhelpful)
	return nil
}
