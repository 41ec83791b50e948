package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		question    string
		withSources bool
		format      string
	)
	cmd := &cobra.Command{
		Use:   "ask FILE[=LABEL]... --question QUESTION",
		Short: "Ingest files and answer one question",
		Example: `  kotae ask report.pdf=financial_report call.mp3=conference_call \
    --question "What was the revenue growth in Q3?"
  kotae ask report.pdf -q "Who is the CFO?" --sources --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			if question == "" {
				return errors.New("--question is required")
			}
			p, sess, logger, err := ingest(cmd, opts, args)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer p.Close()
			defer sess.Close()

			ans, err := sess.Ask(cmd.Context(), question)
			if err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), ans, withSources, outFormat)
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to answer")
	cmd.Flags().BoolVar(&withSources, "sources", false, "print the passages the answer was based on")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}
