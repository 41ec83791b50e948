package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var withSources bool
	cmd := &cobra.Command{
		Use:   "chat FILE[=LABEL]...",
		Short: "Ingest files once and answer questions from stdin",
		Long: `Ingests the files, then reads one question per line until EOF or "exit".
Blank lines are ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, sess, logger, err := ingest(cmd, opts, args)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer p.Close()
			defer sess.Close()

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(out, "> ")
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "exit" || line == "quit" {
					return nil
				}
				if line != "" {
					ans, err := sess.Ask(cmd.Context(), line)
					switch {
					case errors.Is(err, answer.ErrNoContext), errors.Is(err, models.ErrEmptyQuestion):
						fmt.Fprintln(out, err)
					case err != nil:
						return fmt.Errorf("ask failed: %w", err)
					default:
						if err := cli.WriteAnswer(out, ans, withSources, cli.OutputText); err != nil {
							return err
						}
					}
				}
				fmt.Fprint(out, "> ")
			}
			fmt.Fprintln(out)
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&withSources, "sources", false, "print the passages each answer was based on")
	return cmd
}
