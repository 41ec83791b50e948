package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "extract FILE[=LABEL]...",
		Short: "Print the text units extracted from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, _, logger, err := setup(opts, true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			p, err := newPipeline(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize pipeline: %w", err)
			}
			defer p.Close()

			results, err := p.Extract(cmd.Context(), parseFileArgs(args))
			if err != nil {
				return fmt.Errorf("extract failed: %w", err)
			}
			return cli.WriteExtraction(cmd.OutOrStdout(), results, outFormat)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}
