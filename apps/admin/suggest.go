package main

import (
	"context"

	"github.com/spf13/cobra"
)

func (cli *commandLine) suggestCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "List unresolved university labels with mapping suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.suggest(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 3, "suggestions per label")
	return cmd
}

func (cli *commandLine) suggest(ctx context.Context, limit int) error {
	labels, err := cli.svcs.Lead.Unresolved(ctx, limit)
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		cli.printf("every university label resolves\n")
		return nil
	}
	for _, l := range labels {
		cli.printf("%q (%d)\n", l.Label, l.Count)
		for _, s := range l.Suggestions {
			cli.printf("    %-40s -> %-6s %.2f\n", s.Label, s.LC, s.Ratio)
		}
	}
	return nil
}
