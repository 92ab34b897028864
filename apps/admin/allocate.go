package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
)

const (
	allocateAuto    = "auto"
	allocateCorrect = "correct"
)

func (cli *commandLine) allocateCmd() *cobra.Command {
	var yes, dryRun bool
	cmd := &cobra.Command{
		Use:       "allocate auto|correct",
		Short:     "Allocate unallocated submissions, or upgrade regional allocations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{allocateAuto, allocateCorrect},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.allocate(cmd.Context(), args[0], yes, dryRun)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without asking for confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only print the planned allocations")
	return cmd
}

// plan mirrors what the lead service is about to apply, for preview.
func (cli *commandLine) plan(ctx context.Context, mode string) ([]lead.Allocation, error) {
	filter := lead.QueryFilter{}
	if mode == allocateAuto {
		filter.Unallocated = true
	}
	subs, err := cli.svcs.Lead.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	m, err := cli.svcs.RefData.Mapping(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading university mapping")
	}
	if mode == allocateAuto {
		return lead.PlanAutoAllocations(subs, m), nil
	}
	return lead.PlanCorrections(subs, m), nil
}

func (cli *commandLine) allocate(ctx context.Context, mode string, yes, dryRun bool) error {
	plan, err := cli.plan(ctx, mode)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		cli.printf("nothing to allocate\n")
		return nil
	}
	for _, a := range plan {
		cli.printf("  %s  %-30s %s -> %s\n", a.SubmissionID, a.Name, lcLabel(a.PreviousLC), a.NewLC)
	}
	if dryRun {
		return nil
	}
	if !yes {
		if err := cli.confirm(fmt.Sprintf("Apply %d allocation(s)?", len(plan))); err != nil {
			return err
		}
	}

	var res lead.BatchResult
	if mode == allocateAuto {
		res, err = cli.svcs.Lead.AutoAllocate(ctx, core.SystemActor)
	} else {
		res, err = cli.svcs.Lead.CorrectAllocations(ctx, core.SystemActor)
	}
	if err != nil {
		return err
	}
	for id, msg := range res.Errors() {
		cli.printf("  failed %s: %s\n", id, msg)
	}
	cli.printf("%d applied, %d failed\n", res.Applied, res.Failed)
	return nil
}

func lcLabel(lc *string) string {
	if v := core.StringValue(lc); v != "" {
		return v
	}
	return "-"
}
