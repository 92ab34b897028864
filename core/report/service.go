package report

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

var NowFunc = time.Now // mockable

type (
	SubmissionSource interface {
		List(ctx context.Context, filter lead.QueryFilter) ([]lead.Submission, error)
		Cleaned(ctx context.Context, filter lead.QueryFilter) ([]lead.Submission, error)
	}

	RefSource interface {
		UTMLinks(ctx context.Context) ([]refdata.UTMLink, error)
		Goals(ctx context.Context) ([]refdata.Goal, error)
		Phase(ctx context.Context, code string) (refdata.Phase, error)
		CurrentPhase(ctx context.Context, now time.Time) (refdata.Phase, error)
	}

	// Filter scopes a report. An empty Phase means the current one for goal
	// reports and no time window otherwise.
	Filter struct {
		LC      string `query:"lc"`
		Phase   string `query:"phase"`
		Cleaned bool   `query:"cleaned"`
	}

	Service struct {
		subs   SubmissionSource
		refs   RefSource
		logger core.Logger
	}

	// dataset is everything a report is computed from.
	dataset struct {
		phase refdata.Phase
		subs  []lead.Submission
		links []refdata.UTMLink
		goals []refdata.Goal
	}
)

var _ RefSource = (*refdata.Service)(nil)
var _ SubmissionSource = (*lead.Service)(nil)

func NewService(subs SubmissionSource, refs RefSource, logger core.Logger) *Service {
	return &Service{subs: subs, refs: refs, logger: logger}
}

func (svc *Service) resolvePhase(ctx context.Context, code string, current bool) (refdata.Phase, error) {
	switch {
	case code != "":
		return svc.refs.Phase(ctx, code)
	case current:
		return svc.refs.CurrentPhase(ctx, NowFunc())
	}
	return refdata.Phase{}, nil
}

// load fetches submissions and reference data concurrently. The phase is resolved
// first since it bounds the submission query.
func (svc *Service) load(ctx context.Context, f Filter, currentPhase bool) (*dataset, error) {
	phase, err := svc.resolvePhase(ctx, f.Phase, currentPhase)
	if err != nil {
		return nil, errors.Wrap(err, "resolving phase")
	}
	qf := lead.QueryFilter{LC: f.LC}
	if phase.Code != "" {
		qf.From, qf.To = phase.Window()
	}

	ds := &dataset{phase: phase}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if f.Cleaned {
			ds.subs, err = svc.subs.Cleaned(egCtx, qf)
		} else {
			ds.subs, err = svc.subs.List(egCtx, qf)
		}
		return errors.Wrap(err, "loading submissions")
	})
	eg.Go(func() error {
		var err error
		ds.links, err = svc.refs.UTMLinks(egCtx)
		return errors.Wrap(err, "loading utm links")
	})
	eg.Go(func() error {
		var err error
		ds.goals, err = svc.refs.Goals(egCtx)
		return errors.Wrap(err, "loading goals")
	})
	if err = eg.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (svc *Service) CrossTab(ctx context.Context, f Filter) (CrossTab, error) {
	ds, err := svc.load(ctx, f, false)
	if err != nil {
		return CrossTab{}, err
	}
	return BuildCrossTab(ds.subs), nil
}

func (svc *Service) UTM(ctx context.Context, f Filter) (UTMSummary, error) {
	ds, err := svc.load(ctx, f, false)
	if err != nil {
		return UTMSummary{}, err
	}
	goal := 0
	if ds.phase.Code != "" {
		goal = TargetFor(ds.goals, ds.phase.Code, f.LC)
	}
	return SummarizeUTM(ds.subs, ds.links, goal), nil
}

// Goals reports progress per LC for the requested phase, defaulting to the current one.
func (svc *Service) Goals(ctx context.Context, f Filter) ([]GoalProgress, error) {
	ds, err := svc.load(ctx, f, true)
	if err != nil {
		return nil, err
	}
	progress := ComputeGoalProgress(ds.subs, ds.goals, ds.phase)
	if f.LC == "" {
		return progress, nil
	}
	scoped := make([]GoalProgress, 0, 1)
	for _, gp := range progress {
		if gp.LC == f.LC {
			scoped = append(scoped, gp)
		}
	}
	return scoped, nil
}
