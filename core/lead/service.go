package lead

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("submission not found")
	ErrNoIDs    = errors.New("no submissions selected")
)

type (
	Repository interface {
		// QueryRawSubmissions returns one page of raw rows matching the store-side part of the
		// filter (LC, unallocated, time window, ids), newest first.
		QueryRawSubmissions(ctx context.Context, filter QueryFilter, page core.Page) ([]RawRecord, error)
		GetRawSubmission(ctx context.Context, id string) (RawRecord, error)
		SetAllocatedLC(ctx context.Context, id, lc string) error
		// BulkSetAllocatedLC updates every id in a single statement.
		BulkSetAllocatedLC(ctx context.Context, ids []string, lc string) error
		CreateAllocationLogs(ctx context.Context, logs ...AllocationLog) error
	}

	// MappingSource provides the university -> LC mapping.
	MappingSource interface {
		Mapping(ctx context.Context) (Mapping, error)
	}

	// Notifier is told about successful allocations.
	Notifier interface {
		NotifyAllocations(ctx context.Context, allocs []Allocation)
	}

	Service struct {
		repo     Repository
		mappings MappingSource
		notifier Notifier
		logger   core.Logger
		pageSize int
	}
)

// NewService wires the lead service. notifier may be nil.
func NewService(repo Repository, mappings MappingSource, notifier Notifier, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mappings: mappings,
		notifier: notifier,
		logger:   logger,
		pageSize: conf.Database.PageSize,
	}
}

func (svc *Service) fetchRaw(ctx context.Context, filter QueryFilter) ([]RawRecord, error) {
	raws := make([]RawRecord, 0)
	err := core.FetchAll(ctx, svc.pageSize, func(ctx context.Context, p core.Page) (int, error) {
		rows, err := svc.repo.QueryRawSubmissions(ctx, filter, p)
		if err != nil {
			return 0, err
		}
		raws = append(raws, rows...)
		return len(rows), nil
	})
	return raws, errors.Wrap(err, "fetching submissions")
}

// Raw returns the stored rows untouched (raw view).
func (svc *Service) Raw(ctx context.Context, filter QueryFilter) ([]RawRecord, error) {
	filter.Clean()
	raws, err := svc.fetchRaw(ctx, filter)
	if err != nil || filter.Search == "" {
		return raws, err
	}
	now := NowFunc()
	matched := make([]RawRecord, 0, len(raws))
	for _, raw := range raws {
		if filter.Matches(Normalize(raw, now)) {
			matched = append(matched, raw)
		}
	}
	return matched, nil
}

// List returns normalized submissions, newest first.
func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Submission, error) {
	filter.Clean()
	raws, err := svc.fetchRaw(ctx, filter)
	if err != nil {
		return nil, err
	}
	subs := make([]Submission, 0, len(raws))
	for _, s := range NormalizeAll(raws, NowFunc()) {
		if filter.Matches(s) {
			subs = append(subs, s)
		}
	}
	SortNewestFirst(subs)
	return subs, nil
}

// Cleaned returns normalized and deduplicated submissions (cleaned view).
func (svc *Service) Cleaned(ctx context.Context, filter QueryFilter) ([]Submission, error) {
	subs, err := svc.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Dedupe(subs), nil
}

func (svc *Service) Get(ctx context.Context, id string) (Submission, error) {
	raw, err := svc.repo.GetRawSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	return Normalize(raw, NowFunc()), nil
}

// Unresolved lists university labels of unallocated submissions that resolve to nothing.
func (svc *Service) Unresolved(ctx context.Context, limit int) ([]UnresolvedLabel, error) {
	subs, err := svc.List(ctx, QueryFilter{Unallocated: true})
	if err != nil {
		return nil, err
	}
	m, err := svc.mappings.Mapping(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading university mapping")
	}
	return GroupUnresolved(subs, m, limit), nil
}

// AutoAllocate allocates every unallocated submission whose university resolves.
func (svc *Service) AutoAllocate(ctx context.Context, actor core.Actor) (BatchResult, error) {
	subs, err := svc.List(ctx, QueryFilter{Unallocated: true})
	if err != nil {
		return BatchResult{}, err
	}
	m, err := svc.mappings.Mapping(ctx)
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "loading university mapping")
	}
	res := svc.apply(ctx, PlanAutoAllocations(subs, m), actor)
	svc.logger.Info(fmt.Sprintf("auto allocation: %d applied, %d failed", res.Applied, res.Failed), actor)
	return res, nil
}

// CorrectAllocations upgrades regional allocations whose university now resolves to a specific LC.
func (svc *Service) CorrectAllocations(ctx context.Context, actor core.Actor) (BatchResult, error) {
	subs, err := svc.List(ctx, QueryFilter{})
	if err != nil {
		return BatchResult{}, err
	}
	m, err := svc.mappings.Mapping(ctx)
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "loading university mapping")
	}
	res := svc.apply(ctx, PlanCorrections(subs, m), actor)
	svc.logger.Info(fmt.Sprintf("allocation correction: %d applied, %d failed", res.Applied, res.Failed), actor)
	return res, nil
}

// apply writes each allocation on its own; a failure is recorded and the batch goes on.
func (svc *Service) apply(ctx context.Context, plan []Allocation, actor core.Actor) BatchResult {
	res := BatchResult{Results: make([]AllocationResult, 0, len(plan))}
	applied := make([]Allocation, 0, len(plan))
	for _, a := range plan {
		err := svc.repo.SetAllocatedLC(ctx, a.SubmissionID, a.NewLC)
		if err != nil {
			err = errors.Wrapf(err, "allocating %s to %s", a.SubmissionID, a.NewLC)
			svc.logger.Error(err.Error(), err, actor)
		} else {
			applied = append(applied, a)
		}
		res.add(AllocationResult{Allocation: a, Err: err})
	}
	svc.audit(ctx, actor, applied...)
	svc.notify(ctx, applied)
	return res
}

// ManualAllocate sets the submission's LC. The audit log is best effort.
func (svc *Service) ManualAllocate(ctx context.Context, id, lc string, actor core.Actor) (Submission, error) {
	lc = strings.TrimSpace(lc)
	sub, err := svc.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if err = checkTarget(sub.AllocatedLC, lc); err != nil {
		return Submission{}, err
	}
	if err = svc.repo.SetAllocatedLC(ctx, sub.ID, lc); err != nil {
		return Submission{}, errors.Wrap(err, "setting allocated LC")
	}

	svc.audit(ctx, actor, Allocation{
		SubmissionID: sub.ID,
		Name:         sub.Name,
		PreviousLC:   sub.AllocatedLC,
		NewLC:        lc,
		Method:       MethodManual,
	})
	sub.AllocatedLC = &lc
	return sub, nil
}

// BulkAllocate sets the same LC on every id with one store call: all or nothing,
// as far as the store guarantees it.
func (svc *Service) BulkAllocate(ctx context.Context, ids []string, lc string, actor core.Actor) (BatchResult, error) {
	lc = strings.TrimSpace(lc)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return BatchResult{}, core.NewValidationError(ErrNoIDs, core.FieldError{Field: "ids", Error: ErrNoIDs.Error()})
	}

	subs, err := svc.List(ctx, QueryFilter{IDs: ids})
	if err != nil {
		return BatchResult{}, err
	}
	byID := make(map[string]Submission, len(subs))
	for _, s := range subs {
		byID[s.ID] = s
	}

	plan := make([]Allocation, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return BatchResult{}, core.NewValidationError(
				ErrNotFound, core.FieldError{Field: "ids", Error: fmt.Sprintf("submission %s not found", id)},
			)
		}
		if err = checkTarget(s.AllocatedLC, lc); err != nil {
			return BatchResult{}, errors.Wrapf(err, "submission %s", id)
		}
		plan = append(plan, Allocation{SubmissionID: id, Name: s.Name, PreviousLC: s.AllocatedLC, NewLC: lc, Method: MethodBulk})
	}

	if err = svc.repo.BulkSetAllocatedLC(ctx, ids, lc); err != nil {
		return BatchResult{}, errors.Wrap(err, "bulk setting allocated LC")
	}

	res := BatchResult{Results: make([]AllocationResult, 0, len(plan))}
	for _, a := range plan {
		res.add(AllocationResult{Allocation: a})
	}
	svc.audit(ctx, actor, plan...)
	svc.notify(ctx, plan)
	return res, nil
}

// audit appends allocation logs; failures are only warned about.
func (svc *Service) audit(ctx context.Context, actor core.Actor, allocs ...Allocation) {
	if len(allocs) == 0 {
		return
	}
	now := NowFunc().UTC()
	logs := make([]AllocationLog, 0, len(allocs))
	for _, a := range allocs {
		logs = append(logs, AllocationLog{
			ID:           uuid.New(),
			SubmissionID: a.SubmissionID,
			PreviousLC:   a.PreviousLC,
			NewLC:        a.NewLC,
			Method:       a.Method,
			Actor:        actor.String(),
			CreatedAt:    now,
		})
	}
	if err := svc.repo.CreateAllocationLogs(ctx, logs...); err != nil {
		svc.logger.Warn(fmt.Sprintf("writing %d allocation logs: %v", len(logs), err), err, actor)
	}
}

func (svc *Service) notify(ctx context.Context, allocs []Allocation) {
	if svc.notifier == nil || len(allocs) == 0 {
		return
	}
	svc.notifier.NotifyAllocations(ctx, allocs)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
