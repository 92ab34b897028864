package funnel

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound   = errors.New("funnel record not found")
	ErrOutOfScope = errors.New("submission belongs to another LC")
	ErrEmptyPatch = errors.New("nothing to update")
)

type (
	Repository interface {
		QueryRecords(ctx context.Context, submissionIDs []string) ([]Record, error)
		GetRecord(ctx context.Context, submissionID string) (Record, error)
		// CreateRecords inserts the records, skipping those that already exist.
		CreateRecords(ctx context.Context, recs ...Record) error
		// UpdateRecord writes every field of the record in one statement.
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
	}

	SubmissionSource interface {
		List(ctx context.Context, filter lead.QueryFilter) ([]lead.Submission, error)
		Get(ctx context.Context, id string) (lead.Submission, error)
	}

	Service struct {
		repo   Repository
		subs   SubmissionSource
		logger core.Logger
	}
)

func NewService(repo Repository, subs SubmissionSource, logger core.Logger) *Service {
	return &Service{repo: repo, subs: subs, logger: logger}
}

func newRow(sub lead.Submission, rec Record, now time.Time) Row {
	rec = ComputeMetrics(rec, sub.Timestamp)
	return Row{Submission: sub, Record: rec, Statuses: DeriveStatuses(rec, now)}
}

// Board loads the funnel for an LC scope (all LCs when empty), materializing missing records.
func (svc *Service) Board(ctx context.Context, filter QueryFilter) ([]Row, error) {
	subs, err := svc.subs.List(ctx, lead.QueryFilter{LC: filter.LC, Search: filter.Search})
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	if len(subs) == 0 {
		return []Row{}, nil
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	recs, err := svc.repo.QueryRecords(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying funnel records")
	}
	byID := make(map[string]Record, len(recs))
	for _, r := range recs {
		byID[r.SubmissionID] = r
	}

	now := NowFunc()
	missing := make([]Record, 0)
	rows := make([]Row, 0, len(subs))
	for _, s := range subs {
		rec, ok := byID[s.ID]
		if !ok {
			rec = NewRecord(s, now)
			missing = append(missing, rec)
		}
		rows = append(rows, newRow(s, rec, now))
	}

	if len(missing) > 0 {
		if err = svc.repo.CreateRecords(ctx, missing...); err != nil {
			return nil, errors.Wrap(err, "materializing funnel records")
		}
		svc.logger.Debug("materialized funnel records", map[string]interface{}{"lc": filter.LC, "count": len(missing)})
	}
	return rows, nil
}

// Update applies a partial patch to one record. lcScope, when set, restricts
// the update to submissions allocated to that LC.
func (svc *Service) Update(ctx context.Context, submissionID string, patch Patch, lcScope string) (Row, error) {
	if patch.IsEmpty() {
		return Row{}, core.NewValidationError(ErrEmptyPatch)
	}

	sub, err := svc.subs.Get(ctx, submissionID)
	if err != nil {
		return Row{}, err
	}
	if lcScope != "" && sub.LC() != lcScope {
		return Row{}, ErrOutOfScope
	}

	now := NowFunc()
	rec, err := svc.repo.GetRecord(ctx, sub.ID)
	switch errors.Cause(err) {
	case nil:
	case ErrNotFound:
		rec = NewRecord(sub, now)
		if err = svc.repo.CreateRecords(ctx, rec); err != nil {
			return Row{}, errors.Wrap(err, "materializing funnel record")
		}
	default:
		return Row{}, errors.Wrap(err, "getting funnel record")
	}

	rec = ApplyPatch(rec, patch, sub.Timestamp, now)
	if rec, err = svc.repo.UpdateRecord(ctx, rec); err != nil {
		return Row{}, errors.Wrap(err, "updating funnel record")
	}
	return newRow(sub, rec, now), nil
}
