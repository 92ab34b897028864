package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
)

const submissionTS = `coalesce("timestamp", created_at)`

var submissionColumns = []string{
	"id", `"timestamp"`, "name", "phone", "email", "fb", "birth", "uni", "other_uni", "year_of_study",
	"major", "start_date", "end_date", "channel", "demand", "utm_source", "utm_medium", "utm_campaign",
	"utm_id", "utm_content", "utm_name", "utm_term", "allocated_lc", "form_data", "created_at",
}

type leadRepository struct {
	db *sqlx.DB
}

var _ lead.Repository = (*leadRepository)(nil) // interface compliance check

func NewLeadRepository(db *sqlx.DB) *leadRepository {
	return &leadRepository{db: db}
}

func (repo leadRepository) queryRaw(ctx context.Context, b sq.SelectBuilder) ([]lead.RawRecord, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building submissions query")
	}
	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	defer func() { _ = rows.Close() }()

	raws := make([]lead.RawRecord, 0)
	for rows.Next() {
		m := make(map[string]interface{}, len(submissionColumns))
		if err = rows.MapScan(m); err != nil {
			return nil, errors.Wrap(err, "scanning submission")
		}
		raws = append(raws, lead.RawRecord(m))
	}
	return raws, errors.Wrap(rows.Err(), "iterating submissions")
}

func (repo leadRepository) QueryRawSubmissions(ctx context.Context, filter lead.QueryFilter, page core.Page) ([]lead.RawRecord, error) {
	b := psql.Select(submissionColumns...).From("form_submissions")

	if filter.LC != "" {
		b = b.Where(sq.Eq{"allocated_lc": filter.LC})
	}
	if filter.Unallocated {
		b = b.Where(sq.Or{
			sq.Eq{"allocated_lc": nil},
			sq.Eq{"btrim(allocated_lc)": ""},
			sq.Eq{"lower(allocated_lc)": strings.ToLower(lead.Organic)},
		})
	}
	if !filter.From.IsZero() {
		b = b.Where(sq.GtOrEq{submissionTS: filter.From.UTC()})
	}
	if !filter.To.IsZero() {
		b = b.Where(sq.Lt{submissionTS: filter.To.UTC()})
	}
	if len(filter.IDs) > 0 {
		b = b.Where("id = ANY(?)", pq.Array(filter.IDs))
	}

	b = b.OrderBy(submissionTS+" DESC", "id")
	if page.Limit > 0 {
		b = b.Limit(uint64(page.Limit)).Offset(uint64(page.Offset))
	}
	return repo.queryRaw(ctx, b)
}

func (repo leadRepository) GetRawSubmission(ctx context.Context, id string) (lead.RawRecord, error) {
	raws, err := repo.queryRaw(ctx, psql.Select(submissionColumns...).From("form_submissions").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, lead.ErrNotFound
	}
	return raws[0], nil
}

func (repo leadRepository) SetAllocatedLC(ctx context.Context, id, lc string) error {
	n, err := execContext(ctx, repo.db,
		psql.Update("form_submissions").Set("allocated_lc", lc).Where(sq.Eq{"id": id}),
		"updating allocated lc")
	if err != nil {
		return err
	}
	if n == 0 {
		return lead.ErrNotFound
	}
	return nil
}

func (repo leadRepository) BulkSetAllocatedLC(ctx context.Context, ids []string, lc string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := execContext(ctx, repo.db,
		psql.Update("form_submissions").Set("allocated_lc", lc).Where("id = ANY(?)", pq.Array(ids)),
		"bulk updating allocated lc")
	return err
}

func (repo leadRepository) CreateAllocationLogs(ctx context.Context, logs ...lead.AllocationLog) error {
	for _, c := range chunks(len(logs)) {
		b := psql.Insert("allocation_logs").
			Columns("id", "submission_id", "previous_lc", "new_lc", "method", "actor", "created_at")
		for _, l := range logs[c[0]:c[1]] {
			b = b.Values(l.ID.String(), l.SubmissionID, l.PreviousLC, l.NewLC, string(l.Method), l.Actor, l.CreatedAt.UTC())
		}
		if _, err := execContext(ctx, repo.db, b, "inserting allocation logs"); err != nil {
			return err
		}
	}
	return nil
}
