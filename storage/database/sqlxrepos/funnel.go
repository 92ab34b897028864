package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/aiesec-vn/ogvhub/core/funnel"
)

var crmColumns = []string{
	"submission_id", "contact_assign_date",
	"contact_ddl", "contact_done", "contact_time_done", "contact_process_days",
	"cm_ddl", "cm_done", "cm_time_done", "cm_process_days",
	"apl_ddl", "apl_done", "apl_time_done", "apl_process_days",
	"total_process_days", "notes", "created_at", "updated_at",
}

type crmRow struct {
	SubmissionID       string       `db:"submission_id"`
	ContactAssignDate  null.Time    `db:"contact_assign_date"`
	ContactDDL         null.Time    `db:"contact_ddl"`
	ContactDone        bool         `db:"contact_done"`
	ContactTimeDone    null.Time    `db:"contact_time_done"`
	ContactProcessDays null.Float64 `db:"contact_process_days"`
	CMDDL              null.Time    `db:"cm_ddl"`
	CMDone             bool         `db:"cm_done"`
	CMTimeDone         null.Time    `db:"cm_time_done"`
	CMProcessDays      null.Float64 `db:"cm_process_days"`
	APLDDL             null.Time    `db:"apl_ddl"`
	APLDone            bool         `db:"apl_done"`
	APLTimeDone        null.Time    `db:"apl_time_done"`
	APLProcessDays     null.Float64 `db:"apl_process_days"`
	TotalProcessDays   null.Float64 `db:"total_process_days"`
	Notes              string       `db:"notes"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func utcTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func timePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func toCRMRow(rec funnel.Record) crmRow {
	return crmRow{
		SubmissionID:       rec.SubmissionID,
		ContactAssignDate:  utcTime(rec.ContactAssignDate),
		ContactDDL:         utcTime(rec.Contact.Deadline),
		ContactDone:        rec.Contact.Done,
		ContactTimeDone:    utcTime(rec.Contact.TimeDone),
		ContactProcessDays: null.Float64FromPtr(rec.Contact.ProcessDays),
		CMDDL:              utcTime(rec.CM.Deadline),
		CMDone:             rec.CM.Done,
		CMTimeDone:         utcTime(rec.CM.TimeDone),
		CMProcessDays:      null.Float64FromPtr(rec.CM.ProcessDays),
		APLDDL:             utcTime(rec.APL.Deadline),
		APLDone:            rec.APL.Done,
		APLTimeDone:        utcTime(rec.APL.TimeDone),
		APLProcessDays:     null.Float64FromPtr(rec.APL.ProcessDays),
		TotalProcessDays:   null.Float64FromPtr(rec.TotalProcessDays),
		Notes:              rec.Notes,
		CreatedAt:          rec.CreatedAt.UTC(),
		UpdatedAt:          rec.UpdatedAt.UTC(),
	}
}

func (r crmRow) record() funnel.Record {
	return funnel.Record{
		SubmissionID:      r.SubmissionID,
		ContactAssignDate: timePtr(r.ContactAssignDate),
		Contact: funnel.Stage{
			Deadline: timePtr(r.ContactDDL), Done: r.ContactDone,
			TimeDone: timePtr(r.ContactTimeDone), ProcessDays: r.ContactProcessDays.Ptr(),
		},
		CM: funnel.Stage{
			Deadline: timePtr(r.CMDDL), Done: r.CMDone,
			TimeDone: timePtr(r.CMTimeDone), ProcessDays: r.CMProcessDays.Ptr(),
		},
		APL: funnel.Stage{
			Deadline: timePtr(r.APLDDL), Done: r.APLDone,
			TimeDone: timePtr(r.APLTimeDone), ProcessDays: r.APLProcessDays.Ptr(),
		},
		TotalProcessDays: r.TotalProcessDays.Ptr(),
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func (r crmRow) values() []interface{} {
	return []interface{}{
		r.SubmissionID, r.ContactAssignDate,
		r.ContactDDL, r.ContactDone, r.ContactTimeDone, r.ContactProcessDays,
		r.CMDDL, r.CMDone, r.CMTimeDone, r.CMProcessDays,
		r.APLDDL, r.APLDone, r.APLTimeDone, r.APLProcessDays,
		r.TotalProcessDays, r.Notes, r.CreatedAt, r.UpdatedAt,
	}
}

type funnelRepository struct {
	db *sqlx.DB
}

var _ funnel.Repository = (*funnelRepository)(nil) // interface compliance check

func NewFunnelRepository(db *sqlx.DB) *funnelRepository {
	return &funnelRepository{db: db}
}

func (repo funnelRepository) QueryRecords(ctx context.Context, ids []string) ([]funnel.Record, error) {
	if len(ids) == 0 {
		return []funnel.Record{}, nil
	}
	var rows []crmRow
	b := psql.Select(crmColumns...).From("crm_sales_tracker").Where("submission_id = ANY(?)", pq.Array(ids))
	if err := selectContext(ctx, repo.db, &rows, b, "querying crm records"); err != nil {
		return nil, err
	}
	recs := make([]funnel.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.record())
	}
	return recs, nil
}

func (repo funnelRepository) GetRecord(ctx context.Context, submissionID string) (funnel.Record, error) {
	var row crmRow
	b := psql.Select(crmColumns...).From("crm_sales_tracker").Where(sq.Eq{"submission_id": submissionID})
	if err := getContext(ctx, repo.db, &row, b, funnel.ErrNotFound, "getting crm record"); err != nil {
		return funnel.Record{}, err
	}
	return row.record(), nil
}

// CreateRecords inserts the records, leaving existing ones untouched.
func (repo funnelRepository) CreateRecords(ctx context.Context, recs ...funnel.Record) error {
	for _, c := range chunks(len(recs)) {
		b := psql.Insert("crm_sales_tracker").Columns(crmColumns...).Suffix("ON CONFLICT (submission_id) DO NOTHING")
		for _, rec := range recs[c[0]:c[1]] {
			b = b.Values(toCRMRow(rec).values()...)
		}
		if _, err := execContext(ctx, repo.db, b, "inserting crm records"); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRecord overwrites every funnel field in one statement.
func (repo funnelRepository) UpdateRecord(ctx context.Context, rec funnel.Record) (funnel.Record, error) {
	row := toCRMRow(rec)
	vals := row.values()
	set := make(map[string]interface{}, len(crmColumns))
	for i, col := range crmColumns {
		if col == "submission_id" || col == "created_at" {
			continue
		}
		set[col] = vals[i]
	}

	var updated crmRow
	b := psql.Update("crm_sales_tracker").SetMap(set).
		Where(sq.Eq{"submission_id": rec.SubmissionID}).
		Suffix("RETURNING " + strings.Join(crmColumns, ", "))
	if err := getContext(ctx, repo.db, &updated, b, funnel.ErrNotFound, "updating crm record"); err != nil {
		return funnel.Record{}, err
	}
	return updated.record(), nil
}
