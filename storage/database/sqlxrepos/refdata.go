package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/aiesec-vn/ogvhub/core/refdata"
)

type refdataRepository struct {
	db *sqlx.DB
}

var _ refdata.Repository = (*refdataRepository)(nil) // interface compliance check

func NewRefdataRepository(db *sqlx.DB) *refdataRepository {
	return &refdataRepository{db: db}
}

type mappingRow struct {
	UniversityName string `db:"university_name"`
	LC             string `db:"lc"`
}

func (repo refdataRepository) QueryMappings(ctx context.Context) ([]refdata.UniversityMapping, error) {
	var rows []mappingRow
	b := psql.Select("university_name", "lc").From("university_mapping").OrderBy("university_name")
	if err := selectContext(ctx, repo.db, &rows, b, "querying university mapping"); err != nil {
		return nil, err
	}
	ms := make([]refdata.UniversityMapping, 0, len(rows))
	for _, r := range rows {
		ms = append(ms, refdata.UniversityMapping{UniversityName: r.UniversityName, LC: r.LC})
	}
	return ms, nil
}

func (repo refdataRepository) UpsertMappings(ctx context.Context, ms ...refdata.UniversityMapping) error {
	for _, c := range chunks(len(ms)) {
		b := psql.Insert("university_mapping").Columns("university_name", "lc").
			Suffix("ON CONFLICT (university_name) DO UPDATE SET lc = EXCLUDED.lc")
		for _, m := range ms[c[0]:c[1]] {
			b = b.Values(m.UniversityName, m.LC)
		}
		if _, err := execContext(ctx, repo.db, b, "upserting university mapping"); err != nil {
			return err
		}
	}
	return nil
}

type phaseRow struct {
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

func (repo refdataRepository) QueryPhases(ctx context.Context) ([]refdata.Phase, error) {
	var rows []phaseRow
	b := psql.Select("code", "name", "start_date", "end_date").From("phases").OrderBy("start_date")
	if err := selectContext(ctx, repo.db, &rows, b, "querying phases"); err != nil {
		return nil, err
	}
	phases := make([]refdata.Phase, 0, len(rows))
	for _, r := range rows {
		phases = append(phases, refdata.Phase{Code: r.Code, Name: r.Name, StartDate: r.StartDate.UTC(), EndDate: r.EndDate.UTC()})
	}
	return phases, nil
}

func (repo refdataRepository) UpsertPhase(ctx context.Context, p refdata.Phase) error {
	b := psql.Insert("phases").Columns("code", "name", "start_date", "end_date").
		Values(p.Code, p.Name, p.StartDate.UTC(), p.EndDate.UTC()).
		Suffix("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date")
	_, err := execContext(ctx, repo.db, b, "upserting phase")
	return err
}

type goalRow struct {
	LC        string `db:"lc"`
	PhaseCode string `db:"phase_code"`
	Target    int    `db:"target"`
}

func (repo refdataRepository) QueryGoals(ctx context.Context) ([]refdata.Goal, error) {
	var rows []goalRow
	b := psql.Select("lc", "phase_code", "target").From("lc_goals_phase").OrderBy("phase_code", "lc")
	if err := selectContext(ctx, repo.db, &rows, b, "querying goals"); err != nil {
		return nil, err
	}
	goals := make([]refdata.Goal, 0, len(rows))
	for _, r := range rows {
		goals = append(goals, refdata.Goal{LC: r.LC, PhaseCode: r.PhaseCode, Target: r.Target})
	}
	return goals, nil
}

func (repo refdataRepository) UpsertGoals(ctx context.Context, gs ...refdata.Goal) error {
	for _, c := range chunks(len(gs)) {
		b := psql.Insert("lc_goals_phase").Columns("lc", "phase_code", "target").
			Suffix("ON CONFLICT (lc, phase_code) DO UPDATE SET target = EXCLUDED.target")
		for _, g := range gs[c[0]:c[1]] {
			b = b.Values(g.LC, g.PhaseCode, g.Target)
		}
		if _, err := execContext(ctx, repo.db, b, "upserting goals"); err != nil {
			return err
		}
	}
	return nil
}

type utmLinkRow struct {
	ID         string    `db:"id"`
	EntityType string    `db:"entity_type"`
	EntityCode string    `db:"entity_code"`
	Term       string    `db:"term"`
	CreatedAt  time.Time `db:"created_at"`
}

func (repo refdataRepository) QueryUTMLinks(ctx context.Context) ([]refdata.UTMLink, error) {
	var rows []utmLinkRow
	b := psql.Select("id", "entity_type", "entity_code", "term", "created_at").From("utm_links").OrderBy("created_at")
	if err := selectContext(ctx, repo.db, &rows, b, "querying utm links"); err != nil {
		return nil, err
	}
	links := make([]refdata.UTMLink, 0, len(rows))
	for _, r := range rows {
		links = append(links, refdata.UTMLink{ID: r.ID, EntityType: r.EntityType, EntityCode: r.EntityCode, Term: r.Term, CreatedAt: r.CreatedAt.UTC()})
	}
	return links, nil
}

func (repo refdataRepository) CreateUTMLink(ctx context.Context, l refdata.UTMLink) error {
	b := psql.Insert("utm_links").Columns("id", "entity_type", "entity_code", "term", "created_at").
		Values(l.ID, l.EntityType, l.EntityCode, l.Term, l.CreatedAt.UTC())
	_, err := execContext(ctx, repo.db, b, "inserting utm link")
	return err
}

func (repo refdataRepository) DeleteUTMLink(ctx context.Context, id string) error {
	n, err := execContext(ctx, repo.db, psql.Delete("utm_links").Where(sq.Eq{"id::text": id}), "deleting utm link")
	if err != nil {
		return err
	}
	if n == 0 {
		return refdata.ErrNotFound
	}
	return nil
}
