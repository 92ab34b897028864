package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/aiesec-vn/ogvhub/core/profile"
)

var profileColumns = []string{"id", "email", "full_name", "role", "lc", "is_active", "created_at", "updated_at"}

type profileRow struct {
	ID        string      `db:"id"`
	Email     string      `db:"email"`
	FullName  string      `db:"full_name"`
	Role      string      `db:"role"`
	LC        null.String `db:"lc"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r profileRow) profile() profile.Profile {
	return profile.Profile{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		Role:      r.Role,
		LC:        r.LC.Ptr(),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo profileRepository) get(ctx context.Context, where sq.Sqlizer, msg string) (profile.Profile, error) {
	var row profileRow
	b := psql.Select(profileColumns...).From("profiles").Where(where)
	if err := getContext(ctx, repo.db, &row, b, profile.ErrNotFound, msg); err != nil {
		return profile.Profile{}, err
	}
	return row.profile(), nil
}

func (repo profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	var row profileRow
	b := psql.Insert("profiles").Columns(profileColumns...).
		Values(p.ID, p.Email, p.FullName, p.Role, null.StringFromPtr(p.LC), p.IsActive, p.CreatedAt.UTC(), p.UpdatedAt.UTC()).
		Suffix("RETURNING id::text, email, full_name, role, lc, is_active, created_at, updated_at")
	if err := getContext(ctx, repo.db, &row, b, profile.ErrNotFound, "inserting profile"); err != nil {
		return profile.Profile{}, err
	}
	return row.profile(), nil
}

func (repo profileRepository) QueryProfiles(ctx context.Context, filter profile.QueryFilter) ([]profile.Profile, error) {
	b := psql.Select(profileColumns...).From("profiles")
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		b = b.Where(sq.Or{sq.ILike{"full_name": val}, sq.ILike{"email": val}})
	}
	if filter.Role != "" {
		b = b.Where(sq.Eq{"role": filter.Role})
	}
	if filter.LC != "" {
		b = b.Where(sq.Eq{"lower(lc)": strings.ToLower(filter.LC)})
	}
	if filter.IsActive != nil {
		b = b.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	b = b.OrderBy("full_name", "email")

	var rows []profileRow
	if err := selectContext(ctx, repo.db, &rows, b, "querying profiles"); err != nil {
		return nil, err
	}
	ps := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		ps = append(ps, r.profile())
	}
	return ps, nil
}

func (repo profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return profile.Profile{}, profile.ErrNotFound
	}
	return repo.get(ctx, sq.Eq{"id": id}, "getting profile by id")
}

func (repo profileRepository) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	return repo.get(ctx, sq.Eq{"email": email}, "getting profile by email")
}

func (repo profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	var row profileRow
	b := psql.Update("profiles").
		Set("full_name", p.FullName).
		Set("role", p.Role).
		Set("lc", null.StringFromPtr(p.LC)).
		Set("is_active", p.IsActive).
		Set("updated_at", p.UpdatedAt.UTC()).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING id::text, email, full_name, role, lc, is_active, created_at, updated_at")
	if err := getContext(ctx, repo.db, &row, b, profile.ErrNotFound, "updating profile"); err != nil {
		return profile.Profile{}, err
	}
	return row.profile(), nil
}
