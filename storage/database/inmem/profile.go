package inmemdb

import (
	"context"
	"sort"

	"github.com/aiesec-vn/ogvhub/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, other := range repo.db.table {
		if other.Email == p.Email {
			return profile.Profile{}, profile.ErrEmailExists
		}
	}
	repo.db.table[p.ID] = p
	return p, nil
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter profile.QueryFilter) ([]profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	ps := make([]profile.Profile, 0)
	for _, p := range repo.db.table {
		if filter.Matches(p) {
			ps = append(ps, p)
		}
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].FullName != ps[j].FullName {
			return ps[i].FullName < ps[j].FullName
		}
		return ps[i].Email < ps[j].Email
	})
	return ps, nil
}

func (repo *profileRepository) GetProfileByID(_ context.Context, id string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if p, ok := repo.db.table[id]; ok {
		return p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) GetProfileByEmail(_ context.Context, email string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, p := range repo.db.table {
		if p.Email == email {
			return p, nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	orig, ok := repo.db.table[p.ID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	p.Email = orig.Email
	p.CreatedAt = orig.CreatedAt
	repo.db.table[p.ID] = p
	return p, nil
}
