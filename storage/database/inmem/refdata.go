package inmemdb

import (
	"context"
	"sort"

	"github.com/aiesec-vn/ogvhub/core/refdata"
)

type refdataRepository struct {
	db *refdataTables
}

var _ refdata.Repository = (*refdataRepository)(nil) // interface compliance check

func NewRefdataRepository(db *DB) *refdataRepository {
	return &refdataRepository{db: db.refdata}
}

func (repo *refdataRepository) QueryMappings(context.Context) ([]refdata.UniversityMapping, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	ms := make([]refdata.UniversityMapping, 0, len(repo.db.mappings))
	for name, lc := range repo.db.mappings {
		ms = append(ms, refdata.UniversityMapping{UniversityName: name, LC: lc})
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].UniversityName < ms[j].UniversityName })
	return ms, nil
}

func (repo *refdataRepository) UpsertMappings(_ context.Context, ms ...refdata.UniversityMapping) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, m := range ms {
		repo.db.mappings[m.UniversityName] = m.LC
	}
	return nil
}

func (repo *refdataRepository) QueryPhases(context.Context) ([]refdata.Phase, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	phases := make([]refdata.Phase, 0, len(repo.db.phases))
	for _, p := range repo.db.phases {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].StartDate.Before(phases[j].StartDate) })
	return phases, nil
}

func (repo *refdataRepository) UpsertPhase(_ context.Context, p refdata.Phase) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.phases[p.Code] = p
	return nil
}

func (repo *refdataRepository) QueryGoals(context.Context) ([]refdata.Goal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	goals := make([]refdata.Goal, 0, len(repo.db.goals))
	for _, g := range repo.db.goals {
		goals = append(goals, g)
	}
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].PhaseCode != goals[j].PhaseCode {
			return goals[i].PhaseCode < goals[j].PhaseCode
		}
		return goals[i].LC < goals[j].LC
	})
	return goals, nil
}

func (repo *refdataRepository) UpsertGoals(_ context.Context, gs ...refdata.Goal) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, g := range gs {
		repo.db.goals[[2]string{g.LC, g.PhaseCode}] = g
	}
	return nil
}

func (repo *refdataRepository) QueryUTMLinks(context.Context) ([]refdata.UTMLink, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	links := make([]refdata.UTMLink, 0, len(repo.db.links))
	for _, l := range repo.db.links {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID < links[j].ID
	})
	return links, nil
}

func (repo *refdataRepository) CreateUTMLink(_ context.Context, l refdata.UTMLink) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.links[l.ID] = l
	return nil
}

func (repo *refdataRepository) DeleteUTMLink(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.links[id]; !ok {
		return refdata.ErrNotFound
	}
	delete(repo.db.links, id)
	return nil
}
