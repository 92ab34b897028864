package inmemdb

import (
	"context"

	"github.com/aiesec-vn/ogvhub/core/funnel"
)

type funnelRepository struct {
	db *crmTable
}

var _ funnel.Repository = (*funnelRepository)(nil) // interface compliance check

func NewFunnelRepository(db *DB) *funnelRepository {
	return &funnelRepository{db: db.crm}
}

func (repo *funnelRepository) QueryRecords(_ context.Context, ids []string) ([]funnel.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	recs := make([]funnel.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := repo.db.table[id]; ok {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (repo *funnelRepository) GetRecord(_ context.Context, submissionID string) (funnel.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if rec, ok := repo.db.table[submissionID]; ok {
		return rec, nil
	}
	return funnel.Record{}, funnel.ErrNotFound
}

func (repo *funnelRepository) CreateRecords(_ context.Context, recs ...funnel.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, rec := range recs {
		if _, ok := repo.db.table[rec.SubmissionID]; !ok {
			repo.db.table[rec.SubmissionID] = rec
		}
	}
	return nil
}

func (repo *funnelRepository) UpdateRecord(_ context.Context, rec funnel.Record) (funnel.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	orig, ok := repo.db.table[rec.SubmissionID]
	if !ok {
		return funnel.Record{}, funnel.ErrNotFound
	}
	rec.CreatedAt = orig.CreatedAt
	repo.db.table[rec.SubmissionID] = rec
	return rec, nil
}
