package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
)

type leadRepository struct {
	db  *submissionTable
	log *allocLogTable
}

var _ lead.Repository = (*leadRepository)(nil) // interface compliance check

func NewLeadRepository(db *DB) *leadRepository {
	return &leadRepository{db: db.submission, log: db.allocLog}
}

func copyRaw(raw lead.RawRecord) lead.RawRecord {
	cp := make(lead.RawRecord, len(raw))
	for k, v := range raw {
		cp[k] = v
	}
	return cp
}

// InsertSubmissions stores raw rows as the form ingestion would. Rows need an "id".
func (repo *leadRepository) InsertSubmissions(raws ...lead.RawRecord) {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, raw := range raws {
		if id, ok := raw["id"].(string); ok && id != "" {
			repo.db.table[id] = copyRaw(raw)
		}
	}
}

func matchesStore(s lead.Submission, filter lead.QueryFilter, ids map[string]bool) bool {
	if filter.LC != "" && core.StringValue(s.AllocatedLC) != filter.LC {
		return false
	}
	if filter.Unallocated && !s.IsUnallocated() {
		return false
	}
	if !filter.From.IsZero() && s.Timestamp.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !s.Timestamp.Before(filter.To) {
		return false
	}
	if ids != nil && !ids[s.ID] {
		return false
	}
	return true
}

func (repo *leadRepository) QueryRawSubmissions(_ context.Context, filter lead.QueryFilter, page core.Page) ([]lead.RawRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids map[string]bool
	if len(filter.IDs) > 0 {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	type entry struct {
		sub lead.Submission
		raw lead.RawRecord
	}
	entries := make([]entry, 0, len(repo.db.table))
	for _, raw := range repo.db.table {
		s := lead.Normalize(raw, time.Time{})
		if matchesStore(s, filter, ids) {
			entries = append(entries, entry{s, raw})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].sub, entries[j].sub
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})

	if page.Limit > 0 {
		if page.Offset >= len(entries) {
			entries = entries[:0]
		} else {
			end := page.Offset + page.Limit
			if end > len(entries) {
				end = len(entries)
			}
			entries = entries[page.Offset:end]
		}
	}
	raws := make([]lead.RawRecord, 0, len(entries))
	for _, e := range entries {
		raws = append(raws, copyRaw(e.raw))
	}
	return raws, nil
}

func (repo *leadRepository) GetRawSubmission(_ context.Context, id string) (lead.RawRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if raw, ok := repo.db.table[id]; ok {
		return copyRaw(raw), nil
	}
	return nil, lead.ErrNotFound
}

func (repo *leadRepository) SetAllocatedLC(_ context.Context, id, lc string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	raw, ok := repo.db.table[id]
	if !ok {
		return lead.ErrNotFound
	}
	raw["allocated_lc"] = lc
	return nil
}

func (repo *leadRepository) BulkSetAllocatedLC(_ context.Context, ids []string, lc string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		if raw, ok := repo.db.table[id]; ok {
			raw["allocated_lc"] = lc
		}
	}
	return nil
}

func (repo *leadRepository) CreateAllocationLogs(_ context.Context, logs ...lead.AllocationLog) error {
	repo.log.Lock()
	defer repo.log.Unlock()
	repo.log.rows = append(repo.log.rows, logs...)
	return nil
}

// AllocationLogs returns the audit trail, oldest first.
func (repo *leadRepository) AllocationLogs() []lead.AllocationLog {
	repo.log.RLock()
	defer repo.log.RUnlock()
	return append([]lead.AllocationLog(nil), repo.log.rows...)
}
