package lead

import (
	"context"
	"net/mail"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiesec-vn/ogvhub/core"
)

type fakeRepo struct {
	mu        sync.Mutex
	rows      map[string]RawRecord
	logs      []AllocationLog
	failSet   map[string]bool
	failLogs  bool
	failBulk  bool
	bulkCalls int
}

func newFakeRepo(rows ...RawRecord) *fakeRepo {
	repo := &fakeRepo{rows: make(map[string]RawRecord), failSet: make(map[string]bool)}
	for _, r := range rows {
		repo.rows[r["id"].(string)] = r
	}
	return repo
}

func (r *fakeRepo) QueryRawSubmissions(_ context.Context, filter QueryFilter, page core.Page) ([]RawRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.rows))
	for k := range r.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	wanted := make(map[string]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		wanted[id] = true
	}
	out := make([]RawRecord, 0)
	for _, k := range keys {
		row := r.rows[k]
		s := Normalize(row, time.Now())
		if filter.Unallocated && !s.IsUnallocated() {
			continue
		}
		if filter.LC != "" && s.LC() != filter.LC {
			continue
		}
		if len(wanted) > 0 && !wanted[k] {
			continue
		}
		out = append(out, row)
	}
	if page.Offset >= len(out) {
		return []RawRecord{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[page.Offset:end], nil
}

func (r *fakeRepo) GetRawSubmission(_ context.Context, id string) (RawRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		return row, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) SetAllocatedLC(_ context.Context, id, lc string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet[id] {
		return errors.New("write refused")
	}
	r.rows[id]["allocated_lc"] = lc
	return nil
}

func (r *fakeRepo) BulkSetAllocatedLC(_ context.Context, ids []string, lc string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkCalls++
	if r.failBulk {
		return errors.New("bulk refused")
	}
	for _, id := range ids {
		r.rows[id]["allocated_lc"] = lc
	}
	return nil
}

func (r *fakeRepo) CreateAllocationLogs(_ context.Context, logs ...AllocationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLogs {
		return errors.New("log table unavailable")
	}
	r.logs = append(r.logs, logs...)
	return nil
}

func (r *fakeRepo) lcOf(id string) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]["allocated_lc"]
}

type staticMapping Mapping

func (m staticMapping) Mapping(context.Context) (Mapping, error) { return Mapping(m), nil }

type recordingNotifier struct {
	allocs []Allocation
}

func (n *recordingNotifier) NotifyAllocations(_ context.Context, allocs []Allocation) {
	n.allocs = append(n.allocs, allocs...)
}

type warnCounter struct {
	core.Logger
	warns int
}

func (l *warnCounter) Warn(string, ...interface{}) { l.warns++ }

func newTestService(repo Repository, m Mapping, notifier Notifier, logger core.Logger) *Service {
	conf := core.NewTestConfig()
	conf.Database.PageSize = 2 // force paging
	return NewService(repo, staticMapping(m), notifier, logger, conf)
}

func row(id, uni string, lc interface{}) RawRecord {
	return RawRecord{"id": id, "timestamp": "2024-03-01T00:00:00Z", "name": "N" + id, "uni": uni, "allocated_lc": lc}
}

func TestService_AutoAllocate(t *testing.T) {
	repo := newFakeRepo(
		row("1", "FTU", nil),
		row("2", "Hanoi - Unknown", nil),
		row("3", "Nowhere", nil),
		row("4", "FTU", "NEU"),
		row("5", "FTU", "Organic"),
	)
	repo.failSet["5"] = true
	notifier := &recordingNotifier{}
	svc := newTestService(repo, Mapping{"FTU": "FTU"}, notifier, core.NewNopLogger())

	res, err := svc.AutoAllocate(context.Background(), core.SystemActor)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors(), "5")
	assert.Equal(t, "FTU", repo.lcOf("1"))
	assert.Equal(t, RegionHanoi, repo.lcOf("2"))
	assert.Nil(t, repo.lcOf("3"))
	assert.Equal(t, "NEU", repo.lcOf("4"))
	assert.Equal(t, "Organic", repo.lcOf("5"))

	require.Len(t, repo.logs, 2)
	for _, l := range repo.logs {
		assert.Equal(t, MethodAuto, l.Method)
		assert.Equal(t, "system", l.Actor)
	}
	assert.Len(t, notifier.allocs, 2)
}

func TestService_CorrectAllocations(t *testing.T) {
	repo := newFakeRepo(
		row("1", "FTU", RegionHanoi),
		row("2", "Hanoi - Unknown", RegionHanoi),
		row("3", "FTU", "NEU"),
	)
	svc := newTestService(repo, Mapping{"FTU": "FTU"}, nil, core.NewNopLogger())

	res, err := svc.CorrectAllocations(context.Background(), core.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, "FTU", repo.lcOf("1"))
	assert.Equal(t, RegionHanoi, repo.lcOf("2"))
	assert.Equal(t, "NEU", repo.lcOf("3"))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, MethodCorrection, repo.logs[0].Method)
	assert.Equal(t, RegionHanoi, *repo.logs[0].PreviousLC)
}

func TestService_ManualAllocate(t *testing.T) {
	actor := core.Actor{ID: "u1", Email: "admin@aiesec.vn"}

	t.Run("sets lc and logs", func(t *testing.T) {
		repo := newFakeRepo(row("1", "x", nil))
		svc := newTestService(repo, nil, nil, core.NewNopLogger())

		sub, err := svc.ManualAllocate(context.Background(), "1", " FTU ", actor)
		require.NoError(t, err)
		assert.Equal(t, "FTU", *sub.AllocatedLC)
		assert.Equal(t, "FTU", repo.lcOf("1"))
		require.Len(t, repo.logs, 1)
		assert.Equal(t, MethodManual, repo.logs[0].Method)
		assert.Nil(t, repo.logs[0].PreviousLC)
		assert.Equal(t, "admin@aiesec.vn", repo.logs[0].Actor)
	})

	t.Run("log failure only warns", func(t *testing.T) {
		repo := newFakeRepo(row("1", "x", "NEU"))
		repo.failLogs = true
		logger := &warnCounter{Logger: core.NewNopLogger()}
		svc := newTestService(repo, nil, nil, logger)

		_, err := svc.ManualAllocate(context.Background(), "1", "FTU", actor)
		require.NoError(t, err)
		assert.Equal(t, "FTU", repo.lcOf("1"))
		assert.Equal(t, 1, logger.warns)
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), nil, nil, core.NewNopLogger())
		_, err := svc.ManualAllocate(context.Background(), "nope", "FTU", actor)
		assert.Equal(t, ErrNotFound, errors.Cause(err))
	})

	t.Run("specific to regional rejected", func(t *testing.T) {
		repo := newFakeRepo(row("1", "x", "NEU"))
		svc := newTestService(repo, nil, nil, core.NewNopLogger())
		_, err := svc.ManualAllocate(context.Background(), "1", RegionHanoi, actor)
		assert.True(t, core.IsValidationError(err))
		assert.Equal(t, "NEU", repo.lcOf("1"))
		assert.Empty(t, repo.logs)
	})
}

func TestService_BulkAllocate(t *testing.T) {
	actor := core.Actor{Email: "admin@aiesec.vn"}

	t.Run("single store call", func(t *testing.T) {
		repo := newFakeRepo(row("1", "x", nil), row("2", "x", RegionHanoi), row("3", "x", nil))
		svc := newTestService(repo, nil, nil, core.NewNopLogger())

		res, err := svc.BulkAllocate(context.Background(), []string{"1", "2", "1", " "}, "FTU", actor)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Applied)
		assert.Equal(t, 1, repo.bulkCalls)
		assert.Equal(t, "FTU", repo.lcOf("1"))
		assert.Equal(t, "FTU", repo.lcOf("2"))
		assert.Nil(t, repo.lcOf("3"))
		assert.Len(t, repo.logs, 2)
	})

	t.Run("unknown id fails the whole batch", func(t *testing.T) {
		repo := newFakeRepo(row("1", "x", nil))
		svc := newTestService(repo, nil, nil, core.NewNopLogger())
		_, err := svc.BulkAllocate(context.Background(), []string{"1", "404"}, "FTU", actor)
		assert.True(t, core.IsValidationError(err))
		assert.Equal(t, 0, repo.bulkCalls)
		assert.Nil(t, repo.lcOf("1"))
	})

	t.Run("store failure", func(t *testing.T) {
		repo := newFakeRepo(row("1", "x", nil))
		repo.failBulk = true
		svc := newTestService(repo, nil, nil, core.NewNopLogger())
		_, err := svc.BulkAllocate(context.Background(), []string{"1"}, "FTU", actor)
		assert.Error(t, err)
		assert.Nil(t, repo.lcOf("1"))
		assert.Empty(t, repo.logs)
	})

	t.Run("no ids", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), nil, nil, core.NewNopLogger())
		_, err := svc.BulkAllocate(context.Background(), nil, "FTU", actor)
		assert.True(t, core.IsValidationError(err))
	})
}

func TestService_Views(t *testing.T) {
	repo := newFakeRepo(
		RawRecord{"id": "1", "timestamp": "2024-03-01T00:00:00Z", "phone": "0901", "name": "Old"},
		RawRecord{"id": "2", "timestamp": "2024-03-03T00:00:00Z", "phone": "0901", "name": "New"},
		RawRecord{"id": "3", "timestamp": "2024-03-02T00:00:00Z", "email": "z@x", "name": "Zed"},
	)
	svc := newTestService(repo, nil, nil, core.NewNopLogger())
	ctx := context.Background()

	raws, err := svc.Raw(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, raws, 3)

	subs, err := svc.List(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1"}, ids(subs))

	cleaned, err := svc.Cleaned(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(cleaned))

	searched, err := svc.List(ctx, QueryFilter{Search: "ZED"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(searched))
}

func TestService_Unresolved(t *testing.T) {
	repo := newFakeRepo(
		row("1", "Foreign Trade Univ", nil),
		row("2", "Foreign Trade Univ", nil),
		row("3", "FTU", nil),
		row("4", "Zzz", nil),
	)
	svc := newTestService(repo, Mapping{"FTU": "FTU", "Foreign Trade University": "FTU"}, nil, core.NewNopLogger())

	groups, err := svc.Unresolved(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Foreign Trade Univ", groups[0].Label)
	assert.Equal(t, 2, groups[0].Count)
	require.NotEmpty(t, groups[0].Suggestions)
	assert.Equal(t, "Foreign Trade University", groups[0].Suggestions[0].Label)
	assert.Equal(t, "Zzz", groups[1].Label)
	assert.Empty(t, groups[1].Suggestions)
}

type staticRecipients map[string][]mail.Address

func (r staticRecipients) LCRecipients(_ context.Context, lc string) ([]mail.Address, error) {
	return r[lc], nil
}

type capturingMail struct {
	messages []*core.EmailMessage
}

func (m *capturingMail) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

func TestDigestNotifier(t *testing.T) {
	mailSvc := &capturingMail{}
	n := NewDigestNotifier(
		staticRecipients{"FTU": {{Name: "FTU VP", Address: "vp@ftu"}}},
		mailSvc,
		core.NewNopLogger(),
	)
	n.NotifyAllocations(context.Background(), []Allocation{
		{SubmissionID: "1", NewLC: "FTU"},
		{SubmissionID: "2", NewLC: "FTU"},
		{SubmissionID: "3", NewLC: "NEU"}, // nobody to tell
	})

	require.Len(t, mailSvc.messages, 1)
	msg := mailSvc.messages[0]
	assert.Equal(t, "vp@ftu", msg.To[0].Address)
	assert.Equal(t, "2 new lead(s) allocated to FTU", msg.Subject)
	assert.Equal(t, 2, msg.TemplateData.(DigestData).Count)
}
