package funnel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestComputeMetrics(t *testing.T) {
	submitted := *date("2024-02-01T00:00:00Z")

	tests := []struct {
		name      string
		rec       Record
		contact   *float64
		cm        *float64
		apl       *float64
		total     *float64
	}{
		{name: "nothing done"},
		{
			name:    "contact done, assign date defaults to submission time",
			rec:     Record{Contact: Stage{Done: true, TimeDone: date("2024-02-04T00:00:00Z")}},
			contact: f(3),
		},
		{
			name: "explicit assign date",
			rec: Record{
				ContactAssignDate: date("2024-02-02T00:00:00Z"),
				Contact:           Stage{Done: true, TimeDone: date("2024-02-04T00:00:00Z")},
			},
			contact: f(2),
		},
		{
			name: "all done",
			rec: Record{
				Contact: Stage{Done: true, TimeDone: date("2024-02-02T00:00:00Z")},
				CM:      Stage{Done: true, TimeDone: date("2024-02-05T12:00:00Z")},
				APL:     Stage{Done: true, TimeDone: date("2024-02-10T00:00:00Z")},
			},
			contact: f(1), cm: f(3.5), apl: f(4.5), total: f(9),
		},
		{
			name: "cm done without contact leaves a gap",
			rec: Record{
				CM:  Stage{Done: true, TimeDone: date("2024-02-05T00:00:00Z")},
				APL: Stage{Done: true, TimeDone: date("2024-02-06T00:00:00Z")},
			},
			apl: f(1), total: f(5),
		},
		{
			name: "stale time done on an undone stage is ignored",
			rec: Record{
				Contact: Stage{Done: false, TimeDone: date("2024-02-02T00:00:00Z")},
				CM:      Stage{Done: true, TimeDone: date("2024-02-05T00:00:00Z")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMetrics(tt.rec, submitted)
			assert.Equal(t, tt.contact, got.Contact.ProcessDays, "contact")
			assert.Equal(t, tt.cm, got.CM.ProcessDays, "cm")
			assert.Equal(t, tt.apl, got.APL.ProcessDays, "apl")
			assert.Equal(t, tt.total, got.TotalProcessDays, "total")
		})
	}
}

func TestApplyPatch(t *testing.T) {
	submitted := *date("2024-02-01T00:00:00Z")
	now := *date("2024-02-03T09:00:00Z")
	yes, no := true, false

	t.Run("done sets time done to now", func(t *testing.T) {
		rec := ApplyPatch(Record{}, Patch{Contact: &StagePatch{Done: &yes}}, submitted, now)
		require.NotNil(t, rec.Contact.TimeDone)
		assert.Equal(t, now, *rec.Contact.TimeDone)
		assert.Equal(t, f(2.38), rec.Contact.ProcessDays)
		assert.Equal(t, now, rec.UpdatedAt)
	})

	t.Run("done keeps an existing time done", func(t *testing.T) {
		prev := date("2024-02-02T00:00:00Z")
		rec := ApplyPatch(Record{Contact: Stage{Done: true, TimeDone: prev}}, Patch{Contact: &StagePatch{Done: &yes}}, submitted, now)
		assert.Equal(t, prev, rec.Contact.TimeDone)
	})

	t.Run("supplied time done implies done", func(t *testing.T) {
		rec := ApplyPatch(Record{}, Patch{CM: &StagePatch{TimeDone: date("2024-02-02T00:00:00Z")}}, submitted, now)
		assert.True(t, rec.CM.Done)
		assert.Equal(t, date("2024-02-02T00:00:00Z"), rec.CM.TimeDone)
	})

	t.Run("undone clears time done", func(t *testing.T) {
		rec := Record{APL: Stage{Done: true, TimeDone: date("2024-02-02T00:00:00Z")}}
		rec = ApplyPatch(rec, Patch{APL: &StagePatch{Done: &no}}, submitted, now)
		assert.False(t, rec.APL.Done)
		assert.Nil(t, rec.APL.TimeDone)
		assert.Nil(t, rec.TotalProcessDays)
	})

	t.Run("later stage may be done first", func(t *testing.T) {
		rec := ApplyPatch(Record{}, Patch{APL: &StagePatch{Done: &yes}}, submitted, now)
		assert.True(t, rec.APL.Done)
		assert.False(t, rec.CM.Done)
		assert.Nil(t, rec.APL.ProcessDays)
		assert.NotNil(t, rec.TotalProcessDays)
	})

	t.Run("deadline is stored as a UTC date", func(t *testing.T) {
		ddl := time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC)
		rec := ApplyPatch(Record{}, Patch{Contact: &StagePatch{Deadline: &ddl}}, submitted, now)
		assert.Equal(t, date("2024-02-10"), rec.Contact.Deadline)
		assert.False(t, rec.Contact.Done)

		rec = ApplyPatch(rec, Patch{Contact: &StagePatch{ClearDeadline: true}}, submitted, now)
		assert.Nil(t, rec.Contact.Deadline)
	})

	t.Run("notes and assign date", func(t *testing.T) {
		notes := "called twice"
		rec := ApplyPatch(Record{}, Patch{Notes: &notes, ContactAssignDate: date("2024-02-02T00:00:00Z")}, submitted, now)
		assert.Equal(t, notes, rec.Notes)
		assert.Equal(t, date("2024-02-02T00:00:00Z"), rec.ContactAssignDate)
	})
}

func TestTimeDoneInvariant(t *testing.T) {
	submitted := *date("2024-02-01T00:00:00Z")
	now := *date("2024-02-03T00:00:00Z")
	yes, no := true, false
	patches := []Patch{
		{Contact: &StagePatch{Done: &yes}},
		{Contact: &StagePatch{Done: &no, TimeDone: date("2024-02-02T00:00:00Z")}},
		{Contact: &StagePatch{TimeDone: date("2024-02-02T00:00:00Z")}},
		{Contact: &StagePatch{Done: &no}},
		{Contact: &StagePatch{Deadline: date("2024-02-05")}},
	}

	rec := Record{}
	for i, p := range patches {
		rec = ApplyPatch(rec, p, submitted, now)
		for _, name := range Stages {
			s := rec.Stage(name)
			if s.Done != (s.TimeDone != nil) {
				t.Fatalf("after patch %d: stage %s done=%v timeDone=%v", i, name, s.Done, s.TimeDone)
			}
		}
	}
}
