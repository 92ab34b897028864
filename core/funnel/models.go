package funnel

import (
	"time"

	"github.com/aiesec-vn/ogvhub/core/lead"
)

type StageName string

const (
	StageContact StageName = "contact"
	StageCM      StageName = "cm"
	StageAPL     StageName = "apl"
)

var Stages = []StageName{StageContact, StageCM, StageAPL}

// Stage is the progress of one funnel step. TimeDone is set iff Done.
type Stage struct {
	Deadline    *time.Time `json:"deadline"`
	Done        bool       `json:"done"`
	TimeDone    *time.Time `json:"time_done"`
	ProcessDays *float64   `json:"process_days"`
}

// Record tracks one submission through Contact -> CM -> APL.
type Record struct {
	SubmissionID      string     `json:"submission_id"`
	ContactAssignDate *time.Time `json:"contact_assign_date"`
	Contact           Stage      `json:"contact"`
	CM                Stage      `json:"cm"`
	APL               Stage      `json:"apl"`
	TotalProcessDays  *float64   `json:"total_process_days"`
	Notes             string     `json:"notes"`
	CreatedAt         time.Time  `json:"created_at"` // UTC
	UpdatedAt         time.Time  `json:"updated_at"` // UTC
}

func (r *Record) Stage(name StageName) *Stage {
	switch name {
	case StageContact:
		return &r.Contact
	case StageCM:
		return &r.CM
	case StageAPL:
		return &r.APL
	}
	return nil
}

// NewRecord returns the default record materialized for a submission.
func NewRecord(sub lead.Submission, now time.Time) Record {
	assigned := sub.Timestamp.UTC()
	now = now.UTC()
	return Record{
		SubmissionID:      sub.ID,
		ContactAssignDate: &assigned,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

type Statuses struct {
	Contact Status `json:"contact"`
	CM      Status `json:"cm"`
	APL     Status `json:"apl"`
}

// Row is one line of the funnel board.
type Row struct {
	Submission lead.Submission `json:"submission"`
	Record     Record          `json:"record"`
	Statuses   Statuses        `json:"statuses"`
}

// StagePatch is a partial update of a stage; nil fields are left untouched.
type StagePatch struct {
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
	Done          *bool      `json:"done"`
	TimeDone      *time.Time `json:"time_done"`
}

func (p *StagePatch) isEmpty() bool {
	return p == nil || (p.Deadline == nil && !p.ClearDeadline && p.Done == nil && p.TimeDone == nil)
}

// Patch is a partial update of a Record.
type Patch struct {
	ContactAssignDate *time.Time  `json:"contact_assign_date"`
	Contact           *StagePatch `json:"contact"`
	CM                *StagePatch `json:"cm"`
	APL               *StagePatch `json:"apl"`
	Notes             *string     `json:"notes" validate:"omitempty,max=2000"`
}

func (p Patch) IsEmpty() bool {
	return p.ContactAssignDate == nil && p.Contact.isEmpty() && p.CM.isEmpty() && p.APL.isEmpty() && p.Notes == nil
}

type QueryFilter struct {
	LC     string `query:"lc"`
	Search string `query:"search"`
}
