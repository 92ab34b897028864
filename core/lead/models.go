package lead

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Regional fallback codes. A submission allocated to one of these may later be
// corrected to a specific LC, never the other way round.
const (
	RegionHanoi  = "Hanoi"
	RegionHCMC   = "HCMC"
	RegionDanang = "Danang"
	RegionCantho = "Cantho"

	// Organic marks a submission nobody has claimed yet.
	Organic = "Organic"
)

var RegionalCodes = []string{RegionHanoi, RegionHCMC, RegionDanang, RegionCantho}

func IsRegional(code string) bool {
	for _, r := range RegionalCodes {
		if code == r {
			return true
		}
	}
	return false
}

// Demand values
const (
	DemandYE  = "YE"
	DemandAPD = "APD"
	DemandRE  = "RE"
)

// UTM holds the tracking parameters captured with a submission.
type UTM struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	ID       string `json:"utm_id"`
	Content  string `json:"utm_content"`
	Name     string `json:"utm_name"`
	Term     string `json:"utm_term"`
}

func (u UTM) IsEmpty() bool {
	return u == UTM{}
}

// Submission is one normalized form submission.
type Submission struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"` // UTC
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Facebook    string    `json:"fb"`
	BirthYear   string    `json:"birth"`
	Uni         string    `json:"uni"`
	OtherUni    string    `json:"other_uni"`
	YearOfStudy string    `json:"year_of_study"`
	Major       string    `json:"major"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Channel     string    `json:"channel"`
	Demand      string    `json:"demand"`
	UTM         UTM       `json:"utm"`
	AllocatedLC *string   `json:"allocated_lc"`
}

// IsUnallocated reports whether no LC has claimed the submission yet.
func (s Submission) IsUnallocated() bool {
	return s.AllocatedLC == nil || strings.TrimSpace(*s.AllocatedLC) == "" || strings.EqualFold(*s.AllocatedLC, Organic)
}

// LC returns the allocated LC, or Organic when unallocated.
func (s Submission) LC() string {
	if s.IsUnallocated() {
		return Organic
	}
	return *s.AllocatedLC
}

// Labels are the university labels used to resolve an LC, in priority order.
func (s Submission) Labels() []string {
	labels := make([]string, 0, 2)
	for _, l := range []string{s.Uni, s.OtherUni} {
		if strings.TrimSpace(l) != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// RawRecord is a submission row as stored: top-level columns plus a nested
// payload under PayloadKey.
type RawRecord map[string]interface{}

const PayloadKey = "form_data"

type Method string

const (
	MethodAuto       Method = "auto"
	MethodCorrection Method = "correction"
	MethodManual     Method = "manual"
	MethodBulk       Method = "bulk"
)

// AllocationLog is an append-only audit entry.
type AllocationLog struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID string    `json:"submission_id"`
	PreviousLC   *string   `json:"previous_lc"`
	NewLC        string    `json:"new_lc"`
	Method       Method    `json:"method"`
	Actor        string    `json:"actor"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// Allocation is a planned change of allocated LC.
type Allocation struct {
	SubmissionID string  `json:"submission_id"`
	Name         string  `json:"name"`
	PreviousLC   *string `json:"previous_lc"`
	NewLC        string  `json:"new_lc"`
	Method       Method  `json:"method"`
}

// AllocationResult is the outcome of applying one Allocation.
type AllocationResult struct {
	Allocation
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

func (r AllocationResult) Failed() bool { return r.Err != nil }

// BatchResult collects per-item outcomes of a batch allocation. Failures never abort a batch.
type BatchResult struct {
	Results []AllocationResult `json:"results"`
	Applied int                `json:"applied"`
	Failed  int                `json:"failed"`
}

func (b *BatchResult) add(r AllocationResult) {
	if r.Err != nil {
		r.Error = r.Err.Error()
	}
	b.Results = append(b.Results, r)
	if r.Failed() {
		b.Failed++
	} else {
		b.Applied++
	}
}

// Errors lists the failure messages keyed by submission id.
func (b BatchResult) Errors() map[string]string {
	errs := make(map[string]string, b.Failed)
	for _, r := range b.Results {
		if r.Failed() {
			errs[r.SubmissionID] = r.Err.Error()
		}
	}
	return errs
}

type QueryFilter struct {
	LC          string    `query:"lc"`
	Unallocated bool      `query:"unallocated"`
	Phase       string    `query:"phase"`
	Search      string    `query:"search"`
	From        time.Time `query:"-"` // inclusive
	To          time.Time `query:"-"` // exclusive
	IDs         []string  `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.LC = strings.TrimSpace(qf.LC)
	qf.Search = strings.TrimSpace(qf.Search)
	if strings.EqualFold(qf.LC, Organic) {
		qf.LC = ""
		qf.Unallocated = true
	}
}

// Matches applies the in-memory part of the filter (search) to a normalized submission.
func (qf QueryFilter) Matches(s Submission) bool {
	if qf.Search == "" {
		return true
	}
	needle := strings.ToLower(qf.Search)
	for _, hay := range []string{s.Name, s.Email, s.Phone, s.Uni, s.OtherUni} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// UnresolvedLabel groups unallocated submissions sharing a university label nobody maps yet.
type UnresolvedLabel struct {
	Label       string       `json:"label"`
	Count       int          `json:"count"`
	Suggestions []Suggestion `json:"suggestions"`
}
