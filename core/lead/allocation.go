package lead

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
)

var (
	ErrInvalidLC = errors.New("invalid LC code")
	ErrDowngrade = errors.New("cannot replace a specific LC with a regional code")
)

// PlanAutoAllocations returns an allocation for every unallocated submission whose
// university resolves.
func PlanAutoAllocations(subs []Submission, m Mapping) []Allocation {
	plan := make([]Allocation, 0)
	for _, s := range subs {
		if !s.IsUnallocated() {
			continue
		}
		lc, ok := ResolveSubmission(s, m)
		if !ok {
			continue
		}
		plan = append(plan, Allocation{
			SubmissionID: s.ID,
			Name:         s.Name,
			PreviousLC:   s.AllocatedLC,
			NewLC:        lc,
			Method:       MethodAuto,
		})
	}
	return plan
}

// PlanCorrections returns an allocation for every submission sitting on a regional
// code whose university now resolves to a different, specific LC.
func PlanCorrections(subs []Submission, m Mapping) []Allocation {
	plan := make([]Allocation, 0)
	for _, s := range subs {
		if s.AllocatedLC == nil || !IsRegional(*s.AllocatedLC) {
			continue
		}
		lc, ok := ResolveSubmission(s, m)
		if !ok || IsRegional(lc) || lc == *s.AllocatedLC {
			continue
		}
		plan = append(plan, Allocation{
			SubmissionID: s.ID,
			Name:         s.Name,
			PreviousLC:   s.AllocatedLC,
			NewLC:        lc,
			Method:       MethodCorrection,
		})
	}
	return plan
}

// checkTarget validates an explicitly chosen LC against the current allocation.
// A specific LC never goes back to a regional one.
func checkTarget(current *string, lc string) error {
	if lc == "" || strings.EqualFold(lc, Organic) {
		return core.NewValidationError(ErrInvalidLC, core.FieldError{Field: "lc", Error: ErrInvalidLC.Error()})
	}
	if current == nil || !IsRegional(lc) {
		return nil
	}
	cur := strings.TrimSpace(*current)
	if cur == "" || strings.EqualFold(cur, Organic) || IsRegional(cur) {
		return nil
	}
	return core.NewValidationError(ErrDowngrade, core.FieldError{Field: "lc", Error: ErrDowngrade.Error()})
}
