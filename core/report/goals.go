package report

import (
	"sort"

	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

type GoalProgress struct {
	LC      string  `json:"lc"`
	Count   int     `json:"count"`
	Target  int     `json:"target"`
	Percent float64 `json:"percent"`
}

// ComputeGoalProgress counts the submissions of each LC received during the phase
// against that LC's target. LCs without a goal are listed with a zero target;
// unallocated submissions are left out.
func ComputeGoalProgress(subs []lead.Submission, goals []refdata.Goal, phase refdata.Phase) []GoalProgress {
	byLC := make(map[string]*GoalProgress)
	get := func(lc string) *GoalProgress {
		gp, ok := byLC[lc]
		if !ok {
			gp = &GoalProgress{LC: lc}
			byLC[lc] = gp
		}
		return gp
	}
	for _, g := range refdata.FilterGoals(goals, phase.Code) {
		get(g.LC).Target += g.Target
	}
	for _, s := range subs {
		if s.IsUnallocated() || !phase.Contains(s.Timestamp) {
			continue
		}
		get(*s.AllocatedLC).Count++
	}

	out := make([]GoalProgress, 0, len(byLC))
	for _, gp := range byLC {
		gp.Percent = Percent(gp.Count, gp.Target)
		out = append(out, *gp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LC < out[j].LC })
	return out
}

// TargetFor sums the phase targets of lc, or of every LC when lc is empty.
func TargetFor(goals []refdata.Goal, phaseCode, lc string) int {
	total := 0
	for _, g := range refdata.FilterGoals(goals, phaseCode) {
		if lc == "" || g.LC == lc {
			total += g.Target
		}
	}
	return total
}
