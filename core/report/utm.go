package report

import (
	"math"
	"strings"

	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

// Attribution classifies where a submission came from.
type Attribution struct {
	HasUTM     bool `json:"has_utm"`
	IsOrganic  bool `json:"is_organic"`
	IsOwn      bool `json:"is_own"`
	IsNational bool `json:"is_national"`
	IsOther    bool `json:"is_other"`
	IsNotFound bool `json:"is_not_found"`
}

// containsFold reports whether needle is a case-insensitive substring of hay.
// An empty needle never matches.
func containsFold(hay, needle string) bool {
	needle = strings.TrimSpace(needle)
	return needle != "" && strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
}

// ClassifyUTM attributes a submission against the registered UTM links.
// A registered term matches when it contains the submission's value; short
// terms therefore over-match.
func ClassifyUTM(sub lead.Submission, links []refdata.UTMLink) Attribution {
	a := Attribution{HasUTM: !sub.UTM.IsEmpty(), IsOrganic: sub.IsUnallocated()}
	for _, l := range links {
		if l.IsNational() && containsFold(l.Term, sub.UTM.Term) {
			a.IsNational = true
		}
		if !a.IsOrganic && l.BelongsTo(*sub.AllocatedLC) && containsFold(l.Term, sub.UTM.Source) {
			a.IsOwn = true
		}
	}
	source := strings.TrimSpace(sub.UTM.Source)
	a.IsOther = a.HasUTM && !a.IsOwn && !a.IsNational && source != ""
	a.IsNotFound = a.HasUTM && !a.IsNational && source == ""
	return a
}

// UTMSummary counts attribution buckets over a submission set.
type UTMSummary struct {
	Total             int `json:"total"`
	WithUTM           int `json:"with_utm"`
	Own               int `json:"own"`
	National          int `json:"national"`
	Organic           int `json:"organic"`
	NationalOrOrganic int `json:"national_or_organic"`
	Other             int `json:"other"`
	NotFound          int `json:"not_found"`

	OwnPercent               float64 `json:"own_percent"`
	NationalOrOrganicPercent float64 `json:"national_or_organic_percent"`
	OtherPercent             float64 `json:"other_percent"`
	NotFoundPercent          float64 `json:"not_found_percent"`

	Goal         int     `json:"goal"`
	GoalProgress float64 `json:"goal_progress"`
}

func SummarizeUTM(subs []lead.Submission, links []refdata.UTMLink, goal int) UTMSummary {
	sum := UTMSummary{Total: len(subs), Goal: goal}
	for _, s := range subs {
		a := ClassifyUTM(s, links)
		if a.HasUTM {
			sum.WithUTM++
		}
		if a.IsOwn {
			sum.Own++
		}
		if a.IsNational {
			sum.National++
		}
		if a.IsOrganic {
			sum.Organic++
		}
		if a.IsNational || a.IsOrganic {
			sum.NationalOrOrganic++
		}
		if a.IsOther {
			sum.Other++
		}
		if a.IsNotFound {
			sum.NotFound++
		}
	}
	sum.OwnPercent = Percent(sum.Own, sum.Total)
	sum.NationalOrOrganicPercent = Percent(sum.NationalOrOrganic, sum.Total)
	sum.OtherPercent = Percent(sum.Other, sum.Total)
	sum.NotFoundPercent = Percent(sum.NotFound, sum.Total)
	sum.GoalProgress = Percent(sum.Total, goal)
	return sum
}

// Percent returns part/whole as a percentage rounded to 2 decimals, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
