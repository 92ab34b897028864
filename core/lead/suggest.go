package lead

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// MinSuggestionRatio is the similarity below which a mapping key is not suggested.
const MinSuggestionRatio = 0.6

type Suggestion struct {
	Label string  `json:"label"`
	LC    string  `json:"lc"`
	Ratio float64 `json:"ratio"`
}

func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(dashReplacer.Replace(a)))
	b = strings.ToLower(strings.TrimSpace(dashReplacer.Replace(b)))
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// Suggest ranks the known mapping labels by similarity to `label`.
// Suggestions are advisory; nothing applies them automatically.
func Suggest(label string, m Mapping, limit int) []Suggestion {
	suggestions := make([]Suggestion, 0)
	for known, lc := range m {
		if lc == "" {
			continue
		}
		if r := similarity(label, known); r >= MinSuggestionRatio {
			suggestions = append(suggestions, Suggestion{Label: known, LC: lc, Ratio: r})
		}
	}
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Ratio != suggestions[j].Ratio {
			return suggestions[i].Ratio > suggestions[j].Ratio
		}
		return suggestions[i].Label < suggestions[j].Label
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// GroupUnresolved collects the labels of unallocated submissions that do not resolve,
// most frequent first, each with up to `limit` suggestions.
func GroupUnresolved(subs []Submission, m Mapping, limit int) []UnresolvedLabel {
	counts := make(map[string]int)
	for _, s := range subs {
		if !s.IsUnallocated() {
			continue
		}
		if _, ok := ResolveSubmission(s, m); ok {
			continue
		}
		label := strings.TrimSpace(s.Uni)
		if label == "" {
			label = strings.TrimSpace(s.OtherUni)
		}
		if label == "" {
			continue
		}
		counts[label]++
	}

	groups := make([]UnresolvedLabel, 0, len(counts))
	for label, n := range counts {
		groups = append(groups, UnresolvedLabel{Label: label, Count: n, Suggestions: Suggest(label, m, limit)})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}
