package lead

import (
	"sort"
	"strings"
)

func dedupeKey(s Submission) string {
	if phone := strings.TrimSpace(s.Phone); phone != "" {
		return "phone:" + phone
	}
	if email := strings.ToLower(strings.TrimSpace(s.Email)); email != "" {
		return "email:" + email
	}
	return ""
}

// Dedupe keeps one submission per person (phone, else lower-cased email), the
// most recent one winning and ties going to the first seen. Submissions with
// neither are kept as-is. The result is ordered newest first.
func Dedupe(subs []Submission) []Submission {
	out := make([]Submission, 0, len(subs))
	seen := make(map[string]int, len(subs))
	for _, s := range subs {
		key := dedupeKey(s)
		if key == "" {
			out = append(out, s)
			continue
		}
		if i, ok := seen[key]; ok {
			if s.Timestamp.After(out[i].Timestamp) {
				out[i] = s
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, s)
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst sorts in place by timestamp, newest first, keeping the input order on ties.
func SortNewestFirst(subs []Submission) {
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Timestamp.After(subs[j].Timestamp) })
}
