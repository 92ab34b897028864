package lead

import "strings"

// Mapping maps full university labels to LC codes.
type Mapping map[string]string

var (
	dashReplacer = strings.NewReplacer("–", "-", "—", "-")

	// lowercase region spellings -> regional code
	regionAliases = map[string]string{
		"hanoi":       RegionHanoi,
		"ha noi":      RegionHanoi,
		"ho chi minh": RegionHCMC,
		"hcmc":        RegionHCMC,
		"hcm":         RegionHCMC,
		"tp hcm":      RegionHCMC,
		"tp. hcm":     RegionHCMC,
		"danang":      RegionDanang,
		"da nang":     RegionDanang,
		"cantho":      RegionCantho,
		"can tho":     RegionCantho,
	}
)

// Resolve maps a university label to an LC code.
// An exact mapping hit wins; otherwise the "Region - University" prefix decides a regional code.
func Resolve(label string, m Mapping) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	if lc, ok := m[label]; ok && lc != "" {
		return lc, true
	}

	normalized := dashReplacer.Replace(label)
	if normalized != label {
		if lc, ok := m[normalized]; ok && lc != "" {
			return lc, true
		}
	}

	if i := strings.Index(normalized, " - "); i >= 0 {
		region := strings.Join(strings.Fields(strings.ToLower(normalized[:i])), " ")
		if code, ok := regionAliases[region]; ok {
			return code, true
		}
	}
	return "", false
}

// ResolveSubmission resolves the submission's university labels in order,
// preferring the first specific LC over a regional one.
func ResolveSubmission(s Submission, m Mapping) (string, bool) {
	var regional string
	for _, label := range s.Labels() {
		lc, ok := Resolve(label, m)
		if !ok {
			continue
		}
		if !IsRegional(lc) {
			return lc, true
		}
		if regional == "" {
			regional = lc
		}
	}
	return regional, regional != ""
}
