package lead

import "testing"

func TestResolve(t *testing.T) {
	m := Mapping{
		"Foreign Trade University":             "FTU",
		"Hanoi - National Economics University": "NEU",
		"HCMC - University of Economics":        "UEH",
		"Blank":                                 "",
	}

	tests := []struct {
		name   string
		label  string
		want   string
		wantOk bool
	}{
		{name: "exact", label: "Foreign Trade University", want: "FTU", wantOk: true},
		{name: "exact with region prefix", label: "Hanoi - National Economics University", want: "NEU", wantOk: true},
		{name: "surrounding whitespace", label: "  Foreign Trade University ", want: "FTU", wantOk: true},
		{name: "en dash normalized to exact", label: "HCMC – University of Economics", want: "UEH", wantOk: true},
		{name: "em dash normalized to exact", label: "HCMC — University of Economics", want: "UEH", wantOk: true},
		{name: "regional fallback", label: "Hanoi - Acme University", want: RegionHanoi, wantOk: true},
		{name: "regional fallback case-insensitive", label: "HANOI - Acme", want: RegionHanoi, wantOk: true},
		{name: "ho chi minh", label: "Ho Chi Minh - Acme", want: RegionHCMC, wantOk: true},
		{name: "hcmc", label: "hcmc - Acme", want: RegionHCMC, wantOk: true},
		{name: "da nang", label: "Da Nang - Acme", want: RegionDanang, wantOk: true},
		{name: "danang with en dash", label: "Danang – Acme", want: RegionDanang, wantOk: true},
		{name: "can tho", label: "Can Tho - Acme", want: RegionCantho, wantOk: true},
		{name: "cantho", label: "cantho - Acme", want: RegionCantho, wantOk: true},
		{name: "unknown region", label: "Hue - Acme", wantOk: false},
		{name: "no separator", label: "Unknown Uni", wantOk: false},
		{name: "hyphen without spaces", label: "Hanoi-Acme", wantOk: false},
		{name: "blank mapping value", label: "Blank", wantOk: false},
		{name: "empty", label: "   ", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.label, m)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	m := Mapping{"A": "LC-A"}
	for i := 0; i < 10; i++ {
		if got, _ := Resolve("Hanoi - X", m); got != RegionHanoi {
			t.Fatalf("Resolve() = %q on run %d", got, i)
		}
	}
}

func TestResolveSubmission(t *testing.T) {
	m := Mapping{"FTU": "FTU", "Other Specific": "OS"}

	tests := []struct {
		name   string
		sub    Submission
		want   string
		wantOk bool
	}{
		{name: "uni", sub: Submission{Uni: "FTU"}, want: "FTU", wantOk: true},
		{name: "other uni", sub: Submission{OtherUni: "FTU"}, want: "FTU", wantOk: true},
		{name: "specific other uni beats regional uni", sub: Submission{Uni: "Hanoi - X", OtherUni: "Other Specific"}, want: "OS", wantOk: true},
		{name: "regional only", sub: Submission{Uni: "Hanoi - X", OtherUni: "nothing"}, want: RegionHanoi, wantOk: true},
		{name: "none", sub: Submission{Uni: "nothing"}, wantOk: false},
		{name: "no labels", sub: Submission{}, wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveSubmission(tt.sub, m)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("ResolveSubmission() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}
