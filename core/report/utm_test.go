package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

var testLinks = []refdata.UTMLink{
	{EntityType: refdata.EntityNational, EntityCode: "EMT", Term: "https://aiesec.vn/?utm_term=GV-Summer-2024"},
	{EntityType: refdata.EntityLC, EntityCode: "NEU", Term: "https://aiesec.vn/?utm_source=neu_fanpage"},
	{EntityType: refdata.EntityLC, EntityCode: "FTU", Term: "ftu_ig"},
}

func TestClassifyUTM(t *testing.T) {
	tests := []struct {
		name string
		sub  lead.Submission
		want Attribution
	}{
		{
			name: "no utm, unallocated",
			sub:  lead.Submission{},
			want: Attribution{IsOrganic: true},
		},
		{
			name: "own source",
			sub:  lead.Submission{AllocatedLC: lc("NEU"), UTM: lead.UTM{Source: "NEU_Fanpage"}},
			want: Attribution{HasUTM: true, IsOwn: true},
		},
		{
			name: "source registered to another LC",
			sub:  lead.Submission{AllocatedLC: lc("NEU"), UTM: lead.UTM{Source: "ftu_ig"}},
			want: Attribution{HasUTM: true, IsOther: true},
		},
		{
			name: "national term, case insensitive substring",
			sub:  lead.Submission{AllocatedLC: lc("FTU"), UTM: lead.UTM{Term: "gv-summer", Source: "fb"}},
			want: Attribution{HasUTM: true, IsNational: true},
		},
		{
			name: "utm without source",
			sub:  lead.Submission{AllocatedLC: lc("FTU"), UTM: lead.UTM{Medium: "cpc"}},
			want: Attribution{HasUTM: true, IsNotFound: true},
		},
		{
			name: "national without source is not 'not found'",
			sub:  lead.Submission{UTM: lead.UTM{Term: "GV-Summer-2024"}},
			want: Attribution{HasUTM: true, IsOrganic: true, IsNational: true},
		},
		{
			name: "organic never owns a source",
			sub:  lead.Submission{AllocatedLC: lc("Organic"), UTM: lead.UTM{Source: "neu_fanpage"}},
			want: Attribution{HasUTM: true, IsOrganic: true, IsOther: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyUTM(tt.sub, testLinks); got != tt.want {
				t.Errorf("ClassifyUTM() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeUTM(t *testing.T) {
	subs := []lead.Submission{
		{AllocatedLC: lc("NEU"), UTM: lead.UTM{Source: "neu_fanpage"}},
		{AllocatedLC: lc("NEU"), UTM: lead.UTM{Source: "random"}},
		{AllocatedLC: lc("NEU"), UTM: lead.UTM{Term: "gv-summer-2024"}},
		{},
	}

	got := SummarizeUTM(subs, testLinks, 8)
	want := UTMSummary{
		Total: 4, WithUTM: 3, Own: 1, National: 1, Organic: 1, NationalOrOrganic: 2, Other: 1,
		OwnPercent: 25, NationalOrOrganicPercent: 50, OtherPercent: 25,
		Goal: 8, GoalProgress: 50,
	}
	assert.Equal(t, want, got)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole int
		want        float64
	}{
		{1, 3, 33.33},
		{2, 3, 66.67},
		{5, 0, 0},
		{12, 10, 120},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.whole, got, tt.want)
		}
	}
}
