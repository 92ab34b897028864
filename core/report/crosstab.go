package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aiesec-vn/ogvhub/core/lead"
)

// OtherYear collects year-of-study answers outside the known set.
const OtherYear = "Other"

// YearsOfStudy are the cross-tab columns, in display order.
var YearsOfStudy = []string{"1st year", "2nd year", "3rd year", "4th year", "5th year", "Graduated", OtherYear}

// YearBucket maps a free-form answer onto one of YearsOfStudy.
func YearBucket(answer string) string {
	answer = strings.TrimSpace(answer)
	for _, y := range YearsOfStudy[:len(YearsOfStudy)-1] {
		if strings.EqualFold(answer, y) {
			return y
		}
	}
	return OtherYear
}

type CrossTabRow struct {
	LC     string         `json:"lc"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// CrossTab is an LC x year-of-study count matrix.
type CrossTab struct {
	Columns      []string       `json:"columns"`
	Rows         []CrossTabRow  `json:"rows"`
	ColumnTotals map[string]int `json:"column_totals"`
	Total        int            `json:"total"`
	Max          int            `json:"max"`
}

// BuildCrossTab counts submissions per LC and year of study. Rows are sorted by
// LC with the unallocated row last.
func BuildCrossTab(subs []lead.Submission) CrossTab {
	ct := CrossTab{
		Columns:      YearsOfStudy,
		Rows:         make([]CrossTabRow, 0),
		ColumnTotals: make(map[string]int, len(YearsOfStudy)),
	}
	for _, y := range YearsOfStudy {
		ct.ColumnTotals[y] = 0
	}

	index := make(map[string]int)
	for _, s := range subs {
		lc := s.LC()
		i, ok := index[lc]
		if !ok {
			counts := make(map[string]int, len(YearsOfStudy))
			for _, y := range YearsOfStudy {
				counts[y] = 0
			}
			ct.Rows = append(ct.Rows, CrossTabRow{LC: lc, Counts: counts})
			i = len(ct.Rows) - 1
			index[lc] = i
		}
		y := YearBucket(s.YearOfStudy)
		ct.Rows[i].Counts[y]++
		ct.Rows[i].Total++
		ct.ColumnTotals[y]++
		ct.Total++
		if c := ct.Rows[i].Counts[y]; c > ct.Max {
			ct.Max = c
		}
	}

	sort.Slice(ct.Rows, func(i, j int) bool {
		a, b := ct.Rows[i].LC, ct.Rows[j].LC
		if (a == lead.Organic) != (b == lead.Organic) {
			return b == lead.Organic
		}
		return a < b
	})
	return ct
}

const (
	heatLow  = 0xFFFFFF
	heatHigh = 0x037EF3
)

// HeatColor interpolates linearly between white and the brand blue by value/max.
func HeatColor(value, max int) string {
	ratio := 0.0
	if max > 0 {
		ratio = math.Min(math.Max(float64(value)/float64(max), 0), 1)
	}
	channel := func(shift uint) int {
		lo := float64((int(heatLow) >> shift) & 0xFF)
		hi := float64((int(heatHigh) >> shift) & 0xFF)
		return int(math.Round(lo + (hi-lo)*ratio))
	}
	return fmt.Sprintf("#%02X%02X%02X", channel(16), channel(8), channel(0))
}
