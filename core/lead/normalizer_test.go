package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lc := "FTU"

	tests := []struct {
		name string
		raw  RawRecord
		want Submission
	}{
		{
			name: "empty record gets defaults",
			raw:  RawRecord{},
			want: Submission{Timestamp: now},
		},
		{
			name: "columns win over payload",
			raw: RawRecord{
				"id":           "s1",
				"timestamp":    "2024-03-02T08:30:00Z",
				"name":         "Column Name",
				"allocated_lc": "FTU",
				PayloadKey:     map[string]interface{}{"full_name": "Payload Name", "phone": "0901"},
			},
			want: Submission{ID: "s1", Timestamp: time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC), Name: "Column Name", Phone: "0901", AllocatedLC: &lc},
		},
		{
			name: "blank column falls through to payload alias order",
			raw: RawRecord{
				"name":     "   ",
				"email":    nil,
				PayloadKey: map[string]interface{}{"name": "Second", "full_name": "First", "emailAddress": " a@b.c "},
			},
			want: Submission{Timestamp: now, Name: "First", Email: "a@b.c"},
		},
		{
			name: "payload as json string with numbers and bools",
			raw: RawRecord{
				PayloadKey: `{"phone_number": 84901234567, "birth_year": 2003, "year": 2.5, "uni": true, "utmSource": "fb"}`,
			},
			want: Submission{Timestamp: now, Phone: "84901234567", BirthYear: "2003", YearOfStudy: "2.5", Uni: "true", UTM: UTM{Source: "fb"}},
		},
		{
			name: "invalid payload is ignored",
			raw:  RawRecord{"id": "x", PayloadKey: "{not json"},
			want: Submission{ID: "x", Timestamp: now},
		},
		{
			name: "composite values are skipped",
			raw:  RawRecord{"name": []interface{}{"a"}, PayloadKey: map[string]interface{}{"full_name": map[string]interface{}{}, "name": "Ok"}},
			want: Submission{Timestamp: now, Name: "Ok"},
		},
		{
			name: "allocated lc never comes from payload",
			raw:  RawRecord{PayloadKey: map[string]interface{}{"allocated_lc": "FTU"}},
			want: Submission{Timestamp: now},
		},
		{
			name: "payload timestamp and unparseable column timestamp",
			raw:  RawRecord{"timestamp": "yesterday", PayloadKey: map[string]interface{}{"submitted_at": "2024-01-15 10:00:00"}},
			want: Submission{Timestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		},
		{
			name: "time.Time column is converted to UTC",
			raw:  RawRecord{"created_at": time.Date(2024, 2, 1, 7, 0, 0, 0, time.FixedZone("ICT", 7*3600))},
			want: Submission{Timestamp: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		},
		{
			name: "unix seconds",
			raw:  RawRecord{PayloadKey: map[string]interface{}{"timestamp": float64(1700000000)}},
			want: Submission{Timestamp: time.Unix(1700000000, 0).UTC()},
		},
		{
			name: "utm columns",
			raw:  RawRecord{"utm_source": "lc-ftu", "utm_term": "x", PayloadKey: map[string]interface{}{"utm_medium": "social"}},
			want: Submission{Timestamp: now, UTM: UTM{Source: "lc-ftu", Medium: "social", Term: "x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_NilRecord(t *testing.T) {
	now := time.Now()
	assert.NotPanics(t, func() { Normalize(nil, now) })
	assert.Equal(t, now.UTC(), Normalize(nil, now).Timestamp)
}
