package lead

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type source int

const (
	column source = iota
	payload
)

type candidate struct {
	src source
	key string
}

type fieldRule struct {
	candidates []candidate
	set        func(s *Submission, v string)
}

func col(key string) candidate { return candidate{column, key} }
func pay(keys ...string) []candidate {
	cs := make([]candidate, 0, len(keys))
	for _, k := range keys {
		cs = append(cs, candidate{payload, k})
	}
	return cs
}

func rule(set func(s *Submission, v string), first candidate, rest ...[]candidate) fieldRule {
	cs := []candidate{first}
	for _, r := range rest {
		cs = append(cs, r...)
	}
	return fieldRule{candidates: cs, set: set}
}

// Field aliases: first non-blank candidate wins, columns before payload keys.
var fieldRules = []fieldRule{
	rule(func(s *Submission, v string) { s.ID = v }, col("id")),
	rule(func(s *Submission, v string) { s.Name = v }, col("name"), []candidate{col("full_name")}, pay("full_name", "name", "fullName", "ho_ten")),
	rule(func(s *Submission, v string) { s.Phone = v }, col("phone"), pay("phone", "phone_number", "phoneNumber", "sdt")),
	rule(func(s *Submission, v string) { s.Email = v }, col("email"), pay("email", "email_address", "emailAddress")),
	rule(func(s *Submission, v string) { s.Facebook = v }, col("fb"), pay("facebook", "fb", "fb_link")),
	rule(func(s *Submission, v string) { s.BirthYear = v }, col("birth"), pay("birth", "birth_year", "dob")),
	rule(func(s *Submission, v string) { s.Uni = v }, col("uni"), pay("uni", "university", "school")),
	rule(func(s *Submission, v string) { s.OtherUni = v }, col("other_uni"), pay("other_uni", "other_university", "otherUni")),
	rule(func(s *Submission, v string) { s.YearOfStudy = v }, col("year_of_study"), pay("year_of_study", "yearOfStudy", "year")),
	rule(func(s *Submission, v string) { s.Major = v }, col("major"), pay("major", "field_of_study")),
	rule(func(s *Submission, v string) { s.StartDate = v }, col("start_date"), pay("start_date", "startDate", "availability_start")),
	rule(func(s *Submission, v string) { s.EndDate = v }, col("end_date"), pay("end_date", "endDate", "availability_end")),
	rule(func(s *Submission, v string) { s.Channel = v }, col("channel"), pay("channel", "how_did_you_know", "source")),
	rule(func(s *Submission, v string) { s.Demand = v }, col("demand"), pay("demand", "product", "programme")),
	rule(func(s *Submission, v string) { s.UTM.Source = v }, col("utm_source"), pay("utm_source", "utmSource")),
	rule(func(s *Submission, v string) { s.UTM.Medium = v }, col("utm_medium"), pay("utm_medium", "utmMedium")),
	rule(func(s *Submission, v string) { s.UTM.Campaign = v }, col("utm_campaign"), pay("utm_campaign", "utmCampaign")),
	rule(func(s *Submission, v string) { s.UTM.ID = v }, col("utm_id"), pay("utm_id", "utmId")),
	rule(func(s *Submission, v string) { s.UTM.Content = v }, col("utm_content"), pay("utm_content", "utmContent")),
	rule(func(s *Submission, v string) { s.UTM.Name = v }, col("utm_name"), pay("utm_name", "utmName")),
	rule(func(s *Submission, v string) { s.UTM.Term = v }, col("utm_term"), pay("utm_term", "utmTerm")),
	rule(func(s *Submission, v string) { s.AllocatedLC = &v }, col("allocated_lc")),
}

var timestampCandidates = []candidate{col("timestamp"), col("created_at"), {payload, "timestamp"}, {payload, "submitted_at"}}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// Normalize maps a raw record to a Submission. Missing fields get defaults
// ("" for text, now for the timestamp, nil for the allocated LC); it never fails.
func Normalize(raw RawRecord, now time.Time) Submission {
	pl := payloadOf(raw)
	lookup := func(c candidate) interface{} {
		if c.src == column {
			return raw[c.key]
		}
		return pl[c.key]
	}

	var s Submission
	for _, r := range fieldRules {
		for _, c := range r.candidates {
			if v, ok := stringify(lookup(c)); ok {
				r.set(&s, v)
				break
			}
		}
	}

	s.Timestamp = now.UTC()
	for _, c := range timestampCandidates {
		if ts, ok := parseTimestamp(lookup(c)); ok {
			s.Timestamp = ts
			break
		}
	}
	return s
}

// NormalizeAll normalizes every record with the same fallback clock.
func NormalizeAll(raws []RawRecord, now time.Time) []Submission {
	subs := make([]Submission, 0, len(raws))
	for _, raw := range raws {
		subs = append(subs, Normalize(raw, now))
	}
	return subs
}

func payloadOf(raw RawRecord) map[string]interface{} {
	switch p := raw[PayloadKey].(type) {
	case map[string]interface{}:
		return p
	case RawRecord:
		return p
	case string:
		return decodePayload([]byte(p))
	case []byte:
		return decodePayload(p)
	case json.RawMessage:
		return decodePayload(p)
	}
	return nil
}

func decodePayload(data []byte) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// stringify coerces scalars to trimmed strings; blanks and composites report false.
func stringify(v interface{}) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case *string:
		if x == nil {
			return "", false
		}
		s = *x
	case []byte:
		s = string(x)
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		s = strconv.Itoa(x)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case int64:
		s = strconv.FormatInt(x, 10)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func parseTimestamp(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case float64:
		return time.Unix(int64(x), 0).UTC(), true
	case int64:
		return time.Unix(x, 0).UTC(), true
	case int:
		return time.Unix(int64(x), 0).UTC(), true
	}

	s, ok := stringify(v)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}
