package funnel

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Status of a single funnel stage.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Done
	Late
)

var statusNames = map[Status]string{
	NotStarted: "NOT_STARTED",
	InProgress: "IN_PROGRESS",
	Done:       "DONE",
	Late:       "LATE",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for st, n := range statusNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return errors.Errorf("unknown funnel status %q", name)
}

// utcDate strips the time of day, in UTC.
func utcDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DeriveStatus classifies a stage by comparing calendar dates in UTC.
// A done stage without a completion time counts as on time.
func DeriveStatus(done bool, deadline, completedAt *time.Time, now time.Time) Status {
	if !done {
		if deadline == nil {
			return NotStarted
		}
		if utcDate(now).After(utcDate(*deadline)) {
			return Late
		}
		return InProgress
	}
	if deadline == nil || completedAt == nil {
		return Done
	}
	if utcDate(*completedAt).After(utcDate(*deadline)) {
		return Late
	}
	return Done
}

// Days returns |end - start| in days, rounded to 2 decimal places.
func Days(start, end time.Time) float64 {
	d := end.Sub(start).Hours() / 24
	return math.Round(math.Abs(d)*100) / 100
}
