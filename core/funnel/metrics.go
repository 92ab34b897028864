package funnel

import "time"

func daysPtr(start, end *time.Time) *float64 {
	if start == nil || end == nil {
		return nil
	}
	d := Days(*start, *end)
	return &d
}

// doneAt is the completion time of a stage, or nil when the stage is not done.
func doneAt(s Stage) *time.Time {
	if !s.Done {
		return nil
	}
	return s.TimeDone
}

// ComputeMetrics fills the derived process-day values. A metric is nil when
// either of its anchors is missing; completions out of order leave gaps.
func ComputeMetrics(rec Record, submittedAt time.Time) Record {
	assigned := rec.ContactAssignDate
	if assigned == nil {
		ts := submittedAt.UTC()
		assigned = &ts
	}

	contact, cm, apl := doneAt(rec.Contact), doneAt(rec.CM), doneAt(rec.APL)
	rec.Contact.ProcessDays = daysPtr(assigned, contact)
	rec.CM.ProcessDays = daysPtr(contact, cm)
	rec.APL.ProcessDays = daysPtr(cm, apl)
	rec.TotalProcessDays = daysPtr(assigned, apl)
	return rec
}

// DeriveStatuses classifies every stage of the record at `now`.
func DeriveStatuses(rec Record, now time.Time) Statuses {
	return Statuses{
		Contact: DeriveStatus(rec.Contact.Done, rec.Contact.Deadline, rec.Contact.TimeDone, now),
		CM:      DeriveStatus(rec.CM.Done, rec.CM.Deadline, rec.CM.TimeDone, now),
		APL:     DeriveStatus(rec.APL.Done, rec.APL.Deadline, rec.APL.TimeDone, now),
	}
}

func applyStagePatch(s Stage, p *StagePatch, now time.Time) Stage {
	if p == nil {
		return s
	}
	if p.ClearDeadline {
		s.Deadline = nil
	} else if p.Deadline != nil {
		d := utcDate(*p.Deadline)
		s.Deadline = &d
	}
	if p.TimeDone != nil {
		td := p.TimeDone.UTC()
		s.TimeDone = &td
		if p.Done == nil {
			s.Done = true
		}
	}
	if p.Done != nil {
		s.Done = *p.Done
	}

	// keep TimeDone set iff Done
	if !s.Done {
		s.TimeDone = nil
	} else if s.TimeDone == nil {
		n := now.UTC()
		s.TimeDone = &n
	}
	return s
}

// ApplyPatch applies a partial update and recomputes the derived metrics.
// Stage order is not enforced.
func ApplyPatch(rec Record, p Patch, submittedAt, now time.Time) Record {
	if p.ContactAssignDate != nil {
		a := p.ContactAssignDate.UTC()
		rec.ContactAssignDate = &a
	}
	rec.Contact = applyStagePatch(rec.Contact, p.Contact, now)
	rec.CM = applyStagePatch(rec.CM, p.CM, now)
	rec.APL = applyStagePatch(rec.APL, p.APL, now)
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	rec.UpdatedAt = now.UTC()
	return ComputeMetrics(rec, submittedAt)
}
