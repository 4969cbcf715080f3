package domain

// Slot is a half-open interval [Start, End) in minutes since midnight
// on a calendar date. End may run past 24h while a candidate is being
// checked; such candidates are rejected by WeeklyHours.Covers before
// they can be committed, so stored appointments never cross midnight.
type Slot struct {
	Date  string
	Start int
	End   int
}

func NewSlot(date string, startMinutes, durationMinutes int) Slot {
	return Slot{Date: date, Start: startMinutes, End: startMinutes + durationMinutes}
}

// Overlaps reports whether the candidate intersects any appointment in
// existing. Intervals are half-open: an appointment ending exactly
// when another starts does not conflict.
func Overlaps(candidate Slot, existing []Appointment) bool {
	return FirstConflict(candidate, existing) != nil
}

// FirstConflict returns the first appointment whose interval
// intersects the candidate, or nil when the slot is free. Only
// same-date appointments are compared.
func FirstConflict(candidate Slot, existing []Appointment) *Appointment {
	for i := range existing {
		if existing[i].Date != candidate.Date {
			continue
		}
		s := existing[i].Slot()
		if candidate.Start < s.End && s.Start < candidate.End {
			return &existing[i]
		}
	}
	return nil
}
