package domain

import (
	"fmt"
	"math/rand"
	"testing"
)

func appt(date, clock string, duration int) Appointment {
	return Appointment{Date: date, Time: clock, DurationMinutes: duration}
}

func TestFirstConflict(t *testing.T) {
	existing := []Appointment{
		appt("2026-01-05", "10:00", 30),
		appt("2026-01-05", "14:00", 60),
	}

	at := func(clock string, duration int) Slot {
		m, err := ParseClock(clock)
		if err != nil {
			t.Fatalf("ParseClock(%q) error: %v", clock, err)
		}
		return NewSlot("2026-01-05", m, duration)
	}

	t.Run("partial overlap conflicts", func(t *testing.T) {
		got := FirstConflict(at("10:15", 30), existing)
		if got == nil {
			t.Fatalf("expected a conflict")
		}
		if got.Time != "10:00" {
			t.Fatalf("conflict = %s, want 10:00", got.Time)
		}
	})

	t.Run("containment conflicts", func(t *testing.T) {
		if FirstConflict(at("13:30", 120), existing) == nil {
			t.Fatalf("expected a conflict")
		}
		if FirstConflict(at("14:15", 15), existing) == nil {
			t.Fatalf("expected a conflict")
		}
	})

	t.Run("adjacent slots do not conflict", func(t *testing.T) {
		if got := FirstConflict(at("10:30", 30), existing); got != nil {
			t.Fatalf("unexpected conflict with %s", got.Time)
		}
		if got := FirstConflict(at("09:00", 60), existing); got != nil {
			t.Fatalf("unexpected conflict with %s", got.Time)
		}
	})

	t.Run("other dates are ignored", func(t *testing.T) {
		candidate := NewSlot("2026-01-06", 10*60, 30)
		if got := FirstConflict(candidate, existing); got != nil {
			t.Fatalf("unexpected conflict with %s %s", got.Date, got.Time)
		}
	})

	t.Run("empty universe", func(t *testing.T) {
		if Overlaps(at("10:00", 30), nil) {
			t.Fatalf("unexpected conflict against nothing")
		}
	})
}

// Builds random non-overlapping schedules and checks that any candidate
// cut from the middle of a booked interval is rejected, while a
// candidate placed strictly inside a gap is accepted.
func TestOverlapsRandomizedSchedules(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 50; round++ {
		date := "2026-01-05"
		var existing []Appointment

		cursor := rng.Intn(60)
		for cursor < minutesPerDay-120 {
			duration := 15 + 15*rng.Intn(6)
			existing = append(existing, appt(date, clockString(cursor), duration))
			cursor += duration + 30 + rng.Intn(90)
		}
		if len(existing) < 2 {
			continue
		}

		for _, a := range existing {
			s := a.Slot()
			inside := NewSlot(date, s.Start+(s.End-s.Start)/2, 10)
			if !Overlaps(inside, existing) {
				t.Fatalf("round %d: candidate inside %s+%dm not rejected", round, a.Time, a.DurationMinutes)
			}
		}

		for i := 1; i < len(existing); i++ {
			prev := existing[i-1].Slot()
			next := existing[i].Slot()
			gap := NewSlot(date, prev.End, next.Start-prev.End)
			if Overlaps(gap, existing) {
				t.Fatalf("round %d: gap [%d,%d) wrongly rejected", round, gap.Start, gap.End)
			}
		}
	}
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
