package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"

	minutesPerDay = 24 * 60
)

// Window is one contiguous open interval on a weekday, e.g.
// {Start: "09:00", End: "18:00"}. Start precedes End and windows on
// the same day do not overlap each other; both are assumed valid on
// input and not re-checked here.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyHours maps lowercase weekday names ("monday".."sunday") to the
// ordered open windows for that day. A day without an entry has no
// open hours.
type WeeklyHours map[string][]Window

// DefaultWeeklyHours is the schedule applied to owners that have not
// configured their own hours yet: weekdays nine to six.
func DefaultWeeklyHours() WeeklyHours {
	day := []Window{{Start: "09:00", End: "18:00"}}
	return WeeklyHours{
		"monday":    day,
		"tuesday":   day,
		"wednesday": day,
		"thursday":  day,
		"friday":    day,
	}
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// ParseClock converts a 24h "HH:MM" wall-clock value to minutes since
// midnight. "24:00" is accepted so a window may close exactly at
// midnight; it is unusable as a start time because nothing fits after
// it.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hour, ok1 := atoi2(s[0], s[1])
	minute, ok2 := atoi2(s[3], s[4])
	if !ok1 || !ok2 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return hour*60 + minute, nil
}

func atoi2(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// DayName returns the lowercase weekday key used by WeeklyHours.
func DayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// Covers reports whether the candidate interval
// [startMinutes, startMinutes+durationMinutes) lies fully inside at
// least one of the day's windows. Windows are single-day: a candidate
// that runs past midnight is never covered. Window bounds that fail to
// parse are skipped.
func (h WeeklyHours) Covers(day time.Weekday, startMinutes, durationMinutes int) bool {
	end := startMinutes + durationMinutes
	if startMinutes < 0 || durationMinutes <= 0 || end > minutesPerDay {
		return false
	}
	for _, w := range h[DayName(day)] {
		ws, err := ParseClock(w.Start)
		if err != nil {
			continue
		}
		we, err := ParseClock(w.End)
		if err != nil {
			continue
		}
		if ws <= startMinutes && end <= we {
			return true
		}
	}
	return false
}
