package schedule

import (
	"time"
)

// Finder computes appointment slots against a business's booking window.
// All arithmetic happens in the business's civil timezone; callers pass
// booked intervals in any location and they are compared on the absolute
// timeline.
//
// Slots are fixed-length and start on the hour. The booking window is
// inclusive on both ends: a slot may start at OpenHour and the last slot
// of a day starts at LastBookableHour.

type Hours struct {
	OpenHour         int
	LastBookableHour int
}

// Interval is a half-open booked range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

type Finder struct {
	Loc     *time.Location
	Hours   Hours
	SlotLen time.Duration

	// MorningHour is the earliest start considered by NextBusinessDay.
	MorningHour int
}

func (f Finder) slotLen() time.Duration {
	if f.SlotLen <= 0 {
		return time.Hour
	}
	return f.SlotLen
}

func (f Finder) loc() *time.Location {
	if f.Loc == nil {
		return time.UTC
	}
	return f.Loc
}

// Conflicts reports whether a candidate slot overlaps any booked interval.
// Back-to-back slots do not conflict: a slot ending exactly when another
// starts is allowed.
func Conflicts(start, end time.Time, booked []Interval) bool {
	for _, b := range booked {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}

// FirstAvailable returns the earliest free slot between now and
// now+daysAhead days. The first candidate is one hour from now rounded up
// to the next whole hour, clamped into the booking window. The second
// return is false when every candidate inside the horizon is booked.
func (f Finder) FirstAvailable(now time.Time, daysAhead int, booked []Interval) (time.Time, bool) {
	loc := f.loc()
	local := now.In(loc)

	candidate := local.Add(time.Hour)
	if !candidate.Equal(candidate.Truncate(time.Hour)) {
		candidate = candidate.Truncate(time.Hour).Add(time.Hour)
	}
	candidate = f.clampIntoWindow(candidate)

	horizon := local.AddDate(0, 0, daysAhead)
	for !candidate.After(horizon) {
		end := candidate.Add(f.slotLen())
		if !Conflicts(candidate, end, booked) {
			return candidate, true
		}
		candidate = f.advance(candidate)
	}
	return time.Time{}, false
}

// NextBusinessDay returns the earliest free slot on the next weekday,
// starting at MorningHour and stepping hourly within the booking window.
// Only that single day is considered.
func (f Finder) NextBusinessDay(now time.Time, booked []Interval) (time.Time, bool) {
	loc := f.loc()
	day := now.In(loc).AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}

	hour := f.MorningHour
	if hour < f.Hours.OpenHour {
		hour = f.Hours.OpenHour
	}
	for ; hour <= f.Hours.LastBookableHour; hour++ {
		candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
		if !Conflicts(candidate, candidate.Add(f.slotLen()), booked) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// clampIntoWindow moves a candidate into the booking window: before open
// rolls forward to the same day's open hour, past the last bookable hour
// rolls to the next day's open hour.
func (f Finder) clampIntoWindow(t time.Time) time.Time {
	loc := f.loc()
	switch {
	case t.Hour() < f.Hours.OpenHour:
		return time.Date(t.Year(), t.Month(), t.Day(), f.Hours.OpenHour, 0, 0, 0, loc)
	case t.Hour() > f.Hours.LastBookableHour:
		next := t.AddDate(0, 0, 1)
		return time.Date(next.Year(), next.Month(), next.Day(), f.Hours.OpenHour, 0, 0, 0, loc)
	default:
		return t
	}
}

func (f Finder) advance(t time.Time) time.Time {
	return f.clampIntoWindow(t.Add(f.slotLen()))
}
