package scheduling

import "time"

// The clinic day runs 09:00 through 21:00 local time in 30-minute slots.
// The last slot starts at 20:30.
const (
	SlotStep = 30 * time.Minute

	dayStartHour   = 9
	lastSlotHour   = 20
	lastSlotMinute = 30
)

// DayGrid returns every slot start for the calendar day of date, in loc.
func DayGrid(date time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	date = date.In(loc)
	first := time.Date(date.Year(), date.Month(), date.Day(), dayStartHour, 0, 0, 0, loc)
	last := time.Date(date.Year(), date.Month(), date.Day(), lastSlotHour, lastSlotMinute, 0, 0, loc)

	var slots []time.Time
	for t := first; !t.After(last); t = t.Add(SlotStep) {
		slots = append(slots, t)
	}
	return slots
}

// OnGrid reports whether t is a valid slot start in loc.
func OnGrid(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	if t.Minute() != 0 && t.Minute() != 30 {
		return false
	}
	mins := t.Hour()*60 + t.Minute()
	return mins >= dayStartHour*60 && mins <= lastSlotHour*60+lastSlotMinute
}

// SlotsCovering returns the slot starts an appointment interval occupies.
// Slots and interval are half-open, so a 45-minute appointment at 10:00
// covers 10:00 and 10:30 but not 11:00.
func SlotsCovering(start time.Time, duration time.Duration) []time.Time {
	end := start.Add(duration)
	var slots []time.Time
	for t := start; t.Before(end); t = t.Add(SlotStep) {
		slots = append(slots, t)
	}
	return slots
}
