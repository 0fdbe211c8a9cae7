package scheduling

import "time"

// Open filters the day grid for date down to slots no appointment in appts
// overlaps. Both sides are half-open intervals: an appointment ending at
// exactly 11:00 leaves the 11:00 slot free. Appointments that are not in
// StatusBooked never block a slot.
func Open(date time.Time, loc *time.Location, appts []Appointment) []time.Time {
	grid := DayGrid(date, loc)
	open := grid[:0:0]
	for _, slot := range grid {
		if !blocked(slot, appts) {
			open = append(open, slot)
		}
	}
	return open
}

func blocked(slot time.Time, appts []Appointment) bool {
	slotEnd := slot.Add(SlotStep)
	for _, a := range appts {
		if a.Status != StatusBooked {
			continue
		}
		if slot.Before(a.End()) && slotEnd.After(a.StartsAt) {
			return true
		}
	}
	return false
}
