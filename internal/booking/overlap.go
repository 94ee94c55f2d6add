package booking

import "time"

// Overlaps returns true if the half-open intervals [start1, end1) and
// [start2, end2) share any instant. An interval ending exactly when the
// other begins does not overlap, so back-to-back bookings are legal.
// Every overlap decision in the system reduces to this predicate.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}

// OverlappingFor returns the bookings in others that use the same
// equipment type as event and overlap its interval. Callers badge the
// event as "also booked elsewhere" and list the conflicting projects.
// Cancelled bookings never count.
func OverlappingFor(event *Booking, others []Booking) []Booking {
	var out []Booking
	for _, o := range others {
		if o.IsCancelled {
			continue
		}
		if o.EquipmentTypeID != event.EquipmentTypeID {
			continue
		}
		if Overlaps(event.StartTime, event.EndTime, o.StartTime, o.EndTime) {
			out = append(out, o)
		}
	}
	return out
}

// GhostCandidates returns the bookings in others that fall inside the
// window [windowStart, windowEnd) and overlap nothing in current for
// the same equipment type. These render as dimmed "ghost" entries:
// equipment in use elsewhere that does not collide with anything booked
// here. A booking that does overlap a current event belongs to that
// event's badge set instead, never to both.
func GhostCandidates(windowStart, windowEnd time.Time, others, current []Booking) []Booking {
	var out []Booking
	for _, o := range others {
		if o.IsCancelled {
			continue
		}
		if !Overlaps(o.StartTime, o.EndTime, windowStart, windowEnd) {
			continue
		}
		collides := false
		for _, c := range current {
			if c.IsCancelled || c.EquipmentTypeID != o.EquipmentTypeID {
				continue
			}
			if Overlaps(o.StartTime, o.EndTime, c.StartTime, c.EndTime) {
				collides = true
				break
			}
		}
		if !collides {
			out = append(out, o)
		}
	}
	return out
}
