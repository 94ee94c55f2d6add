package booking

import "time"

// ViewType selects the calendar window.
type ViewType string

const (
	ViewWeek  ViewType = "week"
	ViewMonth ViewType = "month"
)

// ViewStart computes the visible window start for a reference date:
// week view snaps to the most recent Sunday at local midnight, month
// view to the 1st of the month at local midnight. Windowing only
// determines what is rendered; conflict checks ignore it.
func ViewStart(view ViewType, ref time.Time) time.Time {
	if view == ViewMonth {
		return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	}
	d := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// ViewEnd returns the exclusive end of the window starting at start.
func ViewEnd(view ViewType, start time.Time) time.Time {
	if view == ViewMonth {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 7)
}
