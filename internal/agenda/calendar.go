package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

// Calendar is one windowed view of a project's schedule, with the
// other projects' bookings alongside for ghosting and overlap badges.
type Calendar struct {
	View       booking.ViewType
	Start, End time.Time
	// Current holds the project's own bookings in the window,
	// cancelled included.
	Current []booking.Booking
	// Others holds active bookings from every other project in the
	// window.
	Others []booking.Booking
	// Ghosts is the subset of Others with no colliding counterpart in
	// Current; they are drawn dimmed instead of badged.
	Ghosts []booking.Booking
}

// Calendar loads the window around ref for one project.
func (s *Service) Calendar(ctx context.Context, projectID string, view booking.ViewType, ref time.Time) (*Calendar, error) {
	start := booking.ViewStart(view, ref)
	end := booking.ViewEnd(view, start)

	current, err := s.store.ListProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project bookings: %w", err)
	}
	others, err := s.store.ListOtherProjects(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading other projects: %w", err)
	}

	cal := &Calendar{View: view, Start: start, End: end}
	for _, b := range current {
		if booking.Overlaps(b.StartTime, b.EndTime, start, end) {
			cal.Current = append(cal.Current, b)
		}
	}
	var active []booking.Booking
	for _, b := range cal.Current {
		if b.Active() {
			active = append(active, b)
		}
	}
	for _, b := range others {
		if b.Active() && booking.Overlaps(b.StartTime, b.EndTime, start, end) {
			cal.Others = append(cal.Others, b)
		}
	}
	cal.Ghosts = booking.GhostCandidates(start, end, cal.Others, active)
	return cal, nil
}

// Badges returns the other-project bookings colliding with one of the
// project's own bookings, for the overlap warning marker.
func (c *Calendar) Badges(b *booking.Booking) []booking.Booking {
	return booking.OverlappingFor(b, c.Others)
}
