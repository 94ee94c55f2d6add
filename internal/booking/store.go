package booking

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by store operations addressing a booking id
// that does not exist.
var ErrNotFound = errors.New("booking not found")

// Store is the booking datastore contract. Implementations exchange
// timestamps as RFC3339 UTC and order query results by start time
// ascending. Two backends exist: the local sqlite store and the
// PostgREST client.
type Store interface {
	// Insert stores a new booking and returns the stored record with
	// its generated id.
	Insert(ctx context.Context, b *Booking) (*Booking, error)

	// ActiveOverlapping returns active (non-cancelled) bookings for the
	// equipment type whose interval overlaps [start, end). An empty
	// projectID searches every project; excludeID, if non-empty, drops
	// that booking from the result.
	ActiveOverlapping(ctx context.Context, equipmentTypeID, projectID string, start, end time.Time, excludeID string) ([]Booking, error)

	// ListProject returns all bookings for one project, cancelled
	// included (the calendar still draws them, struck through).
	ListProject(ctx context.Context, projectID string) ([]Booking, error)

	// ListOtherProjects returns active bookings belonging to any
	// project except the given one.
	ListOtherProjects(ctx context.Context, projectID string) ([]Booking, error)

	// Cancel performs the one-way cancellation transition, setting
	// is_cancelled, cancelled_at and the reason together.
	Cancel(ctx context.Context, id, reason string, at time.Time) error

	// Delete removes a booking unconditionally (administrative).
	Delete(ctx context.Context, id string) error
}
