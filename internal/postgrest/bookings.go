package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

// Insert stores a new booking; the server generates the id and the
// representation of the stored row comes back.
func (c *Client) Insert(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/bookings", nil, rowFromBooking(b),
		map[string]string{"Prefer": "return=representation"})
	if err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}

	var rows []BookingRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing booking response: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store returned no representation for created booking")
	}
	stored, err := rows[0].toBooking()
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ActiveOverlapping pushes the overlap predicate down to the store:
// start_time < end AND end_time > start, active rows only, ordered by
// start time. An empty projectID searches every project (exclusive
// equipment); excludeID drops one booking for edits.
func (c *Client) ActiveOverlapping(ctx context.Context, equipmentTypeID, projectID string, start, end time.Time, excludeID string) ([]booking.Booking, error) {
	q := url.Values{}
	q.Set("equipment_type", "eq."+equipmentTypeID)
	q.Set("is_cancelled", "eq.false")
	q.Set("start_time", "lt."+end.UTC().Format(time.RFC3339))
	q.Set("end_time", "gt."+start.UTC().Format(time.RFC3339))
	if projectID != "" {
		q.Set("project_id", "eq."+projectID)
	}
	if excludeID != "" {
		q.Set("id", "neq."+excludeID)
	}
	q.Set("order", "start_time.asc")

	return c.queryBookings(ctx, q)
}

func (c *Client) ListProject(ctx context.Context, projectID string) ([]booking.Booking, error) {
	q := url.Values{}
	q.Set("project_id", "eq."+projectID)
	q.Set("order", "start_time.asc")
	return c.queryBookings(ctx, q)
}

func (c *Client) ListOtherProjects(ctx context.Context, projectID string) ([]booking.Booking, error) {
	q := url.Values{}
	q.Set("project_id", "neq."+projectID)
	q.Set("is_cancelled", "eq.false")
	q.Set("order", "start_time.asc")
	return c.queryBookings(ctx, q)
}

// Cancel applies the one-way cancellation transition as a single
// update, so no partial cancellation state is ever observable.
func (c *Client) Cancel(ctx context.Context, id, reason string, at time.Time) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	patch := map[string]interface{}{
		"is_cancelled":        true,
		"cancelled_at":        at.UTC().Format(time.RFC3339),
		"cancellation_reason": reason,
	}
	if _, err := c.doRequest(ctx, http.MethodPatch, "/bookings", q, patch, nil); err != nil {
		return fmt.Errorf("cancelling booking: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	if _, err := c.doRequest(ctx, http.MethodDelete, "/bookings", q, nil, nil); err != nil {
		return fmt.Errorf("deleting booking: %w", err)
	}
	return nil
}

func (c *Client) queryBookings(ctx context.Context, q url.Values) ([]booking.Booking, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/bookings", q, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}

	var rows []BookingRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing bookings response: %w", err)
	}
	return rowsToBookings(rows)
}
