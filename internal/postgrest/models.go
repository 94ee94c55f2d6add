package postgrest

import (
	"fmt"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

// BookingRow is the wire shape of a booking. The store keeps snake_case
// columns and ISO-8601 timestamp strings.
type BookingRow struct {
	ID                 string  `json:"id,omitempty"`
	EquipmentType      string  `json:"equipment_type"`
	ProjectID          string  `json:"project_id"`
	Requester          string  `json:"requester"`
	CostCenter         string  `json:"cost_center"`
	Location           string  `json:"location"`
	Reason             string  `json:"reason"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	DurationHours      float64 `json:"duration_hours"`
	IsCancelled        bool    `json:"is_cancelled"`
	CancelledAt        string  `json:"cancelled_at,omitempty"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
	CreatedAt          string  `json:"created_at,omitempty"`
}

type EquipmentTypeRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	Exclusive bool   `json:"exclusive"`
	Mailbox   string `json:"mailbox"`
}

type ProjectRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func rowFromBooking(b *booking.Booking) BookingRow {
	return BookingRow{
		EquipmentType: b.EquipmentTypeID,
		ProjectID:     b.ProjectID,
		Requester:     b.Requester,
		CostCenter:    string(b.CostCenter),
		Location:      b.Location,
		Reason:        b.Reason,
		StartTime:     b.StartTime.UTC().Format(time.RFC3339),
		EndTime:       b.EndTime.UTC().Format(time.RFC3339),
		DurationHours: b.DurationHours,
	}
}

func (r BookingRow) toBooking() (booking.Booking, error) {
	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("parsing start_time %q: %w", r.StartTime, err)
	}
	end, err := time.Parse(time.RFC3339, r.EndTime)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("parsing end_time %q: %w", r.EndTime, err)
	}

	b := booking.Booking{
		ID:                 r.ID,
		EquipmentTypeID:    r.EquipmentType,
		ProjectID:          r.ProjectID,
		Requester:          r.Requester,
		CostCenter:         booking.CostCenter(r.CostCenter),
		Location:           r.Location,
		Reason:             r.Reason,
		StartTime:          start,
		EndTime:            end,
		DurationHours:      r.DurationHours,
		IsCancelled:        r.IsCancelled,
		CancellationReason: r.CancellationReason,
	}
	if r.CancelledAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CancelledAt); err == nil {
			b.CancelledAt = t
		}
	}
	if r.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			b.CreatedAt = t
		}
	}
	return b, nil
}

func rowsToBookings(rows []BookingRow) ([]booking.Booking, error) {
	out := make([]booking.Booking, 0, len(rows))
	for _, r := range rows {
		b, err := r.toBooking()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
