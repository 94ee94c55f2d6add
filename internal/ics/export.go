// Package ics exports bookings as an iCalendar feed so they can be
// subscribed to from Outlook or Google Calendar.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

// Export writes active bookings as VEVENTs. Cancelled bookings are
// excluded from the feed. names maps equipment type IDs to display
// names; unknown IDs fall back to the raw ID.
func Export(w io.Writer, bookings []booking.Booking, names map[string]string) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//gfenormatel//agendamentos//PT")

	now := time.Now().UTC()
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		name := names[b.EquipmentTypeID]
		if name == "" {
			name = b.EquipmentTypeID
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, b.ID+"@gfenormatel")
		event.Props.SetDateTime(ical.PropDateTimeStamp, now)
		event.Props.SetDateTime(ical.PropDateTimeStart, b.StartTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, b.EndTime.UTC())
		event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s - %s", name, b.Requester))
		if b.Location != "" {
			event.Props.SetText(ical.PropLocation, b.Location)
		}
		desc := fmt.Sprintf("Projeto %s / Carteira %s", b.ProjectID, b.CostCenter)
		if b.Reason != "" {
			desc += "\n" + b.Reason
		}
		event.Props.SetText(ical.PropDescription, desc)

		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}
