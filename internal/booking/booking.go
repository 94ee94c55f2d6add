package booking

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CostCenter is the department tag on a booking ("carteira"). Used for
// filtering only; it never affects conflict detection.
type CostCenter string

const (
	CostCenterCivil       CostCenter = "Civil"
	CostCenterEletrica    CostCenter = "Elétrica"
	CostCenterMecanica    CostCenter = "Mecânica"
	CostCenterAreasVerdes CostCenter = "Áreas Verdes"
	CostCenterConservacao CostCenter = "Conservação e Limpeza"
	CostCenterAutomacao   CostCenter = "Automação"
)

func CostCenters() []CostCenter {
	return []CostCenter{
		CostCenterCivil,
		CostCenterEletrica,
		CostCenterMecanica,
		CostCenterAreasVerdes,
		CostCenterConservacao,
		CostCenterAutomacao,
	}
}

func (c CostCenter) Valid() bool {
	for _, cc := range CostCenters() {
		if c == cc {
			return true
		}
	}
	return false
}

// EquipmentType is a catalog entry, read-only to this package.
// Exclusive marks a single physical unit shared across all projects:
// conflict checks for it span every project instead of just one.
type EquipmentType struct {
	ID        string
	Name      string
	Color     string
	Icon      string
	Exclusive bool
	Mailbox   string
}

// Project is a catalog entry, read-only to this package.
type Project struct {
	ID          string
	Name        string
	Description string
}

// Booking is one reservation of an equipment type by a project for a
// half-open time interval [StartTime, EndTime).
type Booking struct {
	ID              string
	EquipmentTypeID string
	ProjectID       string
	Requester       string
	CostCenter      CostCenter
	Location        string
	Reason          string
	StartTime       time.Time
	EndTime         time.Time
	DurationHours   float64

	// Cancellation is one-way: the three fields below are set together
	// and never cleared.
	IsCancelled        bool
	CancelledAt        time.Time
	CancellationReason string

	CreatedAt time.Time
}

// Active reports whether the booking still blocks the equipment.
func (b *Booking) Active() bool {
	return !b.IsCancelled
}

// New builds a booking from a start time and a duration in hours,
// deriving EndTime. It does not validate; call Validate before storing.
func New(equipmentTypeID, projectID, requester string, costCenter CostCenter, location, reason string, start time.Time, durationHours float64) *Booking {
	return &Booking{
		EquipmentTypeID: equipmentTypeID,
		ProjectID:       projectID,
		Requester:       requester,
		CostCenter:      costCenter,
		Location:        location,
		Reason:          reason,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationHours * float64(time.Hour))),
		DurationHours:   durationHours,
	}
}

// Validate rejects a booking before any store call is made.
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.EquipmentTypeID) == "" {
		return fmt.Errorf("equipment type is required")
	}
	if strings.TrimSpace(b.ProjectID) == "" {
		return fmt.Errorf("project is required")
	}
	if strings.TrimSpace(b.Requester) == "" {
		return fmt.Errorf("requester is required")
	}
	if !b.CostCenter.Valid() {
		return fmt.Errorf("unknown cost center %q", b.CostCenter)
	}
	if strings.TrimSpace(b.Reason) == "" {
		return fmt.Errorf("reason is required")
	}
	if b.StartTime.IsZero() {
		return fmt.Errorf("start time is required")
	}
	if b.DurationHours < 0.5 {
		return fmt.Errorf("duration must be at least 0.5 hours")
	}
	if halves := b.DurationHours * 2; halves != math.Trunc(halves) {
		return fmt.Errorf("duration must be in 0.5 hour increments")
	}
	if !b.EndTime.After(b.StartTime) {
		return fmt.Errorf("end time must be after start time")
	}
	return nil
}
