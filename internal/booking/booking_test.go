package booking_test

import (
	"strings"
	"testing"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

func validBooking() *booking.Booking {
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	return booking.New("MUNCK", "743", "João Pereira", booking.CostCenterCivil,
		"Pátio Norte", "Troca de luminárias", start, 2)
}

func TestNew_DerivesEndTime(t *testing.T) {
	b := validBooking()
	if want := b.StartTime.Add(2 * time.Hour); !b.EndTime.Equal(want) {
		t.Errorf("end = %v, want %v", b.EndTime, want)
	}

	half := booking.New("MUNCK", "743", "x", booking.CostCenterCivil, "y", "z", b.StartTime, 1.5)
	if want := b.StartTime.Add(90 * time.Minute); !half.EndTime.Equal(want) {
		t.Errorf("end = %v, want %v", half.EndTime, want)
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validBooking().Validate(); err != nil {
		t.Fatalf("valid booking rejected: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*booking.Booking)
		want   string
	}{
		{"missing equipment", func(b *booking.Booking) { b.EquipmentTypeID = " " }, "equipment"},
		{"missing project", func(b *booking.Booking) { b.ProjectID = "" }, "project"},
		{"missing requester", func(b *booking.Booking) { b.Requester = "" }, "requester"},
		{"bad cost center", func(b *booking.Booking) { b.CostCenter = "Financeiro" }, "cost center"},
		{"missing reason", func(b *booking.Booking) { b.Reason = "" }, "reason"},
		{"too short", func(b *booking.Booking) { b.DurationHours = 0.25 }, "0.5"},
		{"zero duration", func(b *booking.Booking) { b.DurationHours = 0 }, "0.5"},
		{"off-grid duration", func(b *booking.Booking) { b.DurationHours = 1.7 }, "increments"},
		{"end before start", func(b *booking.Booking) { b.EndTime = b.StartTime.Add(-time.Hour) }, "after start"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBooking()
			tc.mutate(b)
			err := b.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCostCenterValid(t *testing.T) {
	if !booking.CostCenterAreasVerdes.Valid() {
		t.Error("known cost center rejected")
	}
	if booking.CostCenter("RH").Valid() {
		t.Error("unknown cost center accepted")
	}
}
