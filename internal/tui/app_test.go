package tui

import (
	"testing"
	"time"

	"github.com/serafimgb/gfenormatel/internal/agenda"
	"github.com/serafimgb/gfenormatel/internal/booking"
)

func filterIdx(t *testing.T, cc booking.CostCenter) int {
	t.Helper()
	for i, c := range booking.CostCenters() {
		if c == cc {
			return i
		}
	}
	t.Fatalf("unknown cost center %q", cc)
	return -1
}

func TestSelectionHonorsCostCenterFilter(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	civil := booking.Booking{
		ID: "b1", CostCenter: booking.CostCenterCivil,
		StartTime: start, EndTime: start.Add(time.Hour),
	}
	eletrica := booking.Booking{
		ID: "b2", CostCenter: booking.CostCenterEletrica,
		StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour),
	}

	a := &App{
		ccFilter: -1,
		cal:      &agenda.Calendar{Current: []booking.Booking{civil, eletrica}},
	}

	if b := a.selected(); b == nil || b.ID != "b1" {
		t.Fatalf("unfiltered selection = %+v, want b1", b)
	}

	// Filtering to Elétrica hides b1, so the cursor must land on b2
	// and never reach the hidden row.
	a.ccFilter = filterIdx(t, booking.CostCenterEletrica)
	a.cursor = 0
	if b := a.selected(); b == nil || b.ID != "b2" {
		t.Fatalf("filtered selection = %+v, want b2", b)
	}
	if got := len(a.visibleIdx()); got != 1 {
		t.Fatalf("visible rows = %d, want 1", got)
	}

	// Cursor past the visible set selects nothing.
	a.cursor = 1
	if b := a.selected(); b != nil {
		t.Fatalf("out-of-range cursor selected %+v, want nil", b)
	}
}
