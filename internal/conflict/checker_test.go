package conflict_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/conflict"
)

// fakeStore filters an in-memory slice with the same predicate the real
// backends push down to the database.
type fakeStore struct {
	bookings []booking.Booking
	failWith error
	inserted int
}

func (f *fakeStore) ActiveOverlapping(_ context.Context, equipmentTypeID, projectID string, start, end time.Time, excludeID string) ([]booking.Booking, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []booking.Booking
	for _, b := range f.bookings {
		if b.IsCancelled || b.EquipmentTypeID != equipmentTypeID {
			continue
		}
		if projectID != "" && b.ProjectID != projectID {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if booking.Overlaps(b.StartTime, b.EndTime, start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, b *booking.Booking) (*booking.Booking, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	stored := *b
	stored.ID = fmt.Sprintf("id-%d", f.inserted)
	f.inserted++
	f.bookings = append(f.bookings, stored)
	return &stored, nil
}

func (f *fakeStore) ListProject(context.Context, string) ([]booking.Booking, error) { return nil, nil }
func (f *fakeStore) ListOtherProjects(context.Context, string) ([]booking.Booking, error) {
	return nil, nil
}
func (f *fakeStore) Cancel(context.Context, string, string, time.Time) error { return nil }
func (f *fakeStore) Delete(context.Context, string) error                    { return nil }

func ts(hour, min int) time.Time {
	return time.Date(2024, 6, 1, hour, min, 0, 0, time.UTC)
}

// Booking A from the end-to-end scenarios: CRANE, project 743,
// 2024-06-01 08:00-10:00, active.
func bookingA() booking.Booking {
	return booking.Booking{
		ID:              "A",
		EquipmentTypeID: "CRANE",
		ProjectID:       "743",
		StartTime:       ts(8, 0),
		EndTime:         ts(10, 0),
	}
}

func TestCheck_ConflictSameProject(t *testing.T) {
	store := &fakeStore{bookings: []booking.Booking{bookingA()}}
	checker := conflict.NewChecker(store, nil)

	res, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "743",
		Start: ts(8, 30), End: ts(9, 30),
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.HasConflict || res.ConflictingProjectID != "743" {
		t.Errorf("got %+v, want conflict with project 743", res)
	}
}

func TestCheck_BackToBackIsFree(t *testing.T) {
	store := &fakeStore{bookings: []booking.Booking{bookingA()}}
	checker := conflict.NewChecker(store, nil)

	res, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "743",
		Start: ts(10, 0), End: ts(11, 0),
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.HasConflict {
		t.Errorf("back-to-back candidate reported as conflict: %+v", res)
	}
}

func TestCheck_ExclusiveSpansProjects(t *testing.T) {
	store := &fakeStore{bookings: []booking.Booking{bookingA()}}
	checker := conflict.NewChecker(store, nil)

	// Exclusive equipment: a booking under 743 blocks 741.
	res, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "741",
		Start: ts(9, 0), End: ts(11, 0),
		Exclusive: true,
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.HasConflict || res.ConflictingProjectID != "743" {
		t.Errorf("exclusive check got %+v, want conflict with project 743", res)
	}

	// Non-exclusive: the same candidate is project-scoped and free.
	res, err = checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "741",
		Start: ts(9, 0), End: ts(11, 0),
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.HasConflict {
		t.Errorf("non-exclusive cross-project candidate reported as conflict: %+v", res)
	}
}

func TestCheck_CancelledNeverConflicts(t *testing.T) {
	a := bookingA()
	a.IsCancelled = true
	a.CancelledAt = ts(7, 0)
	a.CancellationReason = "Equipment malfunction"
	store := &fakeStore{bookings: []booking.Booking{a}}
	checker := conflict.NewChecker(store, nil)

	res, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "743",
		Start: ts(8, 0), End: ts(10, 0),
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.HasConflict {
		t.Errorf("cancelled booking blocked a new reservation: %+v", res)
	}
}

func TestCheck_ExcludeOwnID(t *testing.T) {
	store := &fakeStore{bookings: []booking.Booking{bookingA()}}
	checker := conflict.NewChecker(store, nil)

	res, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "743",
		Start: ts(8, 0), End: ts(10, 0),
		ExcludeID: "A",
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.HasConflict {
		t.Errorf("booking conflicted with itself: %+v", res)
	}
}

func TestCheck_EarliestConflictWins(t *testing.T) {
	later := bookingA()
	later.ID, later.ProjectID = "B", "999"
	later.StartTime, later.EndTime = ts(9, 0), ts(11, 0)
	// fakeStore preserves insertion order; real stores order by
	// start_time ascending, so A (08:00) comes first.
	store := &fakeStore{bookings: []booking.Booking{bookingA(), later}}
	checker := conflict.NewChecker(store, nil)

	res, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "x",
		Start: ts(8, 30), End: ts(9, 30),
		Exclusive: true,
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.ConflictingProjectID != "743" {
		t.Errorf("conflicting project = %s, want earliest-starting booking's 743", res.ConflictingProjectID)
	}
}

func TestCheck_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("store unavailable")
	store := &fakeStore{failWith: boom}
	checker := conflict.NewChecker(store, nil)

	_, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "743",
		Start: ts(8, 0), End: ts(9, 0),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("store failure must propagate, got %v", err)
	}
}

func TestCheck_RejectsInvertedInterval(t *testing.T) {
	checker := conflict.NewChecker(&fakeStore{}, nil)
	if _, err := checker.Check(context.Background(), conflict.Request{
		EquipmentTypeID: "CRANE", ProjectID: "743",
		Start: ts(10, 0), End: ts(9, 0),
	}); err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestBookEverywhere_AllOrNothing(t *testing.T) {
	// Project 741 already holds a conflicting booking.
	existing := bookingA()
	existing.ID, existing.ProjectID = "X", "741"
	store := &fakeStore{bookings: []booking.Booking{existing}}
	checker := conflict.NewChecker(store, nil)

	candidate := booking.New("CRANE", "", "Maria", booking.CostCenterEletrica,
		"Subestação", "Manutenção preventiva", ts(9, 0), 1)

	created, err := conflict.BookEverywhere(context.Background(), store, checker, candidate, []string{"743", "741"})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	var ce *conflict.ConflictError
	if !errors.As(err, &ce) || ce.ProjectID != "741" {
		t.Fatalf("error %v does not name failing project 741", err)
	}
	if len(created) != 0 || store.inserted != 0 {
		t.Errorf("bookings were created despite a failed sweep: created=%d inserted=%d", len(created), store.inserted)
	}
}

func TestBookEverywhere_CreatesOnePerProject(t *testing.T) {
	store := &fakeStore{}
	checker := conflict.NewChecker(store, nil)

	candidate := booking.New("CRANE", "", "Maria", booking.CostCenterEletrica,
		"Subestação", "Manutenção preventiva", ts(9, 0), 1)

	created, err := conflict.BookEverywhere(context.Background(), store, checker, candidate, []string{"743", "741"})
	if err != nil {
		t.Fatalf("BookEverywhere: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d bookings, want 2", len(created))
	}
	if created[0].ProjectID != "743" || created[1].ProjectID != "741" {
		t.Errorf("unexpected projects: %s, %s", created[0].ProjectID, created[1].ProjectID)
	}
	for _, c := range created {
		if c.ID == "" {
			t.Error("stored booking missing generated id")
		}
	}
}
