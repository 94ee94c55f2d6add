// Package conflict decides whether a candidate equipment reservation
// collides with an existing active booking.
package conflict

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
)

// OverlapStore is the slice of the booking store the checker needs.
type OverlapStore interface {
	ActiveOverlapping(ctx context.Context, equipmentTypeID, projectID string, start, end time.Time, excludeID string) ([]booking.Booking, error)
}

// AtomicStore is implemented by backends that can serialize the
// conflict check and the insert (the sqlite store does this inside one
// transaction). Callers prefer it over check-then-create when present.
type AtomicStore interface {
	CreateIfFree(ctx context.Context, b *booking.Booking, exclusive bool) (*booking.Booking, error)
}

// ConflictError reports a blocking overlap. It is an expected business
// outcome, not a fault.
type ConflictError struct {
	ProjectID string
}

func (e *ConflictError) Error() string {
	if e.ProjectID == "" {
		return "equipment already booked for this interval"
	}
	return fmt.Sprintf("equipment already booked under project %s", e.ProjectID)
}

// Request describes a candidate reservation to check.
type Request struct {
	EquipmentTypeID string
	ProjectID       string
	Start, End      time.Time
	// ExcludeID drops one booking from the candidate set, so an edit
	// never conflicts with itself.
	ExcludeID string
	// Exclusive widens the search to every project.
	Exclusive bool
}

// Result of a conflict check. ConflictingProjectID is only meaningful
// when HasConflict is true; it names the project of the earliest-
// starting conflicting booking, for the user-facing message.
type Result struct {
	HasConflict          bool
	ConflictingProjectID string
}

type Checker struct {
	store  OverlapStore
	logger *slog.Logger
}

func NewChecker(store OverlapStore, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Checker{store: store, logger: logger}
}

// Check asks the store for active bookings of the same equipment type
// overlapping [Start, End), scoped per the exclusivity flag. A store
// failure propagates as an error and is never treated as "no conflict":
// a silent false here would allow a double booking.
func (c *Checker) Check(ctx context.Context, req Request) (Result, error) {
	if !req.End.After(req.Start) {
		return Result{}, fmt.Errorf("end must be after start")
	}

	projectID := req.ProjectID
	if req.Exclusive {
		projectID = "" // all projects
	}

	candidates, err := c.store.ActiveOverlapping(ctx, req.EquipmentTypeID, projectID, req.Start, req.End, req.ExcludeID)
	if err != nil {
		return Result{}, fmt.Errorf("checking conflict: %w", err)
	}

	c.logger.Debug("conflict check",
		"equipment", req.EquipmentTypeID,
		"project", req.ProjectID,
		"exclusive", req.Exclusive,
		"candidates", len(candidates),
	)

	if len(candidates) == 0 {
		return Result{}, nil
	}
	// Store results are ordered by start time ascending, so the first
	// row is the earliest-starting conflict.
	return Result{HasConflict: true, ConflictingProjectID: candidates[0].ProjectID}, nil
}

// CheckEverywhere runs one per-project check for each target project,
// returning a ConflictError naming the first project that fails. Used
// by the "book everywhere" action before any insert happens.
func (c *Checker) CheckEverywhere(ctx context.Context, b *booking.Booking, projectIDs []string) error {
	for _, pid := range projectIDs {
		res, err := c.Check(ctx, Request{
			EquipmentTypeID: b.EquipmentTypeID,
			ProjectID:       pid,
			Start:           b.StartTime,
			End:             b.EndTime,
		})
		if err != nil {
			return fmt.Errorf("checking project %s: %w", pid, err)
		}
		if res.HasConflict {
			return &ConflictError{ProjectID: pid}
		}
	}
	return nil
}

// BookEverywhere creates the same booking under every target project.
// The full conflict sweep runs before the first insert, so any conflict
// or check failure aborts with zero bookings created. Inserts after a
// clean sweep are best-effort, not transactional: if one fails midway
// the bookings created so far are returned alongside the error.
func BookEverywhere(ctx context.Context, store booking.Store, checker *Checker, b *booking.Booking, projectIDs []string) ([]booking.Booking, error) {
	if err := checker.CheckEverywhere(ctx, b, projectIDs); err != nil {
		return nil, err
	}

	var created []booking.Booking
	for _, pid := range projectIDs {
		candidate := *b
		candidate.ID = ""
		candidate.ProjectID = pid
		stored, err := store.Insert(ctx, &candidate)
		if err != nil {
			return created, fmt.Errorf("creating booking under project %s: %w", pid, err)
		}
		created = append(created, *stored)
	}
	return created, nil
}
