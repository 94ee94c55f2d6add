// Package agenda orchestrates booking operations: conflict-checked
// creation, cancellation, calendar windows and usage insights. The TUI
// and the CLI commands both sit on top of it.
package agenda

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/catalog"
	"github.com/serafimgb/gfenormatel/internal/conflict"
	"github.com/serafimgb/gfenormatel/internal/insights"
	"github.com/serafimgb/gfenormatel/internal/notify"
)

type Service struct {
	store    booking.Store
	checker  *conflict.Checker
	catalog  *catalog.Service
	notifier notify.Notifier
	provider insights.Provider
	// extra addresses copied onto every notification, on top of the
	// equipment mailbox
	recipients []string
	logger     *slog.Logger
	sends      sync.WaitGroup
}

func New(store booking.Store, cat *catalog.Service, notifier notify.Notifier, provider insights.Provider, recipients []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:      store,
		checker:    conflict.NewChecker(store, logger),
		catalog:    cat,
		notifier:   notifier,
		provider:   provider,
		recipients: recipients,
		logger:     logger,
	}
}

func (s *Service) Store() booking.Store       { return s.store }
func (s *Service) Catalog() *catalog.Service  { return s.catalog }
func (s *Service) Checker() *conflict.Checker { return s.checker }

// Flush waits for in-flight notifications. Short-lived callers defer
// it so the process does not exit with a send on the wire; each send
// already carries its own timeout, so Flush is bounded by it.
func (s *Service) Flush() { s.sends.Wait() }

// Create validates and stores a booking after the conflict check.
// Backends that can serialize check and insert do it in one step;
// otherwise the check runs first and the insert follows. A
// *conflict.ConflictError means the slot is taken.
func (s *Service) Create(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	eq := s.catalog.Resolve(ctx, b.EquipmentTypeID)

	var stored *booking.Booking
	var err error
	if atomic, ok := s.store.(conflict.AtomicStore); ok {
		stored, err = atomic.CreateIfFree(ctx, b, eq.Exclusive)
	} else {
		var res conflict.Result
		res, err = s.checker.Check(ctx, conflict.Request{
			EquipmentTypeID: b.EquipmentTypeID,
			ProjectID:       b.ProjectID,
			Start:           b.StartTime,
			End:             b.EndTime,
			Exclusive:       eq.Exclusive,
		})
		if err == nil && res.HasConflict {
			err = &conflict.ConflictError{ProjectID: res.ConflictingProjectID}
		}
		if err == nil {
			stored, err = s.store.Insert(ctx, b)
		}
	}
	if err != nil {
		return nil, err
	}

	s.sendEmail(*stored, eq, notify.BookingCreated)
	return stored, nil
}

// CreateEverywhere books the same slot under every project. All
// projects are conflict-checked before the first insert.
func (s *Service) CreateEverywhere(ctx context.Context, b *booking.Booking) ([]booking.Booking, error) {
	projects := s.catalog.Projects(ctx)
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	// the project field is assigned per target, so validate with the
	// first one in place
	probe := *b
	if probe.ProjectID == "" && len(ids) > 0 {
		probe.ProjectID = ids[0]
	}
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	created, err := conflict.BookEverywhere(ctx, s.store, s.checker, b, ids)
	if err != nil {
		return created, err
	}

	eq := s.catalog.Resolve(ctx, b.EquipmentTypeID)
	if len(created) > 0 {
		s.sendEmail(created[0], eq, notify.BookingCreated)
	}
	return created, nil
}

// Recheck runs the conflict check for an edited booking, excluding the
// booking itself from the candidate set.
func (s *Service) Recheck(ctx context.Context, b *booking.Booking) (conflict.Result, error) {
	eq := s.catalog.Resolve(ctx, b.EquipmentTypeID)
	return s.checker.Check(ctx, conflict.Request{
		EquipmentTypeID: b.EquipmentTypeID,
		ProjectID:       b.ProjectID,
		Start:           b.StartTime,
		End:             b.EndTime,
		ExcludeID:       b.ID,
		Exclusive:       eq.Exclusive,
	})
}

// Cancel marks a booking cancelled and notifies the mailbox.
func (s *Service) Cancel(ctx context.Context, b booking.Booking, reason string) error {
	now := time.Now().UTC()
	if err := s.store.Cancel(ctx, b.ID, reason, now); err != nil {
		return fmt.Errorf("cancelling booking: %w", err)
	}

	b.IsCancelled = true
	b.CancelledAt = now
	b.CancellationReason = reason
	eq := s.catalog.Resolve(ctx, b.EquipmentTypeID)
	s.sendEmail(b, eq, notify.BookingCancelled)
	return nil
}

// Delete removes a booking outright. No notification is sent.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Insight summarizes a project's bookings and asks the model about
// them. focused, when non-nil, is the booking the user has selected.
func (s *Service) Insight(ctx context.Context, projectID, equipmentTypeID string, focused *booking.Booking) (*insights.Insight, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no insight provider configured")
	}

	bookings, err := s.store.ListProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading bookings for insight: %w", err)
	}
	if equipmentTypeID != "" {
		filtered := bookings[:0]
		for _, b := range bookings {
			if b.EquipmentTypeID == equipmentTypeID {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}

	eq := s.catalog.Resolve(ctx, equipmentTypeID)
	sum := insights.BuildSummary(projectID, eq.Name, bookings, focused)
	return s.provider.Generate(ctx, sum)
}

// sendEmail delivers a notification without blocking the caller.
// Failures are logged; a booking is never rolled back because the
// email did not go out.
func (s *Service) sendEmail(b booking.Booking, eq booking.EquipmentType, render func(booking.Booking, string) (notify.Message, error)) {
	if s.notifier == nil {
		return
	}

	var to []string
	if eq.Mailbox != "" {
		to = append(to, eq.Mailbox)
	}
	to = append(to, s.recipients...)
	if len(to) == 0 {
		s.logger.Warn("skipping notification: no recipients", "booking", b.ID)
		return
	}

	msg, err := render(b, eq.Name)
	if err != nil {
		s.logger.Error("rendering notification", "error", err, "booking", b.ID)
		return
	}

	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, to, msg); err != nil {
			s.logger.Error("sending notification", "error", err, "booking", b.ID)
		}
	}()
}
