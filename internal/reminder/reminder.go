// Package reminder runs the background loop that raises a desktop
// notification shortly before a booking starts.
package reminder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/config"
	"github.com/serafimgb/gfenormatel/internal/notify"
)

type Reminder struct {
	store     booking.Store
	projectID string
	interval  time.Duration
	lead      time.Duration
	logger    *slog.Logger

	notified map[string]bool
	// overridable for tests
	alert func(title, body string) error
}

func New(store booking.Store, projectID string, cfg config.ReminderConfig, logger *slog.Logger) *Reminder {
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	lead := time.Duration(cfg.LeadMinutes) * time.Minute
	if lead <= 0 {
		lead = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reminder{
		store:     store,
		projectID: projectID,
		interval:  interval,
		lead:      lead,
		logger:    logger,
		notified:  make(map[string]bool),
		alert:     notify.Desktop,
	}
}

func (r *Reminder) Run(ctx context.Context) error {
	if err := r.writePID(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer r.removePID()

	fmt.Printf("Reminder started (interval: %s, lead: %s)\n", r.interval, r.lead)

	for {
		nextTick := nextAlignedTick(time.Now(), r.interval)

		select {
		case <-ctx.Done():
			fmt.Println("\nReminder stopped.")
			return nil
		case <-time.After(time.Until(nextTick)):
		}

		r.tick(ctx, time.Now())
	}
}

func (r *Reminder) tick(ctx context.Context, now time.Time) {
	bookings, err := r.store.ListProject(ctx, r.projectID)
	if err != nil {
		r.logger.Error("fetching bookings for reminders", "error", err)
		return
	}

	for _, b := range Upcoming(bookings, now, r.lead) {
		if r.notified[b.ID] {
			continue
		}
		r.notified[b.ID] = true

		title := "Agendamento em breve"
		body := fmt.Sprintf("%s às %s (%s)", b.EquipmentTypeID, b.StartTime.Local().Format("15:04"), b.Requester)
		if err := r.alert(title, body); err != nil {
			r.logger.Error("desktop notification failed", "error", err)
		}
	}
}

// Upcoming returns active bookings starting within (now, now+lead],
// ordered as given.
func Upcoming(bookings []booking.Booking, now time.Time, lead time.Duration) []booking.Booking {
	var due []booking.Booking
	horizon := now.Add(lead)
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		if b.StartTime.After(now) && !b.StartTime.After(horizon) {
			due = append(due, b)
		}
	}
	return due
}

func nextAlignedTick(now time.Time, interval time.Duration) time.Time {
	mins := int(interval.Minutes())
	if mins <= 0 {
		mins = 5
	}

	nextMinute := ((now.Minute() / mins) + 1) * mins

	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	return next.Add(time.Duration(nextMinute) * time.Minute)
}

func pidPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gfenormatel.pid"), nil
}

func (r *Reminder) writePID() error {
	path, err := pidPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func (r *Reminder) removePID() {
	if path, err := pidPath(); err == nil {
		os.Remove(path)
	}
}

// ReadPID reports the pid of a running reminder loop, if any.
func ReadPID() (int, error) {
	path, err := pidPath()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running reminder found")
	}

	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file")
	}

	return pid, nil
}
