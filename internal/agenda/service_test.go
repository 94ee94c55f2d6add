package agenda_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/serafimgb/gfenormatel/internal/agenda"
	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/catalog"
	"github.com/serafimgb/gfenormatel/internal/conflict"
	"github.com/serafimgb/gfenormatel/internal/insights"
	"github.com/serafimgb/gfenormatel/internal/notify"
)

// memStore is an in-memory booking.Store for orchestration tests.
type memStore struct {
	mu       sync.Mutex
	bookings []booking.Booking
	nextID   int
	failAll  bool
}

var errStoreDown = errors.New("store down")

func (m *memStore) Insert(_ context.Context, b *booking.Booking) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errStoreDown
	}
	stored := *b
	if stored.ID == "" {
		m.nextID++
		stored.ID = fmt.Sprintf("mem-%d", m.nextID)
	}
	m.bookings = append(m.bookings, stored)
	return &stored, nil
}

func (m *memStore) ActiveOverlapping(_ context.Context, equipmentTypeID, projectID string, start, end time.Time, excludeID string) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errStoreDown
	}
	var out []booking.Booking
	for _, b := range m.bookings {
		if !b.Active() || b.EquipmentTypeID != equipmentTypeID {
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

func (m *memStore) ListProject(_ context.Context, projectID string) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Booking
	for _, b := range m.bookings {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListOtherProjects(_ context.Context, projectID string) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Booking
	for _, b := range m.bookings {
		if b.ProjectID != projectID && b.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) Cancel(_ context.Context, id, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			m.bookings[i].IsCancelled = true
			m.bookings[i].CancelledAt = at
			m.bookings[i].CancellationReason = reason
			return nil
		}
	}
	return booking.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			m.bookings = append(m.bookings[:i], m.bookings[i+1:]...)
			return nil
		}
	}
	return booking.ErrNotFound
}

// chanNotifier records sends on a channel so tests can wait for the
// fire-and-forget goroutine.
type chanNotifier struct {
	sent chan sentMail
}

type sentMail struct {
	to  []string
	msg notify.Message
}

func (n *chanNotifier) Send(_ context.Context, to []string, msg notify.Message) error {
	n.sent <- sentMail{to: to, msg: msg}
	return nil
}

// slowNotifier delivers after a delay, like a real HTTP send.
type slowNotifier struct {
	delay time.Duration

	mu        sync.Mutex
	delivered []sentMail
}

func (n *slowNotifier) Send(_ context.Context, to []string, msg notify.Message) error {
	time.Sleep(n.delay)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, sentMail{to: to, msg: msg})
	return nil
}

type staticProvider struct {
	got insights.Summary
}

func (p *staticProvider) Generate(_ context.Context, sum insights.Summary) (*insights.Insight, error) {
	p.got = sum
	return &insights.Insight{Summary: "ok"}, nil
}

func newBooking(equipment, project string, start time.Time, hours float64) *booking.Booking {
	return booking.New(equipment, project, "Carlos", booking.CostCenterCivil, "Pátio A", "obra", start, hours)
}

func newService(st booking.Store, n notify.Notifier, p insights.Provider, recipients []string) *agenda.Service {
	return agenda.New(st, catalog.New(nil, nil), n, p, recipients, nil)
}

func TestCreateAndConflict(t *testing.T) {
	st := &memStore{}
	svc := newService(st, nil, nil, nil)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), newBooking("PEMT16", "743", start, 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("stored booking has no id")
	}

	_, err = svc.Create(context.Background(), newBooking("PEMT16", "743", start.Add(30*time.Minute), 1))
	var ce *conflict.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("overlapping create: err = %v, want ConflictError", err)
	}
	if ce.ProjectID != "743" {
		t.Errorf("conflicting project = %q, want 743", ce.ProjectID)
	}

	// non-exclusive equipment: the same slot is free under another project
	if _, err := svc.Create(context.Background(), newBooking("PEMT16", "741", start, 2)); err != nil {
		t.Fatalf("cross-project create of non-exclusive equipment: %v", err)
	}
}

func TestCreateExclusiveBlocksAcrossProjects(t *testing.T) {
	st := &memStore{}
	svc := newService(st, nil, nil, nil)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), newBooking("MUNCK", "741", start, 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Create(context.Background(), newBooking("MUNCK", "743", start.Add(time.Hour), 2))
	var ce *conflict.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("exclusive cross-project create: err = %v, want ConflictError", err)
	}
	if ce.ProjectID != "741" {
		t.Errorf("conflicting project = %q, want 741", ce.ProjectID)
	}
}

func TestCreateStoreFailureIsNeverNoConflict(t *testing.T) {
	st := &memStore{failAll: true}
	svc := newService(st, nil, nil, nil)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), newBooking("PEMT16", "743", start, 2))
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want store failure propagated", err)
	}
}

func TestCreateNotifiesEquipmentMailbox(t *testing.T) {
	st := &memStore{}
	n := &chanNotifier{sent: make(chan sentMail, 1)}
	svc := newService(st, n, nil, []string{"gestor@normatel.com.br"})
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), newBooking("MUNCK", "743", start, 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case mail := <-n.sent:
		if len(mail.to) != 2 {
			t.Fatalf("to = %v, want equipment mailbox plus configured recipient", mail.to)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification sent")
	}
}

func TestFlushJoinsPendingNotification(t *testing.T) {
	st := &memStore{}
	n := &slowNotifier{delay: 100 * time.Millisecond}
	svc := newService(st, n, nil, nil)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), newBooking("MUNCK", "743", start, 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Create returns with the send still in flight; Flush must not.
	svc.Flush()

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.delivered) != 1 {
		t.Fatalf("delivered %d notifications after Flush, want 1", len(n.delivered))
	}
}

func TestCreateEverywhereAllOrNothing(t *testing.T) {
	st := &memStore{}
	svc := newService(st, nil, nil, nil)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	// occupy the slot under 741 only
	if _, err := svc.Create(context.Background(), newBooking("PEMT16", "741", start, 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	created, err := svc.CreateEverywhere(context.Background(), newBooking("PEMT16", "everywhere", start, 2))
	var ce *conflict.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if ce.ProjectID != "741" {
		t.Errorf("conflicting project = %q, want 741", ce.ProjectID)
	}
	if len(created) != 0 {
		t.Fatalf("%d bookings created despite conflict, want 0", len(created))
	}

	// free slot books under every default project
	created, err = svc.CreateEverywhere(context.Background(), newBooking("PEMT16", "", start.Add(4*time.Hour), 1))
	if err != nil {
		t.Fatalf("CreateEverywhere: %v", err)
	}
	if len(created) != len(catalog.DefaultProjects()) {
		t.Fatalf("created %d bookings, want one per project", len(created))
	}
}

func TestCancelTransition(t *testing.T) {
	st := &memStore{}
	n := &chanNotifier{sent: make(chan sentMail, 2)}
	svc := newService(st, n, nil, nil)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), newBooking("MUNCK", "743", start, 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	<-n.sent // creation email

	if err := svc.Cancel(context.Background(), *created, "chuva"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	select {
	case mail := <-n.sent:
		if mail.msg.Subject == "" {
			t.Error("cancellation email has empty subject")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no cancellation notification")
	}

	// the slot is free again
	if _, err := svc.Create(context.Background(), newBooking("MUNCK", "743", start, 2)); err != nil {
		t.Fatalf("rebooking cancelled slot: %v", err)
	}
}

func TestCalendarGhostsAndBadges(t *testing.T) {
	st := &memStore{}
	svc := newService(st, nil, nil, nil)
	// Monday of the week under view
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	mine, err := svc.Create(context.Background(), newBooking("PEMT16", "743", start, 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// same equipment, other project, colliding -> badge
	if _, err := svc.Create(context.Background(), newBooking("PEMT16", "741", start.Add(time.Hour), 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// other equipment, other project, free slot -> ghost
	if _, err := svc.Create(context.Background(), newBooking("TRATOR", "741", start.Add(6*time.Hour), 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cal, err := svc.Calendar(context.Background(), "743", booking.ViewWeek, start)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(cal.Current) != 1 || len(cal.Others) != 2 {
		t.Fatalf("Current=%d Others=%d, want 1 and 2", len(cal.Current), len(cal.Others))
	}
	if len(cal.Ghosts) != 1 || cal.Ghosts[0].EquipmentTypeID != "TRATOR" {
		t.Fatalf("Ghosts = %+v, want only the TRATOR booking", cal.Ghosts)
	}

	badges := cal.Badges(mine)
	if len(badges) != 1 || badges[0].EquipmentTypeID != "PEMT16" {
		t.Fatalf("Badges = %+v, want the colliding PEMT16 booking", badges)
	}

	// badge set and ghost set never share a booking
	for _, g := range cal.Ghosts {
		for _, b := range badges {
			if g.ID == b.ID {
				t.Fatalf("booking %s is both ghost and badge", g.ID)
			}
		}
	}
}

func TestInsightFiltersEquipment(t *testing.T) {
	st := &memStore{}
	p := &staticProvider{}
	svc := newService(st, nil, p, nil)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), newBooking("MUNCK", "743", start, 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), newBooking("TRATOR", "743", start.Add(3*time.Hour), 2)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	in, err := svc.Insight(context.Background(), "743", "MUNCK", nil)
	if err != nil {
		t.Fatalf("Insight: %v", err)
	}
	if in.Summary != "ok" {
		t.Errorf("Summary = %q", in.Summary)
	}
	if p.got.Total != 1 {
		t.Errorf("provider saw %d bookings, want only the MUNCK one", p.got.Total)
	}
	if p.got.EquipmentName != "Caminhão Munck" {
		t.Errorf("EquipmentName = %q, want resolved display name", p.got.EquipmentName)
	}
}
