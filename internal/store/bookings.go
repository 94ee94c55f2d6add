package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/conflict"
)

const bookingColumns = `id, equipment_type, project_id, requester, cost_center, location, reason,
	start_time, end_time, duration_hours, is_cancelled, cancelled_at, cancellation_reason, created_at`

func (db *DB) Insert(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	stored := *b
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()

	_, err := db.ExecContext(ctx,
		`INSERT INTO bookings (id, equipment_type, project_id, requester, cost_center, location, reason,
			start_time, end_time, duration_hours, is_cancelled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		stored.ID, stored.EquipmentTypeID, stored.ProjectID, stored.Requester,
		string(stored.CostCenter), stored.Location, stored.Reason,
		stored.StartTime.UTC().Format(time.RFC3339),
		stored.EndTime.UTC().Format(time.RFC3339),
		stored.DurationHours,
		stored.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting booking: %w", err)
	}
	return &stored, nil
}

// CreateIfFree runs the overlap check and the insert inside one
// transaction, so two concurrent submissions for the same equipment and
// interval cannot both succeed. This is the hardened alternative to the
// caller-side check-then-create sequence.
func (db *DB) CreateIfFree(ctx context.Context, b *booking.Booking, exclusive bool) (*booking.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT project_id FROM bookings
		WHERE equipment_type = ? AND is_cancelled = 0 AND start_time < ? AND end_time > ?`
	args := []interface{}{
		b.EquipmentTypeID,
		b.EndTime.UTC().Format(time.RFC3339),
		b.StartTime.UTC().Format(time.RFC3339),
	}
	if !exclusive {
		query += ` AND project_id = ?`
		args = append(args, b.ProjectID)
	}
	query += ` ORDER BY start_time ASC LIMIT 1`

	var conflictProject string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&conflictProject)
	if err == nil {
		return nil, &conflict.ConflictError{ProjectID: conflictProject}
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking overlap: %w", err)
	}

	stored := *b
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, equipment_type, project_id, requester, cost_center, location, reason,
			start_time, end_time, duration_hours, is_cancelled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		stored.ID, stored.EquipmentTypeID, stored.ProjectID, stored.Requester,
		string(stored.CostCenter), stored.Location, stored.Reason,
		stored.StartTime.UTC().Format(time.RFC3339),
		stored.EndTime.UTC().Format(time.RFC3339),
		stored.DurationHours,
		stored.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing booking: %w", err)
	}
	return &stored, nil
}

func (db *DB) ActiveOverlapping(ctx context.Context, equipmentTypeID, projectID string, start, end time.Time, excludeID string) ([]booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE equipment_type = ? AND is_cancelled = 0 AND start_time < ? AND end_time > ?`
	args := []interface{}{
		equipmentTypeID,
		end.UTC().Format(time.RFC3339),
		start.UTC().Format(time.RFC3339),
	}
	if projectID != "" {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY start_time ASC`

	return db.queryBookings(ctx, query, args...)
}

func (db *DB) ListProject(ctx context.Context, projectID string) ([]booking.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE project_id = ?
		 ORDER BY start_time ASC`,
		projectID,
	)
}

func (db *DB) ListOtherProjects(ctx context.Context, projectID string) ([]booking.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE project_id != ? AND is_cancelled = 0
		 ORDER BY start_time ASC`,
		projectID,
	)
}

func (db *DB) ByID(ctx context.Context, id string) (*booking.Booking, error) {
	bookings, err := db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, booking.ErrNotFound
	}
	return &bookings[0], nil
}

func (db *DB) Cancel(ctx context.Context, id, reason string, at time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings
		 SET is_cancelled = 1, cancelled_at = ?, cancellation_reason = ?
		 WHERE id = ?`,
		at.UTC().Format(time.RFC3339), reason, id,
	)
	if err != nil {
		return fmt.Errorf("cancelling booking: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting booking: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]booking.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []booking.Booking
	for rows.Next() {
		var b booking.Booking
		var costCenter string
		var cancelled int
		var cancelledAt, cancellationReason, createdAt sql.NullString
		var startStr, endStr string

		if err := rows.Scan(
			&b.ID, &b.EquipmentTypeID, &b.ProjectID, &b.Requester, &costCenter,
			&b.Location, &b.Reason, &startStr, &endStr, &b.DurationHours,
			&cancelled, &cancelledAt, &cancellationReason, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}

		b.CostCenter = booking.CostCenter(costCenter)
		b.IsCancelled = cancelled != 0
		b.CancellationReason = cancellationReason.String

		if b.StartTime, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("parsing booking %s start time: %w", b.ID, err)
		}
		if b.EndTime, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("parsing booking %s end time: %w", b.ID, err)
		}
		if cancelledAt.Valid {
			if b.CancelledAt, err = time.Parse(time.RFC3339, cancelledAt.String); err != nil {
				return nil, fmt.Errorf("parsing booking %s cancelled time: %w", b.ID, err)
			}
		}
		if createdAt.Valid {
			if b.CreatedAt, err = time.Parse(time.RFC3339, createdAt.String); err != nil {
				return nil, fmt.Errorf("parsing booking %s created time: %w", b.ID, err)
			}
		}

		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}
