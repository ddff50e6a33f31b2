package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/models"
	"stayhub/internal/stay"
)

// CreateReservationWithLock inserts a PENDING reservation and consumes
// availability for every night of its stay inside one transaction. The
// decrement is guarded (available_rooms >= n), so a race with a concurrent
// reservation for the last rooms rolls the whole transaction back and
// surfaces UnavailableError instead of overbooking.
func (db *DB) CreateReservationWithLock(ctx context.Context, res *models.Reservation) error {
	nights, err := stay.Nights(res.CheckIn, res.CheckOut)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var total int64
	err = tx.QueryRowContext(ctx, `SELECT total_rooms FROM room_types WHERE id = ?`, res.RoomTypeID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load room type in tx: %w", err)
	}

	now := time.Now()

	// 1. Materialize missing nights at full capacity, then apply the guarded
	// decrement. A zero-row update means the night ran out of rooms.
	ensure := `INSERT OR IGNORE INTO room_availability (room_type_id, date, available_rooms, updated_at)
               VALUES (?, ?, ?, ?)`
	consume := `UPDATE room_availability
                SET available_rooms = available_rooms - ?, updated_at = ?
                WHERE room_type_id = ? AND date = ? AND available_rooms >= ?`

	var unavailable []time.Time
	for _, night := range nights {
		dateStr := night.Format(dateLayout)
		if _, err := tx.ExecContext(ctx, ensure, res.RoomTypeID, dateStr, total, now); err != nil {
			return fmt.Errorf("failed to ensure availability row in tx: %w", err)
		}

		result, err := tx.ExecContext(ctx, consume, res.RoomsBooked, now, res.RoomTypeID, dateStr, res.RoomsBooked)
		if err != nil {
			return fmt.Errorf("failed to consume availability in tx: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected in tx: %w", err)
		}
		if rows == 0 {
			unavailable = append(unavailable, night)
		}
	}
	if len(unavailable) > 0 {
		return &UnavailableError{RoomTypeID: res.RoomTypeID, Dates: unavailable}
	}

	// 2. Insert the reservation itself.
	insert := `INSERT INTO reservations (booking_id, room_type_id, check_in, check_out, rooms_booked, status, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insert,
		res.BookingID, res.RoomTypeID,
		stay.Normalize(res.CheckIn).Format(dateLayout),
		stay.Normalize(res.CheckOut).Format(dateLayout),
		res.RoomsBooked, models.StatusPending, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	res.ID = id
	res.Status = models.StatusPending
	res.CheckIn = stay.Normalize(res.CheckIn)
	res.CheckOut = stay.Normalize(res.CheckOut)
	res.CreatedAt = now
	res.UpdatedAt = now

	return tx.Commit()
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT id, booking_id, room_type_id, check_in, check_out, rooms_booked, status, created_at, updated_at
              FROM reservations WHERE id = ?`

	res, err := scanReservation(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

func (db *DB) GetBookingReservations(ctx context.Context, bookingID int64) ([]*models.Reservation, error) {
	query := `SELECT id, booking_id, room_type_id, check_in, check_out, rooms_booked, status, created_at, updated_at
              FROM reservations WHERE booking_id = ? ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reservation rows: %w", err)
	}
	return reservations, nil
}

// CancelReservation flips pending|confirmed to cancelled. The WHERE guard
// makes the transition terminal: a second cancel affects zero rows and reports
// ErrAlreadyCancelled so capacity is never released twice.
func (db *DB) CancelReservation(ctx context.Context, id int64) error {
	query := `UPDATE reservations SET status = ?, updated_at = ?
              WHERE id = ? AND status IN (?, ?)`
	result, err := db.ExecContext(ctx, query,
		models.StatusCancelled, time.Now(), id, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := db.GetReservation(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyCancelled
	}
	return nil
}

// ConfirmBookingReservations переводит все ожидающие брони заказа в confirmed
func (db *DB) ConfirmBookingReservations(ctx context.Context, bookingID int64) error {
	query := `UPDATE reservations SET status = ?, updated_at = ?
              WHERE booking_id = ? AND status = ?`
	_, err := db.ExecContext(ctx, query,
		models.StatusConfirmed, time.Now(), bookingID, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to confirm booking reservations: %w", err)
	}
	return nil
}

// GetConfirmedRoomUsage accumulates, day by day over [from, to), how many
// rooms CONFIRMED reservations hold simultaneously. This derives usage from
// the reservations themselves, not from room_availability, so it can serve as
// the rebuild source when capacity changes.
func (db *DB) GetConfirmedRoomUsage(ctx context.Context, roomTypeID int64, from, to time.Time) (map[string]int64, error) {
	from = stay.Normalize(from)
	to = stay.Normalize(to)

	query := `SELECT check_in, check_out, rooms_booked FROM reservations
              WHERE room_type_id = ? AND status = ? AND check_out > ? AND check_in < ?`

	rows, err := db.QueryContext(ctx, query, roomTypeID, models.StatusConfirmed,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmed reservations: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]int64)
	for rows.Next() {
		var inStr, outStr string
		var rooms int64
		if err := rows.Scan(&inStr, &outStr, &rooms); err != nil {
			return nil, fmt.Errorf("failed to scan reservation range: %w", err)
		}

		checkIn, err := time.Parse(dateLayout, inStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse check_in %s: %w", inStr, err)
		}
		checkOut, err := time.Parse(dateLayout, outStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse check_out %s: %w", outStr, err)
		}

		nights, err := stay.Nights(checkIn, checkOut)
		if err != nil {
			return nil, err
		}
		for _, night := range nights {
			if night.Before(from) || !night.Before(to) {
				continue
			}
			usage[night.Format(dateLayout)] += rooms
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reservation rows: %w", err)
	}
	return usage, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	res := &models.Reservation{}
	var inStr, outStr string
	err := row.Scan(
		&res.ID, &res.BookingID, &res.RoomTypeID, &inStr, &outStr,
		&res.RoomsBooked, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if res.CheckIn, err = time.Parse(dateLayout, inStr); err != nil {
		return nil, fmt.Errorf("failed to parse check_in %s: %w", inStr, err)
	}
	if res.CheckOut, err = time.Parse(dateLayout, outStr); err != nil {
		return nil, fmt.Errorf("failed to parse check_out %s: %w", outStr, err)
	}
	return res, nil
}
