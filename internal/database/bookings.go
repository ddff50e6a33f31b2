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

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (reference, user_id, status, total_price, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.Reference, booking.UserID, models.StatusPending, booking.TotalPrice, now, now)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Status = models.StatusPending
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT id, reference, user_id, status, total_price, created_at, updated_at
              FROM bookings WHERE id = ?`

	var booking models.Booking
	err := db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID, &booking.Reference, &booking.UserID, &booking.Status,
		&booking.TotalPrice, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBooking removes an order shell left behind by a failed reservation.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT id, reference, user_id, status, total_price, created_at, updated_at
              FROM bookings WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		if err := rows.Scan(&b.ID, &b.Reference, &b.UserID, &b.Status, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read booking rows: %w", err)
	}
	return bookings, nil
}

func (db *DB) AddFlightSegment(ctx context.Context, seg *models.FlightSegment) error {
	query := `INSERT INTO flight_segments (booking_id, flight_number, depart_date, price, status, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		seg.BookingID, seg.FlightNumber,
		stay.Normalize(seg.DepartDate).Format(dateLayout),
		seg.Price, models.StatusPending, now)
	if err != nil {
		return fmt.Errorf("failed to add flight segment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	seg.ID = id
	seg.Status = models.StatusPending
	seg.CreatedAt = now
	return nil
}

func (db *DB) GetBookingFlights(ctx context.Context, bookingID int64) ([]*models.FlightSegment, error) {
	query := `SELECT id, booking_id, flight_number, depart_date, price, status, created_at
              FROM flight_segments WHERE booking_id = ? ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking flights: %w", err)
	}
	defer rows.Close()

	var flights []*models.FlightSegment
	for rows.Next() {
		seg := &models.FlightSegment{}
		var dateStr string
		if err := rows.Scan(&seg.ID, &seg.BookingID, &seg.FlightNumber, &dateStr, &seg.Price, &seg.Status, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flight segment: %w", err)
		}
		seg.DepartDate, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse depart_date %s: %w", dateStr, err)
		}
		flights = append(flights, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flight rows: %w", err)
	}
	return flights, nil
}

// CancelBookingFlights flips all still-active flight legs of a booking to
// cancelled and reports how many were affected. The flight inventory itself is
// external; only the local status is owned here.
func (db *DB) CancelBookingFlights(ctx context.Context, bookingID int64) (int64, error) {
	query := `UPDATE flight_segments SET status = ?
              WHERE booking_id = ? AND status IN (?, ?)`
	result, err := db.ExecContext(ctx, query,
		models.StatusCancelled, bookingID, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel booking flights: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// ConfirmBookingFlights переводит ожидающие перелеты заказа в confirmed
func (db *DB) ConfirmBookingFlights(ctx context.Context, bookingID int64) error {
	query := `UPDATE flight_segments SET status = ? WHERE booking_id = ? AND status = ?`
	_, err := db.ExecContext(ctx, query, models.StatusConfirmed, bookingID, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to confirm booking flights: %w", err)
	}
	return nil
}
