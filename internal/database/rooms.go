package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"stayhub/internal/models"
	"stayhub/internal/stay"
)

func (db *DB) CreateHotel(ctx context.Context, hotel *models.Hotel) error {
	query := `INSERT INTO hotels (owner_user_id, name, city, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, hotel.OwnerUserID, hotel.Name, hotel.City, now, now)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	hotel.ID = id
	hotel.CreatedAt = now
	hotel.UpdatedAt = now
	return nil
}

func (db *DB) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	query := `SELECT id, owner_user_id, name, city, created_at, updated_at FROM hotels WHERE id = ?`

	var hotel models.Hotel
	err := db.QueryRowContext(ctx, query, id).Scan(
		&hotel.ID, &hotel.OwnerUserID, &hotel.Name, &hotel.City, &hotel.CreatedAt, &hotel.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return &hotel, nil
}

func (db *DB) CreateRoomType(ctx context.Context, rt *models.RoomType) error {
	if rt.TotalRooms < 0 {
		return fmt.Errorf("total_rooms must be >= 0, got %d", rt.TotalRooms)
	}

	query := `INSERT INTO room_types (hotel_id, name, price_per_night, total_rooms, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, rt.HotelID, rt.Name, rt.PricePerNight, rt.TotalRooms, now, now)
	if err != nil {
		return fmt.Errorf("failed to create room type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rt.ID = id
	rt.CreatedAt = now
	rt.UpdatedAt = now
	return nil
}

func (db *DB) GetRoomType(ctx context.Context, id int64) (*models.RoomType, error) {
	query := `SELECT id, hotel_id, name, price_per_night, total_rooms, created_at, updated_at
              FROM room_types WHERE id = ?`

	var rt models.RoomType
	err := db.QueryRowContext(ctx, query, id).Scan(
		&rt.ID, &rt.HotelID, &rt.Name, &rt.PricePerNight, &rt.TotalRooms, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room type: %w", err)
	}
	return &rt, nil
}

func (db *DB) GetRoomTypes(ctx context.Context) ([]*models.RoomType, error) {
	query := `SELECT id, hotel_id, name, price_per_night, total_rooms, created_at, updated_at
              FROM room_types ORDER BY hotel_id, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get room types: %w", err)
	}
	defer rows.Close()

	var roomTypes []*models.RoomType
	for rows.Next() {
		rt := &models.RoomType{}
		if err := rows.Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.PricePerNight, &rt.TotalRooms, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room type: %w", err)
		}
		roomTypes = append(roomTypes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read room type rows: %w", err)
	}
	return roomTypes, nil
}

// GetHotelOwnerByRoomType возвращает владельца отеля, которому принадлежит тип номера
func (db *DB) GetHotelOwnerByRoomType(ctx context.Context, roomTypeID int64) (int64, error) {
	query := `SELECT h.owner_user_id FROM hotels h
              JOIN room_types rt ON rt.hotel_id = h.id
              WHERE rt.id = ?`

	var ownerID int64
	err := db.QueryRowContext(ctx, query, roomTypeID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get hotel owner: %w", err)
	}
	return ownerID, nil
}

// DeleteRoomType removes a room type and its availability records. Refused
// while any CONFIRMED reservation still references it.
func (db *DB) DeleteRoomType(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var confirmed int64
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE room_type_id = ? AND status = ?`,
		id, models.StatusConfirmed).Scan(&confirmed)
	if err != nil {
		return fmt.Errorf("failed to count confirmed reservations: %w", err)
	}
	if confirmed > 0 {
		return ErrRoomTypeInUse
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM room_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_availability WHERE room_type_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete availability records: %w", err)
	}

	return tx.Commit()
}

// SetRoomTypeCapacity changes total_rooms and rebuilds every future
// availability record from confirmed reservations over the horizon. A
// reduction below the maximum simultaneously confirmed usage fails with
// CapacityConflictError reporting the minimum viable capacity.
func (db *DB) SetRoomTypeCapacity(ctx context.Context, roomTypeID, newTotal int64, horizonDays int) error {
	if newTotal < 0 {
		return fmt.Errorf("total_rooms must be >= 0, got %d", newTotal)
	}
	if horizonDays <= 0 {
		horizonDays = models.CapacityHorizonDays
	}

	from := stay.Normalize(time.Now())
	to := from.AddDate(0, 0, horizonDays)

	usage, err := db.GetConfirmedRoomUsage(ctx, roomTypeID, from, to)
	if err != nil {
		return err
	}

	var maxNeeded int64
	for _, rooms := range usage {
		if rooms > maxNeeded {
			maxNeeded = rooms
		}
	}
	if newTotal < maxNeeded {
		return &CapacityConflictError{RoomTypeID: roomTypeID, Requested: newTotal, MaxRoomsNeeded: maxNeeded}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`UPDATE room_types SET total_rooms = ?, updated_at = ? WHERE id = ?`,
		newTotal, now, roomTypeID)
	if err != nil {
		return fmt.Errorf("failed to update room type capacity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	// Full rebuild: every future date with either an explicit record or
	// confirmed usage gets newTotal - bookedThatDay, derived from the
	// reservations, never patched from the old record values.
	dates := make(map[string]struct{}, len(usage))
	for dateStr := range usage {
		dates[dateStr] = struct{}{}
	}

	existing, err := db.queryExistingDatesTx(ctx, tx, roomTypeID, from, to)
	if err != nil {
		return err
	}
	for _, dateStr := range existing {
		dates[dateStr] = struct{}{}
	}

	ordered := make([]string, 0, len(dates))
	for dateStr := range dates {
		ordered = append(ordered, dateStr)
	}
	sort.Strings(ordered)

	upsert := `INSERT INTO room_availability (room_type_id, date, available_rooms, updated_at)
               VALUES (?, ?, ?, ?)
               ON CONFLICT(room_type_id, date) DO UPDATE SET
                   available_rooms = excluded.available_rooms,
                   updated_at = excluded.updated_at`
	for _, dateStr := range ordered {
		available := newTotal - usage[dateStr]
		if available < 0 {
			available = 0
		}
		if _, err := tx.ExecContext(ctx, upsert, roomTypeID, dateStr, available, now); err != nil {
			return fmt.Errorf("failed to rebuild availability for %s: %w", dateStr, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit capacity change: %w", err)
	}

	db.log.Info().
		Int64("room_type_id", roomTypeID).
		Int64("total_rooms", newTotal).
		Int("rebuilt_dates", len(ordered)).
		Msg("room type capacity changed")
	return nil
}

func (db *DB) queryExistingDatesTx(ctx context.Context, tx *sql.Tx, roomTypeID int64, from, to time.Time) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT date FROM room_availability WHERE room_type_id = ? AND date >= ? AND date < ?`,
		roomTypeID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing availability dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan availability date: %w", err)
		}
		dates = append(dates, dateStr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read availability dates: %w", err)
	}
	return dates, nil
}
