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

// GetAvailability возвращает запись доступности на конкретную ночь
func (db *DB) GetAvailability(ctx context.Context, roomTypeID int64, date time.Time) (*models.AvailabilityRecord, error) {
	query := `SELECT room_type_id, date, available_rooms, updated_at
              FROM room_availability WHERE room_type_id = ? AND date = ?`

	var rec models.AvailabilityRecord
	var dateStr string
	err := db.QueryRowContext(ctx, query, roomTypeID, stay.Normalize(date).Format(dateLayout)).Scan(
		&rec.RoomTypeID, &dateStr, &rec.AvailableRooms, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}

	rec.Date, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse availability date %s: %w", dateStr, err)
	}
	return &rec, nil
}

// GetAvailabilityRange batch-fetches the explicit records for the half-open
// range [from, to), keyed by date string. Nights with no record are simply
// absent from the map; callers substitute the room type's total capacity.
func (db *DB) GetAvailabilityRange(ctx context.Context, roomTypeID int64, from, to time.Time) (map[string]*models.AvailabilityRecord, error) {
	query := `SELECT room_type_id, date, available_rooms, updated_at
              FROM room_availability
              WHERE room_type_id = ? AND date >= ? AND date < ?
              ORDER BY date ASC`

	rows, err := db.QueryContext(ctx, query, roomTypeID,
		stay.Normalize(from).Format(dateLayout), stay.Normalize(to).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get availability range: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*models.AvailabilityRecord)
	for rows.Next() {
		rec := &models.AvailabilityRecord{}
		var dateStr string
		if err := rows.Scan(&rec.RoomTypeID, &dateStr, &rec.AvailableRooms, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability record: %w", err)
		}
		rec.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse availability date %s: %w", dateStr, err)
		}
		records[dateStr] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read availability rows: %w", err)
	}
	return records, nil
}

// UpsertAvailability создает или заменяет запись доступности на дату
func (db *DB) UpsertAvailability(ctx context.Context, roomTypeID int64, date time.Time, availableRooms int64) error {
	query := `INSERT INTO room_availability (room_type_id, date, available_rooms, updated_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(room_type_id, date) DO UPDATE SET
                  available_rooms = excluded.available_rooms,
                  updated_at = excluded.updated_at`

	_, err := db.ExecContext(ctx, query, roomTypeID,
		stay.Normalize(date).Format(dateLayout), availableRooms, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert availability: %w", err)
	}
	return nil
}

// AdjustAvailability applies a capacity delta (negative on booking, positive
// on release) to every night of [checkIn, checkOut). Each night is one atomic
// statement that lazily creates the record seeded from the room type's total
// and clamps the result to [0, total_rooms], so a double cancel can never push
// availability above capacity. Nights are processed independently; failures do
// not abort the remaining nights and are reported as a PartialReleaseError.
func (db *DB) AdjustAvailability(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time, delta int64) error {
	nights, err := stay.Nights(checkIn, checkOut)
	if err != nil {
		return err
	}

	var applied, failed []time.Time
	var lastErr error
	for _, night := range nights {
		if err := db.adjustNight(ctx, roomTypeID, night, delta); err != nil {
			db.log.Error().Err(err).
				Int64("room_type_id", roomTypeID).
				Str("date", night.Format(dateLayout)).
				Int64("delta", delta).
				Msg("availability adjustment failed for night")
			failed = append(failed, night)
			lastErr = err
			continue
		}
		applied = append(applied, night)
	}

	if len(failed) > 0 {
		if errors.Is(lastErr, ErrNotFound) && len(applied) == 0 {
			return ErrNotFound
		}
		return &PartialReleaseError{RoomTypeID: roomTypeID, Applied: applied, Failed: failed, LastErr: lastErr}
	}
	return nil
}

// adjustNight is the single-row atomic mutation. Insert and clamp happen in
// one statement so two concurrent adjustments never overwrite each other with
// stale values.
func (db *DB) adjustNight(ctx context.Context, roomTypeID int64, night time.Time, delta int64) error {
	query := `INSERT INTO room_availability (room_type_id, date, available_rooms, updated_at)
              SELECT rt.id, ?, MAX(0, MIN(rt.total_rooms, rt.total_rooms + ?)), ?
              FROM room_types rt WHERE rt.id = ?
              ON CONFLICT(room_type_id, date) DO UPDATE SET
                  available_rooms = MAX(0, MIN(
                      (SELECT total_rooms FROM room_types WHERE id = excluded.room_type_id),
                      room_availability.available_rooms + ?)),
                  updated_at = excluded.updated_at`

	result, err := db.ExecContext(ctx, query,
		night.Format(dateLayout), delta, time.Now(), roomTypeID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// room type row is gone, nothing to seed from
		return ErrNotFound
	}
	return nil
}
