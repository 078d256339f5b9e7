package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cohort-points-bot/internal/model"
)

const attendanceColumns = `id, generation, week, day, user_id, channel_id, announcement_message_id, reply_message_id, date, checked_at`

// AttendanceRepository handles attendance record persistence. The unique
// index on (generation, week, day, user_id) is the only guard against
// duplicate credit from redelivered approval events.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository instance.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func scanAttendance(row pgx.Row) (*model.Attendance, error) {
	var rec model.Attendance
	err := row.Scan(
		&rec.ID,
		&rec.Generation,
		&rec.Week,
		&rec.Day,
		&rec.UserID,
		&rec.ChannelID,
		&rec.AnnouncementMessageID,
		&rec.ReplyMessageID,
		&rec.Date,
		&rec.CheckedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TryInsert attempts to insert the record under the composite period key.
// On conflict the pre-existing record is re-fetched and returned with
// created=false; a duplicate approval is never an error.
func (r *AttendanceRepository) TryInsert(ctx context.Context, rec *model.Attendance) (*model.Attendance, bool, error) {
	const insert = `
		INSERT INTO attendance (generation, week, day, user_id, channel_id, announcement_message_id, reply_message_id, date, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (generation, week, day, user_id) DO NOTHING
		RETURNING ` + attendanceColumns

	inserted, err := scanAttendance(r.pool.QueryRow(ctx, insert,
		rec.Generation, rec.Week, rec.Day, rec.UserID,
		rec.ChannelID, rec.AnnouncementMessageID, rec.ReplyMessageID, rec.Date,
	))
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert attendance: %w", err)
	}

	existing, err := r.Get(ctx, rec.Generation, rec.Week, rec.Day, rec.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Get fetches one attendance record by its composite key.
func (r *AttendanceRepository) Get(ctx context.Context, generation, week, day int, userID string) (*model.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE generation = $1 AND week = $2 AND day = $3 AND user_id = $4
	`

	rec, err := scanAttendance(r.pool.QueryRow(ctx, query, generation, week, day, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return rec, nil
}

// ListByUser retrieves all of a user's attendance records, oldest first.
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID string) ([]*model.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE user_id = $1
		ORDER BY generation, week, day
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []*model.Attendance
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}
	return records, nil
}

// CountByUser counts a user's attendance records.
func (r *AttendanceRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM attendance WHERE user_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attendance: %w", err)
	}
	return count, nil
}

// HasOnDate reports whether the user has any attendance record on the
// given calendar date.
func (r *AttendanceRepository) HasOnDate(ctx context.Context, userID, date string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM attendance WHERE user_id = $1 AND date = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check attendance date: %w", err)
	}
	return exists, nil
}

// WeekSummary aggregates one week: unique attendees across all days plus a
// per-day attendee count.
func (r *AttendanceRepository) WeekSummary(ctx context.Context, generation, week int) (*model.WeekSummary, error) {
	summary := &model.WeekSummary{
		Generation: generation,
		Week:       week,
		PerDay:     make(map[int]int),
	}

	const uniqueQuery = `
		SELECT COUNT(DISTINCT user_id)
		FROM attendance
		WHERE generation = $1 AND week = $2
	`
	if err := r.pool.QueryRow(ctx, uniqueQuery, generation, week).Scan(&summary.UniqueAttendees); err != nil {
		return nil, fmt.Errorf("failed to count week attendees: %w", err)
	}

	const perDayQuery = `
		SELECT day, COUNT(*)
		FROM attendance
		WHERE generation = $1 AND week = $2
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.pool.Query(ctx, perDayQuery, generation, week)
	if err != nil {
		return nil, fmt.Errorf("failed to get per-day counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day, count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan per-day count: %w", err)
		}
		summary.PerDay[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating per-day counts: %w", err)
	}
	return summary, nil
}

// Overview returns per-week unique attendee counts for weeks 1..uptoWeek.
// Weeks with no records are omitted.
func (r *AttendanceRepository) Overview(ctx context.Context, generation, uptoWeek int) ([]*model.WeekCount, error) {
	const query = `
		SELECT week, COUNT(DISTINCT user_id)
		FROM attendance
		WHERE generation = $1 AND week >= 1 AND week <= $2
		GROUP BY week
		ORDER BY week
	`

	rows, err := r.pool.Query(ctx, query, generation, uptoWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance overview: %w", err)
	}
	defer rows.Close()

	var weeks []*model.WeekCount
	for rows.Next() {
		var wc model.WeekCount
		if err := rows.Scan(&wc.Week, &wc.UniqueAttendees); err != nil {
			return nil, fmt.Errorf("failed to scan week count: %w", err)
		}
		weeks = append(weeks, &wc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overview: %w", err)
	}
	return weeks, nil
}
