package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cohort-points-bot/internal/model"
)

const gratitudeColumns = `id, from_user_id, to_user_id, date, slot, points, message, created_at`

// GratitudeRepository handles gratitude record persistence. The unique
// index on (from_user_id, date, slot) serializes racing sends: exactly one
// wins a slot, the rest see a conflict.
type GratitudeRepository struct {
	pool *pgxpool.Pool
}

// NewGratitudeRepository creates a new GratitudeRepository instance.
func NewGratitudeRepository(pool *pgxpool.Pool) *GratitudeRepository {
	return &GratitudeRepository{pool: pool}
}

func scanGratitude(row pgx.Row) (*model.Gratitude, error) {
	var rec model.Gratitude
	err := row.Scan(
		&rec.ID,
		&rec.FromUserID,
		&rec.ToUserID,
		&rec.Date,
		&rec.Slot,
		&rec.Points,
		&rec.Message,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TryInsert attempts to insert the record under the (sender, date, slot)
// key. On conflict it returns (nil, nil): unlike attendance, a gratitude
// slot collision means a different concurrent send won, so the caller
// reports failure rather than treating it as the same credit.
func (r *GratitudeRepository) TryInsert(ctx context.Context, rec *model.Gratitude) (*model.Gratitude, error) {
	const insert = `
		INSERT INTO gratitude (from_user_id, to_user_id, date, slot, points, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (from_user_id, date, slot) DO NOTHING
		RETURNING ` + gratitudeColumns

	inserted, err := scanGratitude(r.pool.QueryRow(ctx, insert,
		rec.FromUserID, rec.ToUserID, rec.Date, rec.Slot, rec.Points, rec.Message,
	))
	if err == nil {
		return inserted, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to insert gratitude: %w", err)
}

// CountSentOnDate counts how many gratitude sends the user has made on the
// given calendar date. Feeds the daily quota check and the next slot
// number.
func (r *GratitudeRepository) CountSentOnDate(ctx context.Context, fromUserID, date string) (int, error) {
	const query = `SELECT COUNT(*) FROM gratitude WHERE from_user_id = $1 AND date = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, fromUserID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count gratitude sent: %w", err)
	}
	return count, nil
}

// SummaryFor aggregates one user's gratitude totals.
func (r *GratitudeRepository) SummaryFor(ctx context.Context, userID, today string) (*model.GratitudeSummary, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE from_user_id = $1),
			COUNT(*) FILTER (WHERE to_user_id = $1),
			COUNT(*) FILTER (WHERE from_user_id = $1 AND date = $2)
		FROM gratitude
		WHERE from_user_id = $1 OR to_user_id = $1
	`

	var summary model.GratitudeSummary
	err := r.pool.QueryRow(ctx, query, userID, today).Scan(
		&summary.TotalSent,
		&summary.TotalReceived,
		&summary.SentToday,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get gratitude summary: %w", err)
	}
	return &summary, nil
}

// ListSent retrieves the user's most recent sends, newest first.
func (r *GratitudeRepository) ListSent(ctx context.Context, fromUserID string, limit int) ([]*model.Gratitude, error) {
	query := `
		SELECT ` + gratitudeColumns + `
		FROM gratitude
		WHERE from_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, fromUserID, limit)
}

// ListReceived retrieves the user's most recent received records, newest
// first.
func (r *GratitudeRepository) ListReceived(ctx context.Context, toUserID string, limit int) ([]*model.Gratitude, error) {
	query := `
		SELECT ` + gratitudeColumns + `
		FROM gratitude
		WHERE to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, toUserID, limit)
}

func (r *GratitudeRepository) list(ctx context.Context, query, userID string, limit int) ([]*model.Gratitude, error) {
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list gratitude: %w", err)
	}
	defer rows.Close()

	var records []*model.Gratitude
	for rows.Next() {
		rec, err := scanGratitude(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gratitude: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gratitude: %w", err)
	}
	return records, nil
}

// TopRecipients returns the users this sender has thanked most often,
// most-thanked first.
func (r *GratitudeRepository) TopRecipients(ctx context.Context, fromUserID string, limit int) ([]*model.RecipientCount, error) {
	const query = `
		SELECT to_user_id, COUNT(*)
		FROM gratitude
		WHERE from_user_id = $1
		GROUP BY to_user_id
		ORDER BY COUNT(*) DESC, to_user_id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, fromUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*model.RecipientCount
	for rows.Next() {
		var rc model.RecipientCount
		if err := rows.Scan(&rc.UserID, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, &rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}
	return recipients, nil
}
