package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cohort-points-bot/internal/model"
)

// Errors for the legacy attendance-code path.
var (
	ErrCodeExists = errors.New("attendance code already exists for session")
)

const codeColumns = `id, session, code, created_by, is_active, created_at, expires_at`

// AttendanceCodeRepository handles the legacy session-code check-in
// records. Superseded by period-key approval; kept as a separate path.
type AttendanceCodeRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceCodeRepository creates a new AttendanceCodeRepository.
func NewAttendanceCodeRepository(pool *pgxpool.Pool) *AttendanceCodeRepository {
	return &AttendanceCodeRepository{pool: pool}
}

func scanCode(row pgx.Row) (*model.AttendanceCode, error) {
	var rec model.AttendanceCode
	err := row.Scan(
		&rec.ID,
		&rec.Session,
		&rec.Code,
		&rec.CreatedBy,
		&rec.IsActive,
		&rec.CreatedAt,
		&rec.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a new code for a session. Codes are stored uppercased;
// a duplicate (session, code) pair is an error, unlike the idempotent
// attendance insert.
func (r *AttendanceCodeRepository) Create(ctx context.Context, session int, code, createdBy string, expiresAt *time.Time) (*model.AttendanceCode, error) {
	const insert = `
		INSERT INTO attendance_codes (session, code, created_by, is_active, created_at, expires_at)
		VALUES ($1, $2, $3, TRUE, NOW(), $4)
		ON CONFLICT (session, code) DO NOTHING
		RETURNING ` + codeColumns

	rec, err := scanCode(r.pool.QueryRow(ctx, insert, session, strings.ToUpper(code), createdBy, expiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("failed to create attendance code: %w", err)
	}
	return rec, nil
}

// FindActive returns the active code for (session, code), or nil if no
// active match exists. Expiry is checked by the caller against its clock.
func (r *AttendanceCodeRepository) FindActive(ctx context.Context, session int, code string) (*model.AttendanceCode, error) {
	query := `
		SELECT ` + codeColumns + `
		FROM attendance_codes
		WHERE session = $1 AND code = $2 AND is_active = TRUE
	`

	rec, err := scanCode(r.pool.QueryRow(ctx, query, session, strings.ToUpper(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find attendance code: %w", err)
	}
	return rec, nil
}

// Deactivate marks a code inactive.
func (r *AttendanceCodeRepository) Deactivate(ctx context.Context, session int, code string) error {
	const query = `UPDATE attendance_codes SET is_active = FALSE WHERE session = $1 AND code = $2`

	if _, err := r.pool.Exec(ctx, query, session, strings.ToUpper(code)); err != nil {
		return fmt.Errorf("failed to deactivate attendance code: %w", err)
	}
	return nil
}
