// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cohort-points-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = `id, platform_id, username, nickname, generation, total_points, created_at, updated_at`

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.PlatformID,
		&user.Username,
		&user.Nickname,
		&user.Generation,
		&user.TotalPoints,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByPlatformID retrieves a user by their platform ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByPlatformID(ctx context.Context, platformID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE platform_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, platformID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreate retrieves a user by platform ID, creating one with a zero
// balance if absent. Changed username/nickname on an existing user are
// patched (latest wins). Two concurrent calls may both observe "absent" and
// both attempt insert; the unique index on platform_id makes exactly one
// win and the loser re-reads the winner's row. No error surfaces on that
// race.
func (r *UserRepository) GetOrCreate(ctx context.Context, platformID, username string, generation int, nickname string) (*model.User, bool, error) {
	user, err := r.GetByPlatformID(ctx, platformID)
	if err == nil {
		return r.patchNames(ctx, user, username, nickname)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	if nickname == "" {
		nickname = username
	}

	const insert = `
		INSERT INTO users (platform_id, username, nickname, generation, total_points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
		ON CONFLICT (platform_id) DO NOTHING
		RETURNING ` + userColumns

	user, err = scanUser(r.pool.QueryRow(ctx, insert, platformID, username, nickname, generation))
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	// Lost the insert race; the winner's row must exist now.
	user, err = r.GetByPlatformID(ctx, platformID)
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// patchNames updates username/nickname when the caller supplies changed
// non-empty values.
func (r *UserRepository) patchNames(ctx context.Context, user *model.User, username, nickname string) (*model.User, bool, error) {
	newUsername := user.Username
	if username != "" && username != user.Username {
		newUsername = username
	}
	newNickname := user.Nickname
	if nickname != "" && nickname != user.Nickname {
		newNickname = nickname
	}
	if newUsername == user.Username && newNickname == user.Nickname {
		return user, false, nil
	}

	const query = `
		UPDATE users
		SET username = $2, nickname = $3, updated_at = NOW()
		WHERE platform_id = $1
		RETURNING ` + userColumns

	updated, err := scanUser(r.pool.QueryRow(ctx, query, user.PlatformID, newUsername, newNickname))
	if err != nil {
		return nil, false, fmt.Errorf("failed to update user names: %w", err)
	}
	return updated, false, nil
}

// AddPoints atomically adjusts a user's cached total by delta. Concurrent
// awards to the same user sum correctly regardless of interleaving because
// the increment happens store-side.
func (r *UserRepository) AddPoints(ctx context.Context, platformID string, delta int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET total_points = total_points + $2, updated_at = NOW()
		WHERE platform_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, platformID, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to add points: %w", err)
	}
	return user, nil
}

// GetTopUsers retrieves the top N users by total points.
func (r *UserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY total_points DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
