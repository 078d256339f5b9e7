package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order at startup. The unique composite indexes
// on attendance and gratitude are the only cross-task concurrency control
// in the system; everything else is plain storage.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "users",
		sql: `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			platform_id TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			nickname TEXT NOT NULL DEFAULT '',
			generation INT NOT NULL DEFAULT 0,
			total_points BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_generation ON users(generation);
		`,
	},
	{
		name: "transactions",
		sql: `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			points BIGINT NOT NULL CHECK (points <> 0),
			reason TEXT NOT NULL,
			generation INT,
			week INT,
			from_user_id TEXT,
			to_user_id TEXT,
			admin_id TEXT,
			note TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_time ON transactions(created_at DESC);
		`,
	},
	{
		name: "attendance",
		sql: `
		CREATE TABLE IF NOT EXISTS attendance (
			id BIGSERIAL PRIMARY KEY,
			generation INT NOT NULL,
			week INT NOT NULL,
			day INT NOT NULL,
			user_id TEXT NOT NULL,
			channel_id BIGINT,
			announcement_message_id BIGINT,
			reply_message_id BIGINT,
			date TEXT NOT NULL,
			checked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (generation, week, day, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_attendance_user ON attendance(user_id);
		CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
		`,
	},
	{
		name: "gratitude",
		sql: `
		CREATE TABLE IF NOT EXISTS gratitude (
			id BIGSERIAL PRIMARY KEY,
			from_user_id TEXT NOT NULL,
			to_user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			slot INT NOT NULL,
			points INT NOT NULL,
			message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (from_user_id, date, slot),
			CHECK (from_user_id <> to_user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_gratitude_to_user ON gratitude(to_user_id);
		`,
	},
	{
		name: "attendance_codes",
		sql: `
		CREATE TABLE IF NOT EXISTS attendance_codes (
			id BIGSERIAL PRIMARY KEY,
			session INT NOT NULL,
			code TEXT NOT NULL,
			created_by TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ,
			UNIQUE (session, code)
		);
		`,
	},
}

// Migrate applies the database schema. Safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		log.Info().Str("migration", m.name).Msg("Migration applied")
	}
	return nil
}
