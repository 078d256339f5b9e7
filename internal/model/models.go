// Package model defines the data models for the cohort points bot.
package model

import "time"

// User is the identity anchor for one chat platform account.
// total_points is a cache derived from the transaction log; it is only
// permitted to exist because all mutation funnels through the ledger's
// single append path, which updates both atomically.
type User struct {
	ID          int64     `db:"id"`
	PlatformID  string    `db:"platform_id"`
	Username    string    `db:"username"`
	Nickname    string    `db:"nickname"`
	Generation  int       `db:"generation"`
	TotalPoints int64     `db:"total_points"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// DisplayName returns the nickname with the username in parentheses when
// they differ, matching how members are announced in chat.
func (u *User) DisplayName() string {
	if u.Nickname != "" && u.Username != "" && u.Nickname != u.Username {
		return u.Nickname + "(" + u.Username + ")"
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Nickname
}

// Transaction is an immutable fact: a point delta applied to one user for
// one reason. Rows are never updated or deleted; the sum over a user's
// transactions is the source of truth for their balance.
type Transaction struct {
	ID         int64     `db:"id"`
	UserID     string    `db:"user_id"`
	Points     int64     `db:"points"`
	Reason     string    `db:"reason"`
	Generation *int      `db:"generation"`
	Week       *int      `db:"week"`
	FromUserID *string   `db:"from_user_id"`
	ToUserID   *string   `db:"to_user_id"`
	AdminID    *string   `db:"admin_id"`
	Note       *string   `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
}

// Transaction reasons. Closed enum; both gratitude reasons carry positive
// deltas - the reason differs, not the sign.
const (
	ReasonAttendance        = "attendance"
	ReasonGratitudeSent     = "gratitude_sent"
	ReasonGratitudeReceived = "gratitude_received"
	ReasonAdminGrant        = "admin_grant"
	ReasonAdminRevoke       = "admin_revoke"
)

// KnownReason reports whether reason is part of the closed enum.
func KnownReason(reason string) bool {
	switch reason {
	case ReasonAttendance, ReasonGratitudeSent, ReasonGratitudeReceived,
		ReasonAdminGrant, ReasonAdminRevoke:
		return true
	}
	return false
}

// Attendance records that one user was credited for one occurrence of the
// weekly activity, identified by the composite period key
// (generation, week, day). The unique index on that key is the sole
// concurrency-safety mechanism against duplicate credit from redelivered
// approval events. Legacy session-code check-ins use day 0 so they can
// never collide with period-key records.
type Attendance struct {
	ID                    int64     `db:"id"`
	Generation            int       `db:"generation"`
	Week                  int       `db:"week"`
	Day                   int       `db:"day"`
	UserID                string    `db:"user_id"`
	ChannelID             *int64    `db:"channel_id"`
	AnnouncementMessageID *int64    `db:"announcement_message_id"`
	ReplyMessageID        *int64    `db:"reply_message_id"`
	Date                  string    `db:"date"`
	CheckedAt             time.Time `db:"checked_at"`
}

// Gratitude records one peer-to-peer recognition on a calendar date.
// Slot is the daily ordinal (1..N); the unique index on
// (from_user_id, date, slot) turns racing sends into exactly one winner.
type Gratitude struct {
	ID         int64     `db:"id"`
	FromUserID string    `db:"from_user_id"`
	ToUserID   string    `db:"to_user_id"`
	Date       string    `db:"date"`
	Slot       int       `db:"slot"`
	Points     int       `db:"points"`
	Message    *string   `db:"message"`
	CreatedAt  time.Time `db:"created_at"`
}

// AttendanceCode is the legacy session-code check-in record. Kept as a
// separate path; superseded by period-key approval.
type AttendanceCode struct {
	ID        int64      `db:"id"`
	Session   int        `db:"session"`
	Code      string     `db:"code"`
	CreatedBy string     `db:"created_by"`
	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt *time.Time `db:"expires_at"`
}

// WeekSummary aggregates one week of attendance.
type WeekSummary struct {
	Generation      int
	Week            int
	UniqueAttendees int
	PerDay          map[int]int
}

// WeekCount is one row of a per-week attendance overview.
type WeekCount struct {
	Week            int
	UniqueAttendees int
}

// RecipientCount is one row of a sender's most-thanked ranking.
type RecipientCount struct {
	UserID string
	Count  int
}

// GratitudeSummary aggregates one user's gratitude activity.
type GratitudeSummary struct {
	TotalSent     int
	TotalReceived int
	SentToday     int
}
