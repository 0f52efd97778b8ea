package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// User represents a person who has contacted the bot or been referenced by
// an admin command. Rows are created on first contact and never deleted;
// display fields are overwritten with whatever the platform reports on
// every contact.
type User struct {
	UserID    int64  `db:"user_id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`

	LastMessageAt sql.NullTime `db:"last_message_at"`

	IsBanned  bool         `db:"is_banned"`
	BanUntil  sql.NullTime `db:"ban_until"` // NULL while banned means permanent
	BanReason string       `db:"ban_reason"`

	MessagesSent int64 `db:"messages_sent"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName returns a human-readable identification of the user,
// preferring the username, then the real name, then the bare ID.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return "id:" + strconv.FormatInt(u.UserID, 10)
}

// ClearBan resets all ban fields, restoring the invariant that a
// non-banned user carries no ban metadata.
func (u *User) ClearBan() {
	u.IsBanned = false
	u.BanUntil = sql.NullTime{}
	u.BanReason = ""
}

// Admin represents an operator authorized to receive relayed messages and
// invoke administrative commands. The configured owner is implicitly an
// admin and is never stored here.
type Admin struct {
	UserID   int64     `db:"user_id"`
	AddedBy  int64     `db:"added_by"`
	IsActive bool      `db:"is_active"`
	AddedAt  time.Time `db:"added_at"`
}

// Stats is the single row of global monotonic counters. Counters are only
// ever incremented at runtime; the row is seeded by the initial migration.
type Stats struct {
	ID                 int64     `db:"id"`
	TotalMessages      int64     `db:"total_messages"`
	SuccessfulForwards int64     `db:"successful_forwards"`
	FailedForwards     int64     `db:"failed_forwards"`
	BansIssued         int64     `db:"bans_issued"`
	RateLimitBlocks    int64     `db:"rate_limit_blocks"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// StatsDelta describes increments to apply to the stats row in one update.
// Zero fields leave the corresponding counter untouched.
type StatsDelta struct {
	TotalMessages      int64
	SuccessfulForwards int64
	FailedForwards     int64
	BansIssued         int64
	RateLimitBlocks    int64
}

// IsZero reports whether applying the delta would be a no-op.
func (d StatsDelta) IsZero() bool {
	return d == StatsDelta{}
}
