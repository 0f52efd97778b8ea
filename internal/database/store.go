package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the persistence operations used by the relay bot. The
// store is the sole arbiter of per-row consistency; callers hold no
// authoritative in-memory copy across requests.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetUser retrieves a user by Telegram ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// UpsertUser inserts or updates a user record keyed by user_id.
	UpsertUser(ctx context.Context, user *User) error

	// GetAllUsers retrieves every user record, oldest first.
	GetAllUsers(ctx context.Context) ([]User, error)

	// GetMostActiveUser returns the user with the highest message count,
	// or nil, nil when nobody has sent a message yet.
	GetMostActiveUser(ctx context.Context) (*User, error)

	// CountUsers returns the total number of user records.
	CountUsers(ctx context.Context) (int64, error)

	// CountBannedUsers returns the number of currently banned users.
	CountBannedUsers(ctx context.Context) (int64, error)

	// ClearExpiredBans unbans every user whose timed ban has elapsed and
	// returns the number of affected rows.
	ClearExpiredBans(ctx context.Context, now time.Time) (int64, error)

	// GetAdmin retrieves an admin entry by Telegram ID. Returns nil, nil if not found.
	GetAdmin(ctx context.Context, userID int64) (*Admin, error)

	// UpsertAdmin inserts or re-activates an admin entry.
	UpsertAdmin(ctx context.Context, admin *Admin) error

	// DeactivateAdmin marks an admin entry inactive.
	DeactivateAdmin(ctx context.Context, userID int64) error

	// GetActiveAdmins retrieves all active admin entries, oldest grant first.
	GetActiveAdmins(ctx context.Context) ([]Admin, error)

	// GetStats retrieves the global counters row.
	GetStats(ctx context.Context) (*Stats, error)

	// AddToStats applies a set of counter increments in a single update.
	AddToStats(ctx context.Context, delta StatsDelta) error

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error fetching user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

func (s *sqlxStore) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return errors.New("cannot upsert nil user")
	}
	if user.UserID == 0 {
		return errors.New("user must have a non-zero user_id")
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
        INSERT INTO users (user_id, username, first_name, last_name, last_message_at,
                           is_banned, ban_until, ban_reason, messages_sent, created_at, updated_at)
        VALUES (:user_id, :username, :first_name, :last_name, :last_message_at,
                :is_banned, :ban_until, :ban_reason, :messages_sent, :created_at, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET
            username        = excluded.username,
            first_name      = excluded.first_name,
            last_name       = excluded.last_name,
            last_message_at = excluded.last_message_at,
            is_banned       = excluded.is_banned,
            ban_until       = excluded.ban_until,
            ban_reason      = excluded.ban_reason,
            messages_sent   = excluded.messages_sent,
            updated_at      = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to upsert user %d: %w", user.UserID, err)
	}
	return nil
}

func (s *sqlxStore) GetAllUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at ASC`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching all users", "error", err)
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

func (s *sqlxStore) GetMostActiveUser(ctx context.Context) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE messages_sent > 0 ORDER BY messages_sent DESC, created_at ASC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error fetching most active user", "error", err)
		return nil, fmt.Errorf("failed to get most active user: %w", err)
	}
	return &user, nil
}

func (s *sqlxStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) CountBannedUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE is_banned = 1`); err != nil {
		return 0, fmt.Errorf("failed to count banned users: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) ClearExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
        UPDATE users
        SET is_banned = 0, ban_until = NULL, ban_reason = '', updated_at = ?
        WHERE is_banned = 1 AND ban_until IS NOT NULL AND ban_until < ?`,
		now.UTC(), now.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error clearing expired bans", "error", err)
		return 0, fmt.Errorf("failed to clear expired bans: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		// The sweep succeeded; the count is informational only.
		s.logger.WarnContext(ctx, "Could not determine affected rows for ban sweep", "error", err)
		return 0, nil
	}
	return affected, nil
}

func (s *sqlxStore) GetAdmin(ctx context.Context, userID int64) (*Admin, error) {
	var admin Admin
	err := s.db.GetContext(ctx, &admin, `SELECT * FROM admins WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error fetching admin", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get admin %d: %w", userID, err)
	}
	return &admin, nil
}

func (s *sqlxStore) UpsertAdmin(ctx context.Context, admin *Admin) error {
	if admin == nil {
		return errors.New("cannot upsert nil admin")
	}
	if admin.UserID == 0 {
		return errors.New("admin must have a non-zero user_id")
	}

	if admin.AddedAt.IsZero() {
		admin.AddedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO admins (user_id, added_by, is_active, added_at)
        VALUES (:user_id, :added_by, :is_active, :added_at)
        ON CONFLICT (user_id) DO UPDATE SET
            added_by  = excluded.added_by,
            is_active = excluded.is_active,
            added_at  = excluded.added_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, admin); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting admin", "user_id", admin.UserID, "error", err)
		return fmt.Errorf("failed to upsert admin %d: %w", admin.UserID, err)
	}
	return nil
}

func (s *sqlxStore) DeactivateAdmin(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE admins SET is_active = 0 WHERE user_id = ?`, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error deactivating admin", "user_id", userID, "error", err)
		return fmt.Errorf("failed to deactivate admin %d: %w", userID, err)
	}
	return nil
}

func (s *sqlxStore) GetActiveAdmins(ctx context.Context) ([]Admin, error) {
	var admins []Admin
	err := s.db.SelectContext(ctx, &admins, `SELECT * FROM admins WHERE is_active = 1 ORDER BY added_at ASC`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching active admins", "error", err)
		return nil, fmt.Errorf("failed to get active admins: %w", err)
	}
	return admins, nil
}

func (s *sqlxStore) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.GetContext(ctx, &stats, `SELECT * FROM stats WHERE id = 1`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching stats", "error", err)
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

func (s *sqlxStore) AddToStats(ctx context.Context, delta StatsDelta) error {
	if delta.IsZero() {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
        UPDATE stats SET
            total_messages      = total_messages + ?,
            successful_forwards = successful_forwards + ?,
            failed_forwards     = failed_forwards + ?,
            bans_issued         = bans_issued + ?,
            rate_limit_blocks   = rate_limit_blocks + ?,
            updated_at          = ?
        WHERE id = 1`,
		delta.TotalMessages, delta.SuccessfulForwards, delta.FailedForwards,
		delta.BansIssued, delta.RateLimitBlocks, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating stats", "error", err)
		return fmt.Errorf("failed to update stats: %w", err)
	}
	return nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running database maintenance (VACUUM, ANALYZE)")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Error running VACUUM", "error", err)
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		s.logger.ErrorContext(ctx, "Error running ANALYZE", "error", err)
		return fmt.Errorf("failed to run ANALYZE: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
