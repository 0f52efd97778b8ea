// Package admin implements the directory of operator identities. The
// configured owner is always an admin and cannot be removed; everyone else
// is tracked through admin entries in the store. The directory holds no
// cache: every check re-reads the table so concurrent grants and removals
// are always observed.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artemvershinski/bot/internal/database"
)

// ErrOwnerProtected is returned when a removal targets the owner identity.
var ErrOwnerProtected = errors.New("owner cannot be removed from admins")

// Directory answers authorization questions and mutates the admin table.
type Directory struct {
	store   database.Store
	ownerID int64
	logger  *slog.Logger
}

// NewDirectory creates a Directory for the given owner identity.
func NewDirectory(store database.Store, ownerID int64, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		store:   store,
		ownerID: ownerID,
		logger:  logger.With("component", "admin_directory"),
	}
}

// OwnerID returns the configured owner identity.
func (d *Directory) OwnerID() int64 {
	return d.ownerID
}

// IsAdmin reports whether the identity is the owner or has an active
// admin entry.
func (d *Directory) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if userID == d.ownerID {
		return true, nil
	}

	entry, err := d.store.GetAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin status of %d: %w", userID, err)
	}
	return entry != nil && entry.IsActive, nil
}

// Add grants admin rights to the target, re-activating a previously
// removed entry if one exists. Adding the owner is a no-op success. The
// target is guaranteed to have a user record afterwards.
func (d *Directory) Add(ctx context.Context, targetID, grantorID int64) error {
	if targetID == d.ownerID {
		return nil
	}

	// Admin entries reference user records; create one on first mention.
	user, err := d.store.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if user == nil {
		if err := d.store.UpsertUser(ctx, &database.User{UserID: targetID}); err != nil {
			return err
		}
	}

	entry := &database.Admin{
		UserID:   targetID,
		AddedBy:  grantorID,
		IsActive: true,
		AddedAt:  time.Now().UTC(),
	}
	if err := d.store.UpsertAdmin(ctx, entry); err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "Admin added", "user_id", targetID, "added_by", grantorID)
	return nil
}

// Remove revokes admin rights from the target. Removing the owner fails
// with ErrOwnerProtected.
func (d *Directory) Remove(ctx context.Context, targetID int64) error {
	if targetID == d.ownerID {
		return ErrOwnerProtected
	}

	if err := d.store.DeactivateAdmin(ctx, targetID); err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "Admin removed", "user_id", targetID)
	return nil
}

// List returns all admin identities, owner first, then active entries in
// grant order.
func (d *Directory) List(ctx context.Context) ([]int64, error) {
	entries, err := d.store.GetActiveAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	ids := make([]int64, 0, len(entries)+1)
	ids = append(ids, d.ownerID)
	for _, entry := range entries {
		if entry.UserID == d.ownerID {
			continue
		}
		ids = append(ids, entry.UserID)
	}
	return ids, nil
}
