package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"github.com/artemvershinski/bot/internal/database"
)

// refreshUser loads the sender's record, creating it on first contact, and
// overwrites the display fields with whatever the platform reports now.
// It returns the up-to-date record and whether it was just created.
func refreshUser(ctx context.Context, deps HandlerDeps, from *models.User) (*database.User, bool, error) {
	user, err := deps.Store.GetUser(ctx, from.ID)
	if err != nil {
		return nil, false, err
	}

	created := user == nil
	if created {
		user = &database.User{UserID: from.ID}
	}

	user.Username = from.Username
	user.FirstName = from.FirstName
	user.LastName = from.LastName

	if err := deps.Store.UpsertUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, created, nil
}
