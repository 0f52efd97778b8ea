package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", update.Message.From.ID)

	user, created, err := refreshUser(ctx, h.deps, update.Message.From)
	if err != nil {
		log.ErrorContext(ctx, "Failed to refresh user on /start", "error", err, "user_id", update.Message.From.ID)
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   h.deps.Config.Messages.Welcome,
	}); err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
	}

	// Tell the owner about first contacts; best effort only.
	ownerID := h.deps.Admins.OwnerID()
	if created && user != nil && user.UserID != ownerID {
		total, countErr := h.deps.Store.CountUsers(ctx)
		if countErr != nil {
			log.WarnContext(ctx, "Failed to count users for new-user notice", "error", countErr)
		}
		notice := fmt.Sprintf("👤 New user started the bot:\n• %s\n• ID: %d\n• Total users: %d",
			user.DisplayName(), user.UserID, total)
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: ownerID, Text: notice}); err != nil {
			log.ErrorContext(ctx, "Failed to notify owner about new user", "error", err, "user_id", user.UserID)
		}
	}
}
