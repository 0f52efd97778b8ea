package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const adminHelpText = `Admin commands:
/ban <user_id> <reason> [hours] - ban a user (no hours = permanent)
/unban <user_id> - lift a ban
/admin add <user_id> - grant admin rights
/admin remove <user_id> - revoke admin rights
/admin list - list admins
/stats - bot statistics
/users - list known users`

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	log.InfoContext(ctx, "Handling /help command", "chat_id", chatID, "user_id", userID)

	helpMsg := h.deps.Config.Messages.Help

	isAdmin, err := h.deps.Admins.IsAdmin(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check admin status for help", "error", err, "user_id", userID)
	} else if isAdmin {
		helpMsg += "\n\n" + adminHelpText
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: helpMsg}); err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", chatID)
	}
}
