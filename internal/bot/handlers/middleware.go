package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that checks the sender against the admin
// directory. Unauthorized callers get a fixed rejection reply and the
// wrapped handler never runs, so no state is mutated.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			userID := update.Message.From.ID
			chatID := update.Message.Chat.ID
			log := deps.Logger.With("middleware", "admin_only")

			isAdmin, err := deps.Admins.IsAdmin(ctx, userID)
			if err != nil {
				log.ErrorContext(ctx, "Failed to check admin status", "user_id", userID, "error", err)
				_, sendErr := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: chatID,
					Text:   deps.Config.Messages.GeneralError,
				})
				if sendErr != nil {
					log.ErrorContext(ctx, "Failed to send error message", "error", sendErr, "chat_id", chatID)
				}
				return
			}

			if !isAdmin {
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
				_, sendErr := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: chatID,
					Text:   deps.Config.Messages.NotAuthorized,
				})
				if sendErr != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", sendErr, "chat_id", chatID)
				}
				return
			}

			next(ctx, bot, update)
		}
	}
}
