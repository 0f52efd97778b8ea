package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewUnbanHandler returns a handler for the /unban command.
func NewUnbanHandler(deps HandlerDeps) bot.HandlerFunc {
	return unbanHandler{deps}.Handle
}

type unbanHandler struct {
	deps HandlerDeps
}

func (h unbanHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "unban")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Unban handler called with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	args := strings.Fields(update.Message.Text)[1:]

	if len(args) < 1 {
		reply(ctx, b, log, chatID, "Usage: /unban <user_id>")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || targetID <= 0 {
		reply(ctx, b, log, chatID, fmt.Sprintf("❌ Invalid user id %q", args[0]))
		return
	}

	user, err := h.deps.Store.GetUser(ctx, targetID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load unban target", "error", err, "target_id", targetID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if user == nil {
		reply(ctx, b, log, chatID, fmt.Sprintf("ℹ️ User %d is not known to the bot.", targetID))
		return
	}
	if !user.IsBanned {
		reply(ctx, b, log, chatID, fmt.Sprintf("ℹ️ User %s (%d) is not banned.", user.DisplayName(), targetID))
		return
	}

	reason := user.BanReason
	user.ClearBan()

	if err := h.deps.Store.UpsertUser(ctx, user); err != nil {
		log.ErrorContext(ctx, "Failed to persist unban", "error", err, "target_id", targetID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "User unbanned", "target_id", targetID, "caller_id", update.Message.From.ID)

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: targetID,
		Text:   "✅ You have been unbanned and can send messages again.",
	}); err != nil {
		log.WarnContext(ctx, "Could not notify unbanned user", "error", err, "target_id", targetID)
	}

	reply(ctx, b, log, chatID, fmt.Sprintf("✅ User %s (%d) unbanned.\nWas banned for: %s",
		user.DisplayName(), targetID, reason))
}
