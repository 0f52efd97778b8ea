package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Stats handler called with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /stats command", "chat_id", chatID, "user_id", update.Message.From.ID)

	stats, err := h.deps.Store.GetStats(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load stats", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	totalUsers, err := h.deps.Store.CountUsers(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count users", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	bannedUsers, err := h.deps.Store.CountBannedUsers(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count banned users", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Bot statistics\n\n")
	fmt.Fprintf(&sb, "Users:\n• Total: %d\n• Active: %d\n• Banned: %d\n\n",
		totalUsers, totalUsers-bannedUsers, bannedUsers)
	fmt.Fprintf(&sb, "Messages:\n• Received: %d\n• Forwarded: %d\n• Forward failures: %d\n• Rate-limit blocks: %d\n• Bans issued: %d\n",
		stats.TotalMessages, stats.SuccessfulForwards, stats.FailedForwards,
		stats.RateLimitBlocks, stats.BansIssued)

	mostActive, err := h.deps.Store.GetMostActiveUser(ctx)
	if err != nil {
		log.WarnContext(ctx, "Failed to load most active user", "error", err)
	} else if mostActive != nil {
		fmt.Fprintf(&sb, "\nMost active:\n• %s\n• Messages: %d\n• First seen: %s\n",
			mostActive.DisplayName(), mostActive.MessagesSent,
			mostActive.CreatedAt.UTC().Format("02.01.2006"))
	}

	fmt.Fprintf(&sb, "\nUpdated: %s", timeNow().Format("02.01.2006 15:04:05 MST"))

	reply(ctx, b, log, chatID, sb.String())
}
