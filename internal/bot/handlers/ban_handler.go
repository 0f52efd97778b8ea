package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/artemvershinski/bot/internal/database"
	"github.com/artemvershinski/bot/internal/policy"
)

const banUsageText = `Usage: /ban <user_id> <reason> [hours]

Examples:
/ban 123456 Spam - permanent ban
/ban 123456 Flood 24 - ban for 24 hours`

// NewBanHandler returns a handler for the /ban command.
func NewBanHandler(deps HandlerDeps) bot.HandlerFunc {
	return banHandler{deps}.Handle
}

type banHandler struct {
	deps HandlerDeps
}

func (h banHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ban")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Ban handler called with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	args := strings.Fields(update.Message.Text)[1:]

	req, err := policy.ParseBanArgs(args, h.deps.Config.Policy.MaxBanHours)
	if err != nil {
		reply(ctx, b, log, chatID, fmt.Sprintf("❌ %v\n\n%s", err, banUsageText))
		return
	}

	// Admins are immune; check before touching any state.
	isAdmin, err := h.deps.Admins.IsAdmin(ctx, req.TargetID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check admin immunity", "error", err, "target_id", req.TargetID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if isAdmin {
		log.WarnContext(ctx, "Refusing to ban an admin", "target_id", req.TargetID, "caller_id", update.Message.From.ID)
		reply(ctx, b, log, chatID, fmt.Sprintf("❌ %v", policy.ErrAdminImmune))
		return
	}

	user, err := h.deps.Store.GetUser(ctx, req.TargetID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load ban target", "error", err, "target_id", req.TargetID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if user == nil {
		user = &database.User{UserID: req.TargetID}
	}

	now := timeNow()
	user.IsBanned = true
	user.BanReason = req.Reason
	user.BanUntil = sql.NullTime{}
	if until := req.Until(now); until != nil {
		user.BanUntil = sql.NullTime{Time: *until, Valid: true}
	}

	if err := h.deps.Store.UpsertUser(ctx, user); err != nil {
		log.ErrorContext(ctx, "Failed to persist ban", "error", err, "target_id", req.TargetID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if err := h.deps.Store.AddToStats(ctx, database.StatsDelta{BansIssued: 1}); err != nil {
		log.ErrorContext(ctx, "Failed to update ban stats", "error", err)
	}

	duration := "permanently"
	if req.Hours > 0 {
		duration = fmt.Sprintf("for %d hours (until %s)",
			req.Hours, user.BanUntil.Time.UTC().Format("02.01.2006 15:04 MST"))
	}

	log.InfoContext(ctx, "User banned",
		"target_id", req.TargetID, "caller_id", update.Message.From.ID,
		"reason", req.Reason, "hours", req.Hours)

	// Notify the target; a failure here does not undo the ban.
	notice := fmt.Sprintf("🚫 You have been banned %s.\nReason: %s", duration, req.Reason)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: req.TargetID, Text: notice}); err != nil {
		log.WarnContext(ctx, "Could not notify banned user", "error", err, "target_id", req.TargetID)
	}

	reply(ctx, b, log, chatID, fmt.Sprintf("✅ User %s (%d) banned %s.\nReason: %s",
		user.DisplayName(), req.TargetID, duration, req.Reason))
}
