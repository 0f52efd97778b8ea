package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/artemvershinski/bot/internal/admin"
)

const adminUsageText = "Usage: /admin add <user_id> | remove <user_id> | list"

// NewAdminHandler returns a handler for the /admin command with its
// add/remove/list subcommands.
func NewAdminHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminHandler{deps}.Handle
}

type adminHandler struct {
	deps HandlerDeps
}

func (h adminHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admin")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Admin handler called with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	callerID := update.Message.From.ID
	args := strings.Fields(update.Message.Text)[1:]

	if len(args) < 1 {
		reply(ctx, b, log, chatID, adminUsageText)
		return
	}

	switch strings.ToLower(args[0]) {
	case "add":
		h.add(ctx, b, log, chatID, callerID, args[1:])
	case "remove":
		h.remove(ctx, b, log, chatID, callerID, args[1:])
	case "list":
		h.list(ctx, b, log, chatID)
	default:
		reply(ctx, b, log, chatID, adminUsageText)
	}
}

func parseTargetID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, errors.New("missing user id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", args[0])
	}
	return id, nil
}

func (h adminHandler) add(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID, callerID int64, args []string) {
	targetID, err := parseTargetID(args)
	if err != nil {
		reply(ctx, b, log, chatID, fmt.Sprintf("❌ %v\n%s", err, adminUsageText))
		return
	}

	if err := h.deps.Admins.Add(ctx, targetID, callerID); err != nil {
		log.ErrorContext(ctx, "Failed to add admin", "error", err, "target_id", targetID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Admin granted", "target_id", targetID, "caller_id", callerID)
	reply(ctx, b, log, chatID, fmt.Sprintf("✅ User %d is now an admin.", targetID))
}

func (h adminHandler) remove(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID, callerID int64, args []string) {
	targetID, err := parseTargetID(args)
	if err != nil {
		reply(ctx, b, log, chatID, fmt.Sprintf("❌ %v\n%s", err, adminUsageText))
		return
	}

	if err := h.deps.Admins.Remove(ctx, targetID); err != nil {
		if errors.Is(err, admin.ErrOwnerProtected) {
			reply(ctx, b, log, chatID, "❌ The owner cannot be removed from admins.")
			return
		}
		log.ErrorContext(ctx, "Failed to remove admin", "error", err, "target_id", targetID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Admin revoked", "target_id", targetID, "caller_id", callerID)
	reply(ctx, b, log, chatID, fmt.Sprintf("✅ User %d is no longer an admin.", targetID))
}

func (h adminHandler) list(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64) {
	ids, err := h.deps.Admins.List(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list admins", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 Admins:\n")
	for i, id := range ids {
		if id == h.deps.Admins.OwnerID() {
			fmt.Fprintf(&sb, "%d. %d (owner)\n", i+1, id)
			continue
		}
		fmt.Fprintf(&sb, "%d. %d\n", i+1, id)
	}

	reply(ctx, b, log, chatID, sb.String())
}
