package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// usersListLimit caps the /users output to keep the reply within
// Telegram's message size limits.
const usersListLimit = 50

// NewUsersHandler returns a handler for the /users command.
func NewUsersHandler(deps HandlerDeps) bot.HandlerFunc {
	return usersHandler{deps}.Handle
}

type usersHandler struct {
	deps HandlerDeps
}

func (h usersHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "users")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Users handler called with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /users command", "chat_id", chatID, "user_id", update.Message.From.ID)

	users, err := h.deps.Store.GetAllUsers(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load users", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(users) == 0 {
		reply(ctx, b, log, chatID, "📭 No users yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 Users:\n\n")

	shown := len(users)
	if shown > usersListLimit {
		shown = usersListLimit
	}

	for i, user := range users[:shown] {
		status := "✅"
		if user.IsBanned {
			status = "🚫"
		}
		fmt.Fprintf(&sb, "%d. %s %s | ID: %d | Messages: %d\n",
			i+1, status, user.DisplayName(), user.UserID, user.MessagesSent)
	}

	if len(users) > usersListLimit {
		fmt.Fprintf(&sb, "\nShowing %d of %d users", usersListLimit, len(users))
	}

	reply(ctx, b, log, chatID, sb.String())
}
