package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/artemvershinski/bot/internal/database"
	"github.com/artemvershinski/bot/internal/policy"
	"github.com/artemvershinski/bot/internal/relay"
)

// NewMessageHandler returns the default handler that relays inbound user
// messages to the owner and active admins after the policy checks pass.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	from := msg.From
	chatID := msg.Chat.ID
	now := timeNow()

	if err := h.deps.Store.AddToStats(ctx, database.StatsDelta{TotalMessages: 1}); err != nil {
		log.ErrorContext(ctx, "Failed to count inbound message", "error", err)
	}

	user, _, err := refreshUser(ctx, h.deps, from)
	if err != nil {
		log.ErrorContext(ctx, "Failed to refresh user record", "error", err, "user_id", from.ID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	status := policy.CheckBan(user, now)
	if status.Cleared {
		if err := h.deps.Store.UpsertUser(ctx, user); err != nil {
			log.ErrorContext(ctx, "Failed to persist cleared ban", "error", err, "user_id", user.UserID)
		}
	}
	if status.Banned {
		log.InfoContext(ctx, "Rejected message from banned user", "user_id", user.UserID)
		reply(ctx, b, log, chatID, fmt.Sprintf("🚫 You are banned %s.", status.Detail))
		return
	}

	isAdmin, err := h.deps.Admins.IsAdmin(ctx, user.UserID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check admin status", "error", err, "user_id", user.UserID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if !isAdmin {
		allowed, remaining := policy.CheckRateLimit(user, now, h.deps.Config.Policy.RateLimitWindow())
		if !allowed {
			if err := h.deps.Store.AddToStats(ctx, database.StatsDelta{RateLimitBlocks: 1}); err != nil {
				log.ErrorContext(ctx, "Failed to count rate limit block", "error", err)
			}
			log.InfoContext(ctx, "Rate limited message", "user_id", user.UserID, "wait_minutes", remaining)
			reply(ctx, b, log, chatID, fmt.Sprintf("⏳ Please wait %d more minute(s) before sending another message.", remaining))
			return
		}
	}

	dests, err := h.destinations(ctx, user.UserID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve destinations", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if len(dests) == 0 {
		// The sender is the only operator; there is no one to relay to.
		reply(ctx, b, log, chatID, "ℹ️ You are the only operator, nothing to relay.")
		return
	}

	delivered, err := h.deps.Relay.Forward(ctx, b, msg, user, dests)
	if err != nil {
		if !errors.Is(err, relay.ErrRelayFailed) {
			log.ErrorContext(ctx, "Relay returned unexpected error", "error", err)
		}
		if err := h.deps.Store.AddToStats(ctx, database.StatsDelta{FailedForwards: 1}); err != nil {
			log.ErrorContext(ctx, "Failed to count failed forward", "error", err)
		}
		reply(ctx, b, log, chatID, h.deps.Config.Messages.RelayFailed)
		h.notifyOwnerFailure(ctx, b, log, user)
		return
	}

	user.MessagesSent++
	user.LastMessageAt = sql.NullTime{Time: now, Valid: true}
	if err := h.deps.Store.UpsertUser(ctx, user); err != nil {
		log.ErrorContext(ctx, "Failed to persist message bookkeeping", "error", err, "user_id", user.UserID)
	}
	if err := h.deps.Store.AddToStats(ctx, database.StatsDelta{SuccessfulForwards: int64(delivered)}); err != nil {
		log.ErrorContext(ctx, "Failed to count successful forwards", "error", err)
	}

	log.InfoContext(ctx, "Relayed message", "user_id", user.UserID, "kind", relay.KindOf(msg), "delivered", delivered)
	reply(ctx, b, log, chatID, h.deps.Config.Messages.RelayConfirmed)
}

// destinations returns the owner plus all active admins, excluding the
// sender so admins do not receive echoes of their own messages.
func (h messageHandler) destinations(ctx context.Context, senderID int64) ([]int64, error) {
	admins, err := h.deps.Store.GetActiveAdmins(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[int64]bool{h.deps.Admins.OwnerID(): true}
	dests := make([]int64, 0, len(admins)+1)
	if h.deps.Admins.OwnerID() != senderID {
		dests = append(dests, h.deps.Admins.OwnerID())
	}
	for _, a := range admins {
		if seen[a.UserID] || a.UserID == senderID {
			continue
		}
		seen[a.UserID] = true
		dests = append(dests, a.UserID)
	}
	return dests, nil
}

func (h messageHandler) notifyOwnerFailure(ctx context.Context, b *bot.Bot, log *slog.Logger, user *database.User) {
	ownerID := h.deps.Admins.OwnerID()
	if ownerID == user.UserID {
		return
	}
	text := fmt.Sprintf("⚠️ Failed to relay a message from %s (ID: %d).", user.DisplayName(), user.UserID)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: ownerID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to notify owner about relay failure", "error", err)
	}
}
