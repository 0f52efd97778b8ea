package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
)

// timeNow is a hook for tests; production code always gets UTC.
var timeNow = func() time.Time { return time.Now().UTC() }

// reply sends a text reply and logs delivery failures. Every handler path
// ends in a reply, so failures are logged rather than propagated.
func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
