// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"log/slog"

	"github.com/artemvershinski/bot/internal/admin"
	"github.com/artemvershinski/bot/internal/config"
	"github.com/artemvershinski/bot/internal/database"
	"github.com/artemvershinski/bot/internal/relay"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Admins *admin.Directory
	Relay  *relay.Relay
}
