// Package relay forwards inbound user messages to operator destinations.
// It maps every inbound content kind to a handler that re-emits the payload
// with a descriptive caption; unrecognized kinds are never dropped silently
// but routed to a fallback notice.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/artemvershinski/bot/internal/database"
)

// ErrRelayFailed is returned when a message could not be delivered to any
// destination.
var ErrRelayFailed = errors.New("message could not be delivered to any destination")

// Kind identifies the content type of an inbound message. The set is
// closed; anything else maps to KindUnknown.
type Kind string

// Supported content kinds.
const (
	KindText      Kind = "text"
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindVoice     Kind = "voice"
	KindAudio     Kind = "audio"
	KindDocument  Kind = "document"
	KindLocation  Kind = "location"
	KindContact   Kind = "contact"
	KindSticker   Kind = "sticker"
	KindAnimation Kind = "animation"
	KindVideoNote Kind = "video_note"
	KindUnknown   Kind = "unknown"
)

// KindOf classifies an inbound message. Animations are checked before
// documents because Telegram sets both fields on GIF messages.
func KindOf(msg *models.Message) Kind {
	switch {
	case msg.Text != "":
		return KindText
	case len(msg.Photo) > 0:
		return KindPhoto
	case msg.Video != nil:
		return KindVideo
	case msg.Voice != nil:
		return KindVoice
	case msg.Audio != nil:
		return KindAudio
	case msg.Animation != nil:
		return KindAnimation
	case msg.Document != nil:
		return KindDocument
	case msg.Location != nil:
		return KindLocation
	case msg.Contact != nil:
		return KindContact
	case msg.Sticker != nil:
		return KindSticker
	case msg.VideoNote != nil:
		return KindVideoNote
	default:
		return KindUnknown
	}
}

// Sender is the outbound capability set the dispatcher needs. *bot.Bot
// satisfies it; tests substitute a fake.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	SendVoice(ctx context.Context, params *bot.SendVoiceParams) (*models.Message, error)
	SendAudio(ctx context.Context, params *bot.SendAudioParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendLocation(ctx context.Context, params *bot.SendLocationParams) (*models.Message, error)
	SendContact(ctx context.Context, params *bot.SendContactParams) (*models.Message, error)
	SendSticker(ctx context.Context, params *bot.SendStickerParams) (*models.Message, error)
	SendAnimation(ctx context.Context, params *bot.SendAnimationParams) (*models.Message, error)
	SendVideoNote(ctx context.Context, params *bot.SendVideoNoteParams) (*models.Message, error)
}

// handlerFunc re-emits one message's payload to a single destination.
type handlerFunc func(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error

// Relay dispatches inbound messages to operator destinations by content kind.
type Relay struct {
	logger   *slog.Logger
	handlers map[Kind]handlerFunc
}

// New creates a Relay with the full dispatch table.
func New(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{logger: logger.With("component", "relay")}
	r.handlers = map[Kind]handlerFunc{
		KindText:      r.forwardText,
		KindPhoto:     r.forwardPhoto,
		KindVideo:     r.forwardVideo,
		KindVoice:     r.forwardVoice,
		KindAudio:     r.forwardAudio,
		KindDocument:  r.forwardDocument,
		KindLocation:  r.forwardLocation,
		KindContact:   r.forwardContact,
		KindSticker:   r.forwardSticker,
		KindAnimation: r.forwardAnimation,
		KindVideoNote: r.forwardVideoNote,
	}
	return r
}

// BuildCaption composes the descriptive header attached to every relayed
// message: sender info, id, and UTC receive time.
func BuildCaption(from *database.User, now time.Time) string {
	return fmt.Sprintf("New message from %s\nID: %d\nTime: %s\n\n",
		from.DisplayName(), from.UserID, now.UTC().Format("02.01.2006 15:04:05 MST"))
}

// Forward delivers the message to every destination independently. A
// failure for one destination is logged and does not abort the others.
// It returns the number of destinations that succeeded; when none did,
// the error is ErrRelayFailed.
func (r *Relay) Forward(ctx context.Context, s Sender, msg *models.Message, from *database.User, destinations []int64) (int, error) {
	kind := KindOf(msg)
	handler, ok := r.handlers[kind]
	if !ok {
		handler = r.forwardUnknown
	}

	caption := BuildCaption(from, time.Now())
	succeeded := 0

	for _, dest := range destinations {
		if err := handler(ctx, s, dest, msg, caption); err != nil {
			r.logger.ErrorContext(ctx, "Failed to relay message to destination",
				"destination", dest, "from", from.UserID, "kind", kind, "error", err)
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return 0, fmt.Errorf("%w: kind %s from user %d", ErrRelayFailed, kind, from.UserID)
	}

	r.logger.InfoContext(ctx, "Message relayed",
		"from", from.UserID, "kind", kind, "delivered", succeeded, "destinations", len(destinations))
	return succeeded, nil
}

// withOriginalCaption appends the sender's own caption when present.
func withOriginalCaption(caption string, msg *models.Message) string {
	if msg.Caption != "" {
		return caption + "\n\nCaption:\n" + msg.Caption
	}
	return caption
}

func (r *Relay) forwardText(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: dest,
		Text:   caption + "Text:\n" + msg.Text,
	})
	return err
}

func (r *Relay) forwardPhoto(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	// The last photo size is the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	_, err := s.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  dest,
		Photo:   &models.InputFileString{Data: fileID},
		Caption: withOriginalCaption(caption+"Photo", msg),
	})
	return err
}

func (r *Relay) forwardVideo(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	_, err := s.SendVideo(ctx, &bot.SendVideoParams{
		ChatID:  dest,
		Video:   &models.InputFileString{Data: msg.Video.FileID},
		Caption: withOriginalCaption(caption+"Video", msg),
	})
	return err
}

func (r *Relay) forwardVoice(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	_, err := s.SendVoice(ctx, &bot.SendVoiceParams{
		ChatID:  dest,
		Voice:   &models.InputFileString{Data: msg.Voice.FileID},
		Caption: withOriginalCaption(caption+"Voice message", msg),
	})
	return err
}

func (r *Relay) forwardAudio(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	_, err := s.SendAudio(ctx, &bot.SendAudioParams{
		ChatID:  dest,
		Audio:   &models.InputFileString{Data: msg.Audio.FileID},
		Caption: withOriginalCaption(caption+"Audio", msg),
	})
	return err
}

func (r *Relay) forwardDocument(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	_, err := s.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   dest,
		Document: &models.InputFileString{Data: msg.Document.FileID},
		Caption:  withOriginalCaption(caption+"Document", msg),
	})
	return err
}

func (r *Relay) forwardLocation(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	if _, err := s.SendLocation(ctx, &bot.SendLocationParams{
		ChatID:    dest,
		Latitude:  msg.Location.Latitude,
		Longitude: msg.Location.Longitude,
	}); err != nil {
		return err
	}
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: dest, Text: caption + "Location"})
	return err
}

func (r *Relay) forwardContact(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	if _, err := s.SendContact(ctx, &bot.SendContactParams{
		ChatID:      dest,
		PhoneNumber: msg.Contact.PhoneNumber,
		FirstName:   msg.Contact.FirstName,
		LastName:    msg.Contact.LastName,
	}); err != nil {
		return err
	}
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: dest, Text: caption + "Contact"})
	return err
}

func (r *Relay) forwardSticker(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	if _, err := s.SendSticker(ctx, &bot.SendStickerParams{
		ChatID:  dest,
		Sticker: &models.InputFileString{Data: msg.Sticker.FileID},
	}); err != nil {
		return err
	}
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: dest, Text: caption + "Sticker"})
	return err
}

func (r *Relay) forwardAnimation(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	_, err := s.SendAnimation(ctx, &bot.SendAnimationParams{
		ChatID:    dest,
		Animation: &models.InputFileString{Data: msg.Animation.FileID},
		Caption:   withOriginalCaption(caption+"GIF", msg),
	})
	return err
}

func (r *Relay) forwardVideoNote(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	if _, err := s.SendVideoNote(ctx, &bot.SendVideoNoteParams{
		ChatID:    dest,
		VideoNote: &models.InputFileString{Data: msg.VideoNote.FileID},
	}); err != nil {
		return err
	}
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: dest, Text: caption + "Video note"})
	return err
}

// forwardUnknown forwards a notice instead of the payload so unsupported
// kinds are still visible to operators.
func (r *Relay) forwardUnknown(ctx context.Context, s Sender, dest int64, msg *models.Message, caption string) error {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: dest,
		Text:   caption + "Unsupported content type; the payload was not forwarded.",
	})
	return err
}
