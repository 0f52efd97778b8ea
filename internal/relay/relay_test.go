package relay_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/artemvershinski/bot/internal/database"
	"github.com/artemvershinski/bot/internal/relay"
)

// fakeSender records every outbound call and fails for the destinations
// listed in failFor.
type fakeSender struct {
	failFor map[int64]bool

	messages   []sentMessage
	photos     []int64
	videos     []int64
	voices     []int64
	audios     []int64
	documents  []int64
	locations  []int64
	contacts   []int64
	stickers   []int64
	animations []int64
	videoNotes []int64
}

type sentMessage struct {
	chatID int64
	text   string
}

func (f *fakeSender) fail(chatID any) error {
	if f.failFor[chatID.(int64)] {
		return errors.New("send failed")
	}
	return nil
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.messages = append(f.messages, sentMessage{chatID: p.ChatID.(int64), text: p.Text})
	return &models.Message{}, nil
}

func (f *fakeSender) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.photos = append(f.photos, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendVideo(_ context.Context, p *bot.SendVideoParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.videos = append(f.videos, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendVoice(_ context.Context, p *bot.SendVoiceParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.voices = append(f.voices, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendAudio(_ context.Context, p *bot.SendAudioParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.audios = append(f.audios, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendDocument(_ context.Context, p *bot.SendDocumentParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.documents = append(f.documents, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendLocation(_ context.Context, p *bot.SendLocationParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.locations = append(f.locations, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendContact(_ context.Context, p *bot.SendContactParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.contacts = append(f.contacts, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendSticker(_ context.Context, p *bot.SendStickerParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.stickers = append(f.stickers, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendAnimation(_ context.Context, p *bot.SendAnimationParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.animations = append(f.animations, p.ChatID.(int64))
	return &models.Message{}, nil
}

func (f *fakeSender) SendVideoNote(_ context.Context, p *bot.SendVideoNoteParams) (*models.Message, error) {
	if err := f.fail(p.ChatID); err != nil {
		return nil, err
	}
	f.videoNotes = append(f.videoNotes, p.ChatID.(int64))
	return &models.Message{}, nil
}

func sender() *database.User {
	return &database.User{UserID: 42, Username: "someone"}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		msg  models.Message
		want relay.Kind
	}{
		{name: "text", msg: models.Message{Text: "hi"}, want: relay.KindText},
		{name: "photo", msg: models.Message{Photo: []models.PhotoSize{{FileID: "p"}}}, want: relay.KindPhoto},
		{name: "video", msg: models.Message{Video: &models.Video{FileID: "v"}}, want: relay.KindVideo},
		{name: "voice", msg: models.Message{Voice: &models.Voice{FileID: "v"}}, want: relay.KindVoice},
		{name: "audio", msg: models.Message{Audio: &models.Audio{FileID: "a"}}, want: relay.KindAudio},
		{name: "document", msg: models.Message{Document: &models.Document{FileID: "d"}}, want: relay.KindDocument},
		{name: "location", msg: models.Message{Location: &models.Location{Latitude: 1}}, want: relay.KindLocation},
		{name: "contact", msg: models.Message{Contact: &models.Contact{PhoneNumber: "1"}}, want: relay.KindContact},
		{name: "sticker", msg: models.Message{Sticker: &models.Sticker{FileID: "s"}}, want: relay.KindSticker},
		{name: "animation", msg: models.Message{Animation: &models.Animation{FileID: "a"}}, want: relay.KindAnimation},
		{
			// Telegram sets both Animation and Document on GIFs.
			name: "animation with document field",
			msg: models.Message{
				Animation: &models.Animation{FileID: "a"},
				Document:  &models.Document{FileID: "d"},
			},
			want: relay.KindAnimation,
		},
		{name: "video note", msg: models.Message{VideoNote: &models.VideoNote{FileID: "v"}}, want: relay.KindVideoNote},
		{name: "empty message", msg: models.Message{}, want: relay.KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := relay.KindOf(&tc.msg); got != tc.want {
				t.Errorf("KindOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestForwardCountsSuccesses(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		failFor   map[int64]bool
		wantCount int
		wantErr   bool
	}{
		{name: "all succeed", failFor: nil, wantCount: 3},
		{name: "one fails", failFor: map[int64]bool{2: true}, wantCount: 2},
		{name: "all but one fail", failFor: map[int64]bool{1: true, 2: true}, wantCount: 1},
		{name: "all fail", failFor: map[int64]bool{1: true, 2: true, 3: true}, wantCount: 0, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := &fakeSender{failFor: tc.failFor}
			r := relay.New(nil)

			msg := &models.Message{Text: "hello"}
			count, err := r.Forward(context.Background(), s, msg, sender(), []int64{1, 2, 3})

			if count != tc.wantCount {
				t.Errorf("count = %d, want %d", count, tc.wantCount)
			}
			if tc.wantErr {
				if !errors.Is(err, relay.ErrRelayFailed) {
					t.Errorf("got %v, want ErrRelayFailed", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestForwardDispatchesByKind(t *testing.T) {
	t.Parallel()

	dests := []int64{1}

	testCases := []struct {
		name  string
		msg   models.Message
		check func(t *testing.T, s *fakeSender)
	}{
		{
			name: "photo goes through SendPhoto",
			msg:  models.Message{Photo: []models.PhotoSize{{FileID: "small"}, {FileID: "large"}}},
			check: func(t *testing.T, s *fakeSender) {
				if len(s.photos) != 1 {
					t.Fatalf("photos sent = %d, want 1", len(s.photos))
				}
			},
		},
		{
			name: "sticker sends payload plus caption message",
			msg:  models.Message{Sticker: &models.Sticker{FileID: "s"}},
			check: func(t *testing.T, s *fakeSender) {
				if len(s.stickers) != 1 || len(s.messages) != 1 {
					t.Fatalf("stickers = %d messages = %d, want 1 and 1", len(s.stickers), len(s.messages))
				}
			},
		},
		{
			name: "location sends coordinates plus caption message",
			msg:  models.Message{Location: &models.Location{Latitude: 1.5, Longitude: 2.5}},
			check: func(t *testing.T, s *fakeSender) {
				if len(s.locations) != 1 || len(s.messages) != 1 {
					t.Fatalf("locations = %d messages = %d, want 1 and 1", len(s.locations), len(s.messages))
				}
			},
		},
		{
			name: "unknown kind forwards a notice",
			msg:  models.Message{},
			check: func(t *testing.T, s *fakeSender) {
				if len(s.messages) != 1 {
					t.Fatalf("messages = %d, want 1", len(s.messages))
				}
				if !strings.Contains(s.messages[0].text, "Unsupported content type") {
					t.Errorf("notice text = %q", s.messages[0].text)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := &fakeSender{}
			r := relay.New(nil)

			if _, err := r.Forward(context.Background(), s, &tc.msg, sender(), dests); err != nil {
				t.Fatalf("forward failed: %v", err)
			}
			tc.check(t, s)
		})
	}
}

func TestForwardTextIncludesCaptionHeader(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	r := relay.New(nil)

	from := &database.User{UserID: 42, Username: "someone"}
	msg := &models.Message{Text: "the payload"}

	if _, err := r.Forward(context.Background(), s, msg, from, []int64{7}); err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if len(s.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(s.messages))
	}

	text := s.messages[0].text
	for _, fragment := range []string{"@someone", "ID: 42", "the payload"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("relayed text missing %q: %q", fragment, text)
		}
	}
}

func TestBuildCaption(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	from := &database.User{UserID: 9, FirstName: "Ann", LastName: "Lee"}

	caption := relay.BuildCaption(from, at)
	for _, fragment := range []string{"Ann Lee", "ID: 9", "15.06.2025 12:00:00 UTC"} {
		if !strings.Contains(caption, fragment) {
			t.Errorf("caption missing %q: %q", fragment, caption)
		}
	}
}
