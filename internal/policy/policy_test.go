package policy_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/artemvershinski/bot/internal/database"
	"github.com/artemvershinski/bot/internal/policy"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func TestCheckBan(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		user        database.User
		wantBanned  bool
		wantCleared bool
		wantDetail  string
	}{
		{
			name:       "not banned",
			user:       database.User{UserID: 1},
			wantBanned: false,
		},
		{
			name:       "permanent ban",
			user:       database.User{UserID: 1, IsBanned: true, BanReason: "spam"},
			wantBanned: true,
			wantDetail: "permanently",
		},
		{
			name:       "timed ban still active",
			user:       database.User{UserID: 1, IsBanned: true, BanUntil: nullTime(now.Add(time.Hour))},
			wantBanned: true,
			wantDetail: "until 15.06.2025 13:00 UTC",
		},
		{
			name:        "timed ban expired",
			user:        database.User{UserID: 1, IsBanned: true, BanUntil: nullTime(now.Add(-time.Minute)), BanReason: "spam"},
			wantBanned:  false,
			wantCleared: true,
		},
		{
			name: "timed ban expired, stored in non-UTC zone",
			user: database.User{UserID: 1, IsBanned: true,
				BanUntil: nullTime(now.Add(-time.Minute).In(time.FixedZone("CET", 3600)))},
			wantBanned:  false,
			wantCleared: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user := tc.user
			status := policy.CheckBan(&user, now)

			if status.Banned != tc.wantBanned {
				t.Errorf("Banned = %v, want %v", status.Banned, tc.wantBanned)
			}
			if status.Cleared != tc.wantCleared {
				t.Errorf("Cleared = %v, want %v", status.Cleared, tc.wantCleared)
			}
			if tc.wantDetail != "" && status.Detail != tc.wantDetail {
				t.Errorf("Detail = %q, want %q", status.Detail, tc.wantDetail)
			}

			if tc.wantCleared {
				if user.IsBanned || user.BanUntil.Valid || user.BanReason != "" {
					t.Errorf("expected ban fields cleared, got %+v", user)
				}
			}
		})
	}
}

func TestCheckBanIdempotent(t *testing.T) {
	t.Parallel()

	user := database.User{UserID: 1, IsBanned: true, BanUntil: nullTime(now.Add(-time.Hour)), BanReason: "flood"}

	first := policy.CheckBan(&user, now)
	if first.Banned || !first.Cleared {
		t.Fatalf("first check: got %+v, want cleared and not banned", first)
	}

	second := policy.CheckBan(&user, now)
	if second.Banned || second.Cleared {
		t.Fatalf("second check: got %+v, want no-op on already cleared record", second)
	}
	if user.IsBanned || user.BanUntil.Valid || user.BanReason != "" {
		t.Errorf("ban fields not cleared after repeated checks: %+v", user)
	}
}

func TestCheckRateLimit(t *testing.T) {
	t.Parallel()

	window := 10 * time.Minute

	testCases := []struct {
		name          string
		lastMessageAt sql.NullTime
		wantAllowed   bool
		wantRemaining int
	}{
		{
			name:        "no prior message",
			wantAllowed: true,
		},
		{
			name:          "window fully elapsed",
			lastMessageAt: nullTime(now.Add(-time.Hour)),
			wantAllowed:   true,
		},
		{
			name:          "boundary is inclusive",
			lastMessageAt: nullTime(now.Add(-window)),
			wantAllowed:   true,
		},
		{
			name:          "message just sent",
			lastMessageAt: nullTime(now),
			wantAllowed:   false,
			wantRemaining: 10,
		},
		{
			name:          "partway through window",
			lastMessageAt: nullTime(now.Add(-3*time.Minute - 30*time.Second)),
			wantAllowed:   false,
			wantRemaining: 7,
		},
		{
			name:          "one second short of window",
			lastMessageAt: nullTime(now.Add(-window + time.Second)),
			wantAllowed:   false,
			wantRemaining: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user := database.User{UserID: 1, LastMessageAt: tc.lastMessageAt}
			allowed, remaining := policy.CheckRateLimit(&user, now, window)

			if allowed != tc.wantAllowed {
				t.Errorf("allowed = %v, want %v", allowed, tc.wantAllowed)
			}
			if remaining != tc.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining, tc.wantRemaining)
			}
		})
	}
}

func TestParseBanArgs(t *testing.T) {
	t.Parallel()

	const maxHours = 720

	testCases := []struct {
		name    string
		args    []string
		want    policy.BanRequest
		wantErr bool
	}{
		{
			name: "permanent ban",
			args: []string{"555", "Spam"},
			want: policy.BanRequest{TargetID: 555, Reason: "Spam"},
		},
		{
			name: "timed ban",
			args: []string{"555", "Spam", "24"},
			want: policy.BanRequest{TargetID: 555, Reason: "Spam", Hours: 24},
		},
		{
			name: "multi-word reason with duration",
			args: []string{"555", "rule", "violation", "168"},
			want: policy.BanRequest{TargetID: 555, Reason: "rule violation", Hours: 168},
		},
		{
			name: "numeric reason without duration stays the reason",
			args: []string{"555", "1234"},
			want: policy.BanRequest{TargetID: 555, Reason: "1234"},
		},
		{
			name:    "missing reason",
			args:    []string{"555"},
			wantErr: true,
		},
		{
			name:    "invalid user id",
			args:    []string{"abc", "Spam"},
			wantErr: true,
		},
		{
			name:    "negative user id",
			args:    []string{"-5", "Spam"},
			wantErr: true,
		},
		{
			name:    "duration above maximum",
			args:    []string{"555", "Spam", "721"},
			wantErr: true,
		},
		{
			name:    "zero duration",
			args:    []string{"555", "Spam", "0"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := policy.ParseBanArgs(tc.args, maxHours)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseBanArgsDurationError(t *testing.T) {
	t.Parallel()

	_, err := policy.ParseBanArgs([]string{"555", "Spam", "9999"}, 720)
	if !errors.Is(err, policy.ErrInvalidDuration) {
		t.Errorf("got %v, want ErrInvalidDuration", err)
	}
}

func TestBanRequestUntil(t *testing.T) {
	t.Parallel()

	permanent := policy.BanRequest{TargetID: 1, Reason: "x"}
	if permanent.Until(now) != nil {
		t.Error("permanent ban should have nil expiry")
	}

	timed := policy.BanRequest{TargetID: 1, Reason: "x", Hours: 24}
	until := timed.Until(now)
	if until == nil {
		t.Fatal("timed ban should have an expiry")
	}
	if want := now.Add(24 * time.Hour); !until.Equal(want) {
		t.Errorf("expiry = %v, want %v", until, want)
	}
}
