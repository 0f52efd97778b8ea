// Package policy implements the ban and rate-limit checks applied to
// inbound messages. The functions operate on a user record and an explicit
// clock so the rules stay deterministic and testable; persisting any
// mutation they make is the caller's responsibility.
package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artemvershinski/bot/internal/database"
)

// ErrAdminImmune is returned when a ban targets an admin identity.
var ErrAdminImmune = errors.New("target user is an admin and cannot be banned")

// ErrInvalidDuration is returned when a ban duration falls outside the
// allowed range.
var ErrInvalidDuration = errors.New("ban duration out of range")

// BanStatus is the outcome of a ban check against a user record.
type BanStatus struct {
	// Banned reports whether the user is currently banned.
	Banned bool
	// Detail is a human-readable description of the ban term, either
	// "permanently" or the UTC expiry time. Empty when not banned.
	Detail string
	// Cleared reports that an expired ban was removed from the record as a
	// side effect; the caller must persist the record before relying on
	// the result.
	Cleared bool
}

// CheckBan evaluates the ban state of a user record at the given time.
// An expired timed ban is cleared on the record (auto-unban) and reported
// as not banned; the check is idempotent on already-cleared records.
// All comparisons happen in UTC.
func CheckBan(user *database.User, now time.Time) BanStatus {
	if !user.IsBanned {
		return BanStatus{}
	}

	if !user.BanUntil.Valid {
		return BanStatus{Banned: true, Detail: "permanently"}
	}

	if now.UTC().After(user.BanUntil.Time.UTC()) {
		user.ClearBan()
		return BanStatus{Cleared: true}
	}

	return BanStatus{
		Banned: true,
		Detail: "until " + user.BanUntil.Time.UTC().Format("02.01.2006 15:04 MST"),
	}
}

// CheckRateLimit reports whether a user may send a message at the given
// time, and if not, how many whole minutes remain until the next allowed
// message. A user with no prior message is always allowed. The boundary is
// inclusive: elapsed time equal to the window allows the message.
func CheckRateLimit(user *database.User, now time.Time, window time.Duration) (allowed bool, remainingMinutes int) {
	if !user.LastMessageAt.Valid {
		return true, 0
	}

	elapsed := now.UTC().Sub(user.LastMessageAt.Time.UTC())
	if elapsed >= window {
		return true, 0
	}

	windowMinutes := int(window / time.Minute)
	elapsedMinutes := int(elapsed / time.Minute)
	return false, windowMinutes - elapsedMinutes
}

// BanRequest is a parsed /ban command.
type BanRequest struct {
	TargetID int64
	Reason   string
	// Hours is the ban duration; zero means permanent.
	Hours int
}

// Until computes the ban expiry for the request, or nil for a permanent ban.
func (r BanRequest) Until(now time.Time) *time.Time {
	if r.Hours == 0 {
		return nil
	}
	t := now.UTC().Add(time.Duration(r.Hours) * time.Hour)
	return &t
}

// ParseBanArgs parses the arguments of a ban command:
//
//	<user_id> <reason...> [hours]
//
// A trailing integer is treated as the duration in hours and must lie in
// [1, maxHours]; its absence means a permanent ban. Validation happens
// before any state is touched.
func ParseBanArgs(args []string, maxHours int) (BanRequest, error) {
	if len(args) < 2 {
		return BanRequest{}, errors.New("usage: /ban <user_id> <reason> [hours]")
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || targetID <= 0 {
		return BanRequest{}, fmt.Errorf("invalid user id %q", args[0])
	}

	reasonArgs := args[1:]
	hours := 0
	if len(reasonArgs) > 1 {
		if h, err := strconv.Atoi(reasonArgs[len(reasonArgs)-1]); err == nil {
			if h < 1 || h > maxHours {
				return BanRequest{}, fmt.Errorf("%w: must be between 1 and %d hours", ErrInvalidDuration, maxHours)
			}
			hours = h
			reasonArgs = reasonArgs[:len(reasonArgs)-1]
		}
	}

	return BanRequest{
		TargetID: targetID,
		Reason:   strings.Join(reasonArgs, " "),
		Hours:    hours,
	}, nil
}
