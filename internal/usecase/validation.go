package usecase

import (
	"regexp"
	"strings"
	"time"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/model"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)
	birthdayPattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
)

// Local validation errors carry the locale key of their reply as Message.
var (
	ErrUsernameFormat = domain.Validation("username_invalid")
	ErrBirthdayFormat = domain.Validation("birthday_invalid")
	ErrBirthdayFuture = domain.Validation("birthday_future")
)

// ValidateUsername trims s and checks its syntax. It does not check
// availability.
func ValidateUsername(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !usernamePattern.MatchString(s) {
		return "", ErrUsernameFormat
	}
	return s, nil
}

// ParseBirthday accepts a strict dd-mm-yyyy calendar date strictly before now.
func ParseBirthday(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !birthdayPattern.MatchString(s) {
		return time.Time{}, ErrBirthdayFormat
	}
	// time.Parse rejects out-of-range days such as 31-02.
	t, err := time.Parse(model.BirthdayLayout, s)
	if err != nil {
		return time.Time{}, ErrBirthdayFormat
	}
	if !t.Before(now) {
		return time.Time{}, ErrBirthdayFuture
	}
	return t, nil
}
