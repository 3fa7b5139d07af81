package login

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrInvalidCode       = errors.New("invalid verification code format")
	ErrEmptyPassword     = errors.New("empty password")
	ErrAlreadyInProgress = errors.New("login already in progress")
	ErrNotFound          = errors.New("login attempt not found")
	ErrNoActiveSession   = errors.New("no active login session")
	ErrAttemptsExceeded  = errors.New("too many failed attempts")
	ErrEmptyCredential   = errors.New("protocol returned an empty credential")
	ErrPersistence       = errors.New("session persistence failed")
)

// CooldownError rejects a resend issued before the minimum interval.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("code was requested recently, retry in %s", e.Wait.Round(time.Second))
}

// IsValidation reports whether err is a user input problem that the user
// can fix by retrying.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPhone) || errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrEmptyPassword)
}
