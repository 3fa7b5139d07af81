package authproto

import (
	"errors"
	"fmt"
	"time"
)

type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindRateLimited
	KindNumberBlocked
	KindInvalidNumber
	KindInvalidCode
	KindCodeExpired
	KindInvalidPassword
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNumberBlocked:
		return "number_blocked"
	case KindInvalidNumber:
		return "invalid_number"
	case KindInvalidCode:
		return "invalid_code"
	case KindCodeExpired:
		return "code_expired"
	case KindInvalidPassword:
		return "invalid_password"
	default:
		return "transport"
	}
}

// Error is a classified protocol failure. Wait is set for KindRateLimited.
type Error struct {
	Kind ErrorKind
	Wait time.Duration
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindRateLimited {
		return fmt.Sprintf("%s (wait %s): %v", e.Kind, e.Wait, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a protocol error. Unclassified errors are
// treated as transport failures.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransport
}

// WaitOf returns the wait hint carried by a rate-limit error.
func WaitOf(err error) time.Duration {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Wait
	}
	return 0
}
