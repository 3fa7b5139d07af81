// Package authproto describes the account-authentication protocol the
// login flow drives: connect, request a code, sign in, disconnect.
package authproto

import "context"

// Delivery is the channel a verification code was sent through.
type Delivery int

const (
	DeliveryApp Delivery = iota
	DeliverySMS
)

func (d Delivery) String() string {
	if d == DeliverySMS {
		return "SMS"
	}
	return "Telegram app notification"
}

type SentCode struct {
	Hash string
	Via  Delivery
}

// AuthResult is either a credential or a request for the two-factor password.
type AuthResult struct {
	Credential     []byte
	PasswordNeeded bool
}

type Dialer interface {
	Dial(ctx context.Context, phone string) (Conn, error)
}

// Conn is one live protocol connection. It is owned by a single login
// attempt and must be disconnected before the attempt is dropped.
type Conn interface {
	SendCode(ctx context.Context, phone string, forceSMS bool) (SentCode, error)
	SignIn(ctx context.Context, phone, code, codeHash string) (AuthResult, error)
	SignInWithPassword(ctx context.Context, password string) (AuthResult, error)
	Disconnect() error
}
