package mtproto

import (
	"errors"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"

	"userbot-telebot/internal/authproto"
)

// classify maps RPC errors onto authproto kinds. Anything unrecognised is a
// transport failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if d, ok := tgerr.AsFloodWait(err); ok {
		return &authproto.Error{Kind: authproto.KindRateLimited, Wait: d, Err: err}
	}

	kind := authproto.KindTransport
	switch {
	case tgerr.Is(err, "PHONE_NUMBER_FLOOD", "PHONE_NUMBER_BANNED"):
		kind = authproto.KindNumberBlocked
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"):
		kind = authproto.KindInvalidNumber
	case tgerr.Is(err, "PHONE_CODE_INVALID", "PHONE_CODE_EMPTY"):
		kind = authproto.KindInvalidCode
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		kind = authproto.KindCodeExpired
	case tgerr.Is(err, "PASSWORD_HASH_INVALID"), errors.Is(err, auth.ErrPasswordInvalid):
		kind = authproto.KindInvalidPassword
	}
	return &authproto.Error{Kind: kind, Err: err}
}
