package login

import (
	"context"
	"log/slog"

	"userbot-telebot/internal/authproto"
)

// requestCode asks for in-app delivery first and, on any failure, retries
// once with SMS forced. The returned SentCode names the channel used.
func requestCode(ctx context.Context, conn authproto.Conn, phone string, log *slog.Logger) (authproto.SentCode, error) {
	sent, err := conn.SendCode(ctx, phone, false)
	if err == nil {
		return sent, nil
	}
	log.Warn("primary code delivery failed, forcing SMS", "error", err)

	sent, err = conn.SendCode(ctx, phone, true)
	if err != nil {
		return authproto.SentCode{}, err
	}
	sent.Via = authproto.DeliverySMS
	return sent, nil
}
