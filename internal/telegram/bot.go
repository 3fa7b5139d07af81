package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Commands whose arguments are secrets; the user's message is deleted once
// handled.
var sensitiveCommands = map[string]bool{
	"verify":   true,
	"password": true,
}

type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewBot(token string, handler *Handler, timeout time.Duration, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	if log == nil {
		log = slog.Default()
	}
	return &Bot{api: api, handler: handler, timeout: timeout, log: log}, nil
}

func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run long-polls for updates and handles each command on its own
// goroutine. It returns when ctx is done, after in-flight commands finish.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	defer b.wg.Wait()
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			msg := update.Message
			if msg == nil || msg.From == nil || !msg.IsCommand() {
				continue
			}
			b.wg.Add(1)
			go b.dispatch(ctx, msg)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	defer b.wg.Done()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	command := msg.Command()
	text := b.handler.Handle(ctx, msg.From.ID, command, msg.CommandArguments())
	if sensitiveCommands[command] {
		b.forget(msg)
	}
	if text != "" {
		b.reply(msg.Chat.ID, text)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("telegram send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) forget(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Warn("could not delete message with secret", "chat_id", msg.Chat.ID, "error", err)
	}
}
