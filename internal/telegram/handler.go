package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"userbot-telebot/internal/authproto"
	"userbot-telebot/internal/login"
	"userbot-telebot/internal/store"
)

type LoginService interface {
	Pending(userID int64) (login.Attempt, bool)
	Start(ctx context.Context, userID int64, phone string) (login.Outcome, error)
	SubmitCode(ctx context.Context, userID int64, code string) (login.Outcome, error)
	SubmitPassword(ctx context.Context, userID int64, password string) (login.Outcome, error)
	Resend(ctx context.Context, userID int64) (login.Outcome, error)
	Cancel(userID int64) bool
}

type Records interface {
	GetUser(ctx context.Context, userID int64) (store.User, bool, error)
	DeactivateUser(ctx context.Context, userID int64) (bool, error)
	SaveMessage(ctx context.Context, m store.Message) error
	LatestMessage(ctx context.Context, userID int64) (store.Message, bool, error)
	GetGroups(ctx context.Context, userID int64) (store.Groups, bool, error)
}

type commandFunc func(ctx context.Context, userID int64, args string) string

// Handler turns commands into reply text. It has no Telegram transport of
// its own, so it can be driven directly in tests.
type Handler struct {
	login    LoginService
	records  Records
	log      *slog.Logger
	commands map[string]commandFunc
}

func NewHandler(svc LoginService, records Records, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{login: svc, records: records, log: log}
	h.commands = map[string]commandFunc{
		"start":      h.Start,
		"help":       h.Help,
		"login":      h.Login,
		"verify":     h.Verify,
		"password":   h.Password,
		"resend":     h.Resend,
		"cancel":     h.Cancel,
		"logout":     h.Logout,
		"status":     h.Status,
		"setmessage": h.SetMessage,
		"preview":    h.Preview,
		"mygroups":   h.MyGroups,
	}
	return h
}

func (h *Handler) Handle(ctx context.Context, userID int64, command, args string) string {
	fn, ok := h.commands[strings.ToLower(command)]
	if !ok {
		return msgUnknownCommand
	}
	return fn(ctx, userID, strings.TrimSpace(args))
}

func (h *Handler) Start(context.Context, int64, string) string {
	return msgWelcome
}

func (h *Handler) Help(context.Context, int64, string) string {
	return msgHelp
}

func (h *Handler) Login(ctx context.Context, userID int64, args string) string {
	phone := firstField(args)
	if phone == "" {
		return msgLoginUsage
	}

	out, err := h.login.Start(ctx, userID, phone)
	if err != nil {
		return failureText(err, msgLoginFailed)
	}
	return fmt.Sprintf(msgCodeSent, phone, out.Delivery)
}

// Verify submits a code, or the two-factor password when the attempt is
// already past the code step.
func (h *Handler) Verify(ctx context.Context, userID int64, args string) string {
	if a, ok := h.login.Pending(userID); ok && a.Step == login.StepAwaitingPassword {
		return h.Password(ctx, userID, args)
	}

	code := firstField(args)
	if code == "" {
		return msgVerifyUsage
	}
	out, err := h.login.SubmitCode(ctx, userID, code)
	if err != nil {
		return failureText(err, msgVerifyFailed)
	}
	return outcomeText(out)
}

func (h *Handler) Password(ctx context.Context, userID int64, args string) string {
	if args == "" {
		return msgPasswordUsage
	}
	out, err := h.login.SubmitPassword(ctx, userID, args)
	if err != nil {
		return failureText(err, msgVerifyFailed)
	}
	return outcomeText(out)
}

func (h *Handler) Resend(ctx context.Context, userID int64, _ string) string {
	out, err := h.login.Resend(ctx, userID)
	if err != nil {
		return failureText(err, msgLoginFailed)
	}
	return fmt.Sprintf(msgCodeResent, out.Delivery)
}

func (h *Handler) Cancel(_ context.Context, userID int64, _ string) string {
	if h.login.Cancel(userID) {
		return msgCancelled
	}
	return msgNothingToCancel
}

func (h *Handler) Logout(ctx context.Context, userID int64, _ string) string {
	h.login.Cancel(userID)

	found, err := h.records.DeactivateUser(ctx, userID)
	if err != nil {
		h.log.Error("logout failed", "user_id", userID, "error", err)
		return msgStoreFailed
	}
	if !found {
		return msgNotLoggedIn
	}
	return msgLoggedOut
}

func (h *Handler) Status(ctx context.Context, userID int64, _ string) string {
	var b strings.Builder
	if a, ok := h.login.Pending(userID); ok {
		fmt.Fprintf(&b, "⏳ Login in progress for %s (%s)\n", a.Phone, stepText(a.Step))
	}

	user, ok, err := h.records.GetUser(ctx, userID)
	if err != nil {
		h.log.Error("status lookup failed", "user_id", userID, "error", err)
		return msgStoreFailed
	}
	if !ok || !user.IsActive {
		b.WriteString(msgNotLoggedIn)
		return b.String()
	}

	groups, _, err := h.records.GetGroups(ctx, userID)
	if err != nil {
		h.log.Error("status lookup failed", "user_id", userID, "error", err)
		return msgStoreFailed
	}
	_, hasMessage, err := h.records.LatestMessage(ctx, userID)
	if err != nil {
		h.log.Error("status lookup failed", "user_id", userID, "error", err)
		return msgStoreFailed
	}

	fmt.Fprintf(&b, "✅ Logged in as: %s\n📋 Groups joined: %d\n💬 Message set: %s",
		user.Phone, len(groups.GroupIDs), yesNo(hasMessage))
	return b.String()
}

func (h *Handler) SetMessage(ctx context.Context, userID int64, args string) string {
	if args == "" {
		return msgSetMessageUsage
	}
	if ok, reply := h.requireLogin(ctx, userID); !ok {
		return reply
	}

	err := h.records.SaveMessage(ctx, store.Message{UserID: userID, MessageText: args, CreatedAt: time.Now()})
	if err != nil {
		h.log.Error("saving message failed", "user_id", userID, "error", err)
		return msgStoreFailed
	}
	return msgMessageSaved
}

func (h *Handler) Preview(ctx context.Context, userID int64, _ string) string {
	m, ok, err := h.records.LatestMessage(ctx, userID)
	if err != nil {
		h.log.Error("preview failed", "user_id", userID, "error", err)
		return msgStoreFailed
	}
	if !ok {
		return msgNoMessage
	}
	return "📝 Your message:\n\n" + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, m.MessageText)
}

func (h *Handler) MyGroups(ctx context.Context, userID int64, _ string) string {
	g, ok, err := h.records.GetGroups(ctx, userID)
	if err != nil {
		h.log.Error("listing groups failed", "user_id", userID, "error", err)
		return msgStoreFailed
	}
	if !ok || len(g.GroupIDs) == 0 {
		return msgNoGroups
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 You are in %d groups:\n", len(g.GroupIDs))
	for _, id := range g.GroupIDs {
		fmt.Fprintf(&b, "• `%d`\n", id)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) requireLogin(ctx context.Context, userID int64) (bool, string) {
	user, ok, err := h.records.GetUser(ctx, userID)
	if err != nil {
		h.log.Error("user lookup failed", "user_id", userID, "error", err)
		return false, msgStoreFailed
	}
	if !ok || !user.IsActive {
		return false, msgNotLoggedIn
	}
	return true, ""
}

func failureText(err error, generic string) string {
	var cooldown *login.CooldownError
	switch {
	case errors.Is(err, login.ErrInvalidPhone):
		return msgInvalidPhone
	case errors.Is(err, login.ErrInvalidCode):
		return msgInvalidCodeFormat
	case errors.Is(err, login.ErrEmptyPassword):
		return msgPasswordUsage
	case errors.Is(err, login.ErrNoActiveSession):
		return msgNoActiveSession
	case errors.Is(err, login.ErrAttemptsExceeded):
		return msgAttemptsExceeded
	case errors.Is(err, login.ErrPersistence):
		return msgSessionNotSaved
	case errors.As(err, &cooldown):
		return fmt.Sprintf(msgResendCooldown, seconds(cooldown.Wait))
	}

	switch authproto.KindOf(err) {
	case authproto.KindRateLimited:
		return fmt.Sprintf(msgFloodWait, seconds(authproto.WaitOf(err)))
	case authproto.KindNumberBlocked:
		return msgNumberBlocked
	case authproto.KindInvalidNumber:
		return msgInvalidNumber
	}
	return generic
}

func outcomeText(out login.Outcome) string {
	switch out.Status {
	case login.StatusAuthenticated:
		return msgLoginSuccess
	case login.StatusPasswordRequired:
		return msgPasswordRequired
	}

	switch out.Reason {
	case authproto.KindCodeExpired:
		return fmt.Sprintf(msgCodeExpired, out.AttemptsLeft)
	case authproto.KindInvalidPassword:
		return fmt.Sprintf(msgWrongPassword, out.AttemptsLeft)
	}
	return fmt.Sprintf(msgWrongCode, out.AttemptsLeft)
}

func stepText(s login.Step) string {
	if s == login.StepAwaitingPassword {
		return "waiting for password"
	}
	return "waiting for code"
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
