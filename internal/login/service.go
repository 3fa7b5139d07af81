// Package login drives the userbot sign-in flow: phone number, then code,
// then an optional two-factor password. It owns one protocol connection per
// in-flight attempt and guarantees that connection is closed on every exit.
package login

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"userbot-telebot/internal/authproto"
	"userbot-telebot/internal/phone"
	"userbot-telebot/internal/store"
)

// SessionStore receives the authenticated session once sign-in completes.
type SessionStore interface {
	SaveUser(ctx context.Context, u store.User) error
}

type Config struct {
	MaxAttempts    int
	ResendInterval time.Duration
	// TTL expires idle attempts. Zero disables the sweep.
	TTL time.Duration
}

type Status int

const (
	StatusCodeSent Status = iota
	StatusRetry
	StatusPasswordRequired
	StatusAuthenticated
)

// Outcome is the non-error result of a state transition.
type Outcome struct {
	Status       Status
	Step         Step
	Delivery     authproto.Delivery
	AttemptsLeft int
	Reason       authproto.ErrorKind
}

type Service struct {
	registry *Registry
	dialer   authproto.Dialer
	store    SessionStore
	cfg      Config
	log      *slog.Logger
}

func NewService(registry *Registry, dialer authproto.Dialer, st SessionStore, cfg Config, log *slog.Logger) *Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		registry: registry,
		dialer:   dialer,
		store:    st,
		cfg:      cfg,
		log:      log,
	}
}

// Pending returns a copy of the user's in-flight attempt, if any.
func (s *Service) Pending(userID int64) (Attempt, bool) {
	return s.registry.Get(userID)
}

// Start validates the number, replaces any previous attempt and requests a
// verification code on a fresh connection.
func (s *Service) Start(ctx context.Context, userID int64, number string) (Outcome, error) {
	if !phone.IsValid(number) {
		return Outcome{}, ErrInvalidPhone
	}

	unlock := s.registry.Lock(userID)
	defer unlock()

	s.cleanup(userID)

	conn, err := s.dialer.Dial(ctx, number)
	if err != nil {
		s.log.Error("connect failed", "user_id", userID, "error", err)
		return Outcome{}, err
	}

	a, err := s.registry.Begin(userID, number, conn)
	if err != nil {
		s.disconnect(s.log.With("user_id", userID), conn)
		return Outcome{}, err
	}
	log := s.attemptLog(a)

	sent, err := requestCode(ctx, conn, number, log)
	if err != nil {
		s.logFailure(log, "code request failed", err)
		s.cleanup(userID)
		return Outcome{}, err
	}

	now := s.registry.now()
	if _, err := s.registry.Update(userID, func(a *Attempt) {
		a.CodeHash = sent.Hash
		a.Delivery = sent.Via
		a.CodeRequestedAt = now
	}); err != nil {
		return Outcome{}, err
	}

	log.Info("verification code sent", "via", sent.Via.String())
	return Outcome{Status: StatusCodeSent, Step: StepAwaitingCode, Delivery: sent.Via}, nil
}

// SubmitCode redeems a verification code against the stored code hash.
func (s *Service) SubmitCode(ctx context.Context, userID int64, code string) (Outcome, error) {
	if !isCode(code) {
		return Outcome{}, ErrInvalidCode
	}

	unlock := s.registry.Lock(userID)
	defer unlock()

	a, ok := s.registry.Get(userID)
	if !ok || a.Step != StepAwaitingCode {
		return Outcome{}, ErrNoActiveSession
	}

	res, err := a.Conn.SignIn(ctx, a.Phone, code, a.CodeHash)
	return s.afterSignIn(ctx, a, res, err)
}

// SubmitPassword completes a sign-in that requires the two-factor password.
func (s *Service) SubmitPassword(ctx context.Context, userID int64, password string) (Outcome, error) {
	if password == "" {
		return Outcome{}, ErrEmptyPassword
	}

	unlock := s.registry.Lock(userID)
	defer unlock()

	a, ok := s.registry.Get(userID)
	if !ok || a.Step != StepAwaitingPassword {
		return Outcome{}, ErrNoActiveSession
	}

	res, err := a.Conn.SignInWithPassword(ctx, password)
	return s.afterSignIn(ctx, a, res, err)
}

// Resend requests a new code on the existing connection. The failed
// attempt counter is kept.
func (s *Service) Resend(ctx context.Context, userID int64) (Outcome, error) {
	unlock := s.registry.Lock(userID)
	defer unlock()

	a, ok := s.registry.Get(userID)
	if !ok || a.Step != StepAwaitingCode {
		return Outcome{}, ErrNoActiveSession
	}
	if wait := a.CodeRequestedAt.Add(s.cfg.ResendInterval).Sub(s.registry.now()); wait > 0 {
		return Outcome{}, &CooldownError{Wait: wait}
	}
	log := s.attemptLog(a)

	sent, err := requestCode(ctx, a.Conn, a.Phone, log)
	if err != nil {
		s.logFailure(log, "code resend failed", err)
		s.cleanup(userID)
		return Outcome{}, err
	}

	now := s.registry.now()
	updated, err := s.registry.Update(userID, func(a *Attempt) {
		a.CodeHash = sent.Hash
		a.Delivery = sent.Via
		a.CodeRequestedAt = now
	})
	if err != nil {
		return Outcome{}, err
	}

	log.Info("verification code resent", "via", sent.Via.String())
	return Outcome{
		Status:       StatusCodeSent,
		Step:         StepAwaitingCode,
		Delivery:     sent.Via,
		AttemptsLeft: s.cfg.MaxAttempts - updated.Attempts,
	}, nil
}

// Cancel aborts the user's attempt. It reports whether one existed.
func (s *Service) Cancel(userID int64) bool {
	unlock := s.registry.Lock(userID)
	defer unlock()

	_, ok := s.registry.Get(userID)
	s.cleanup(userID)
	return ok
}

// Cleanup closes the user's connection, if any, and drops the entry. It is
// safe to call repeatedly.
func (s *Service) Cleanup(userID int64) {
	unlock := s.registry.Lock(userID)
	defer unlock()
	s.cleanup(userID)
}

// Sweep cleans attempts idle for longer than the configured TTL and
// returns how many were removed.
func (s *Service) Sweep() int {
	if s.cfg.TTL <= 0 {
		return 0
	}

	removed := 0
	for _, userID := range s.registry.Idle(s.registry.now().Add(-s.cfg.TTL)) {
		unlock := s.registry.Lock(userID)
		a, ok := s.registry.Get(userID)
		if ok && s.registry.now().Sub(a.LastActive) > s.cfg.TTL {
			s.attemptLog(a).Info("login attempt expired")
			s.cleanup(userID)
			removed++
		}
		unlock()
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 || s.cfg.TTL <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info("expired login attempts cleaned", "count", n)
			}
		}
	}
}

// Close cleans every in-flight attempt.
func (s *Service) Close() {
	for _, userID := range s.registry.Users() {
		s.Cleanup(userID)
	}
}

func (s *Service) afterSignIn(ctx context.Context, a Attempt, res authproto.AuthResult, err error) (Outcome, error) {
	log := s.attemptLog(a)

	if err != nil {
		switch authproto.KindOf(err) {
		case authproto.KindInvalidCode, authproto.KindCodeExpired, authproto.KindInvalidPassword:
			return s.recordFailure(a, log, err)
		}
		s.logFailure(log, "sign in failed", err)
		s.cleanup(a.UserID)
		return Outcome{}, err
	}

	if res.PasswordNeeded {
		if _, err := s.registry.Update(a.UserID, func(a *Attempt) { a.Step = StepAwaitingPassword }); err != nil {
			return Outcome{}, err
		}
		log.Info("two-factor password required")
		return Outcome{Status: StatusPasswordRequired, Step: StepAwaitingPassword, AttemptsLeft: s.cfg.MaxAttempts - a.Attempts}, nil
	}

	defer s.cleanup(a.UserID)

	if len(res.Credential) == 0 {
		log.Error("sign in returned no credential")
		return Outcome{}, ErrEmptyCredential
	}

	now := s.registry.now()
	user := store.User{
		UserID:        a.UserID,
		Phone:         a.Phone,
		SessionString: base64.StdEncoding.EncodeToString(res.Credential),
		CreatedAt:     now,
		LastActive:    now,
		IsActive:      true,
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		log.Error("saving session failed", "error", err)
		return Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Info("login completed")
	return Outcome{Status: StatusAuthenticated}, nil
}

func (s *Service) recordFailure(a Attempt, log *slog.Logger, cause error) (Outcome, error) {
	updated, err := s.registry.Update(a.UserID, func(a *Attempt) { a.Attempts++ })
	if err != nil {
		return Outcome{}, ErrNoActiveSession
	}

	kind := authproto.KindOf(cause)
	if updated.Attempts >= s.cfg.MaxAttempts {
		log.Warn("login aborted after failed attempts", "attempts", updated.Attempts, "reason", kind.String())
		s.cleanup(a.UserID)
		return Outcome{}, ErrAttemptsExceeded
	}

	log.Info("verification rejected", "attempts", updated.Attempts, "reason", kind.String())
	return Outcome{
		Status:       StatusRetry,
		Step:         updated.Step,
		AttemptsLeft: s.cfg.MaxAttempts - updated.Attempts,
		Reason:       kind,
	}, nil
}

// cleanup must be called with the user's lock held.
func (s *Service) cleanup(userID int64) {
	a, ok := s.registry.Get(userID)
	if !ok {
		return
	}
	if a.Conn != nil {
		s.disconnect(s.attemptLog(a), a.Conn)
	}
	s.registry.Remove(userID)
}

func (s *Service) disconnect(log *slog.Logger, conn authproto.Conn) {
	if err := conn.Disconnect(); err != nil {
		log.Warn("disconnect failed", "error", err)
	}
}

func (s *Service) attemptLog(a Attempt) *slog.Logger {
	return s.log.With("user_id", a.UserID, "attempt_id", a.ID)
}

func (s *Service) logFailure(log *slog.Logger, msg string, err error) {
	switch authproto.KindOf(err) {
	case authproto.KindRateLimited, authproto.KindNumberBlocked, authproto.KindInvalidNumber:
		log.Warn(msg, "error", err)
	default:
		if errors.Is(err, context.Canceled) {
			log.Info(msg, "error", err)
			return
		}
		log.Error(msg, "error", err)
	}
}

func isCode(code string) bool {
	if len(code) < 4 || len(code) > 8 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
