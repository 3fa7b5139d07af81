// Package mtproto implements authproto on top of gotd's MTProto client.
package mtproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"userbot-telebot/internal/authproto"
)

type Dialer struct {
	appID       int
	appHash     string
	dialTimeout time.Duration
	log         *slog.Logger
}

func NewDialer(appID int, appHash string, dialTimeout time.Duration, log *slog.Logger) *Dialer {
	if dialTimeout <= 0 {
		dialTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dialer{appID: appID, appHash: appHash, dialTimeout: dialTimeout, log: log}
}

// Dial starts a client with in-memory session storage and waits until it
// is connected. The client keeps running until Disconnect.
func (d *Dialer) Dial(ctx context.Context, phone string) (authproto.Conn, error) {
	storage := new(session.StorageMemory)
	client := telegram.NewClient(d.appID, d.appHash, telegram.Options{
		SessionStorage: storage,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	c := &conn{
		client:  client,
		storage: storage,
		cancel:  cancel,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(c.done)
		c.runErr = client.Run(runCtx, func(ctx context.Context) error {
			close(c.ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	timer := time.NewTimer(d.dialTimeout)
	defer timer.Stop()

	select {
	case <-c.ready:
		d.log.Debug("mtproto client connected", "phone_suffix", suffix(phone))
		return c, nil
	case <-c.done:
		cancel()
		return nil, classify(fmt.Errorf("connect: %w", c.runErr))
	case <-timer.C:
		_ = c.Disconnect()
		return nil, classify(errors.New("connect: timed out"))
	case <-ctx.Done():
		_ = c.Disconnect()
		return nil, ctx.Err()
	}
}

type conn struct {
	client  *telegram.Client
	storage *session.StorageMemory
	cancel  context.CancelFunc

	ready  chan struct{}
	done   chan struct{}
	runErr error

	once sync.Once
}

func (c *conn) SendCode(ctx context.Context, phone string, forceSMS bool) (authproto.SentCode, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return authproto.SentCode{}, classify(err)
	}
	code, err := sentCode(sent)
	if err != nil {
		return authproto.SentCode{}, err
	}

	// There is no direct SMS flag; asking for the next code type moves an
	// app delivery on to SMS.
	if forceSMS {
		if _, isSMS := code.Type.(*tg.AuthSentCodeTypeSMS); !isSMS {
			resent, err := c.client.API().AuthResendCode(ctx, &tg.AuthResendCodeRequest{
				PhoneNumber:   phone,
				PhoneCodeHash: code.PhoneCodeHash,
			})
			if err != nil {
				return authproto.SentCode{}, classify(err)
			}
			if code, err = sentCode(resent); err != nil {
				return authproto.SentCode{}, err
			}
		}
	}

	return authproto.SentCode{Hash: code.PhoneCodeHash, Via: deliveryOf(code.Type)}, nil
}

func (c *conn) SignIn(ctx context.Context, phone, code, codeHash string) (authproto.AuthResult, error) {
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return authproto.AuthResult{PasswordNeeded: true}, nil
	}
	if err != nil {
		return authproto.AuthResult{}, classify(err)
	}
	return c.credential(ctx)
}

func (c *conn) SignInWithPassword(ctx context.Context, password string) (authproto.AuthResult, error) {
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return authproto.AuthResult{}, classify(err)
	}
	return c.credential(ctx)
}

// Disconnect stops the client and waits for its run loop to exit.
func (c *conn) Disconnect() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		<-c.done
		if c.runErr != nil && !errors.Is(c.runErr, context.Canceled) {
			err = c.runErr
		}
	})
	return err
}

func (c *conn) credential(ctx context.Context) (authproto.AuthResult, error) {
	data, err := c.storage.LoadSession(ctx)
	if err != nil {
		return authproto.AuthResult{}, classify(fmt.Errorf("load session: %w", err))
	}
	return authproto.AuthResult{Credential: data}, nil
}

func sentCode(class tg.AuthSentCodeClass) (*tg.AuthSentCode, error) {
	code, ok := class.(*tg.AuthSentCode)
	if !ok {
		return nil, classify(fmt.Errorf("unexpected sent code %T", class))
	}
	return code, nil
}

func deliveryOf(t tg.AuthSentCodeTypeClass) authproto.Delivery {
	if _, ok := t.(*tg.AuthSentCodeTypeSMS); ok {
		return authproto.DeliverySMS
	}
	return authproto.DeliveryApp
}

func suffix(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return phone[len(phone)-4:]
}
