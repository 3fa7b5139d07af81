package login

import (
	"context"
	"errors"
	"sync"
	"time"

	"userbot-telebot/internal/authproto"
	"userbot-telebot/internal/store"
)

type fakeConn struct {
	mu sync.Mutex

	// sendErrs is consumed one entry per SendCode call; missing entries succeed.
	sendErrs  []error
	sendCalls []bool
	sendCount int

	code          string
	needsPassword bool
	password      string
	signInErr     error

	disconnects   int
	disconnectErr error
}

func (c *fakeConn) SendCode(_ context.Context, _ string, forceSMS bool) (authproto.SentCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sendCalls = append(c.sendCalls, forceSMS)
	idx := len(c.sendCalls) - 1
	if idx < len(c.sendErrs) && c.sendErrs[idx] != nil {
		return authproto.SentCode{}, c.sendErrs[idx]
	}
	c.sendCount++
	via := authproto.DeliveryApp
	if forceSMS {
		via = authproto.DeliverySMS
	}
	return authproto.SentCode{Hash: "hash-" + string(rune('0'+c.sendCount)), Via: via}, nil
}

func (c *fakeConn) SignIn(_ context.Context, _, code, codeHash string) (authproto.AuthResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.signInErr != nil {
		return authproto.AuthResult{}, c.signInErr
	}
	if codeHash == "" || code != c.code {
		return authproto.AuthResult{}, &authproto.Error{Kind: authproto.KindInvalidCode, Err: errors.New("PHONE_CODE_INVALID")}
	}
	if c.needsPassword {
		return authproto.AuthResult{PasswordNeeded: true}, nil
	}
	return authproto.AuthResult{Credential: []byte("session-bytes")}, nil
}

func (c *fakeConn) SignInWithPassword(_ context.Context, password string) (authproto.AuthResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if password != c.password {
		return authproto.AuthResult{}, &authproto.Error{Kind: authproto.KindInvalidPassword, Err: errors.New("PASSWORD_HASH_INVALID")}
	}
	return authproto.AuthResult{Credential: []byte("session-bytes-2fa")}, nil
}

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	return c.disconnectErr
}

func (c *fakeConn) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects > 0
}

type fakeDialer struct {
	mu      sync.Mutex
	newConn func() *fakeConn
	dialErr error
	conns   []*fakeConn
}

func (d *fakeDialer) Dial(context.Context, string) (authproto.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dialErr != nil {
		return nil, d.dialErr
	}
	c := &fakeConn{code: "12345"}
	if d.newConn != nil {
		c = d.newConn()
	}
	d.conns = append(d.conns, c)
	return c, nil
}

// open counts dialed connections that were never disconnected.
func (d *fakeDialer) open() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, c := range d.conns {
		if !c.closed() {
			n++
		}
	}
	return n
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type memStore struct {
	mu    sync.Mutex
	users map[int64]store.User
	err   error
}

func (m *memStore) SaveUser(_ context.Context, u store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.users == nil {
		m.users = make(map[int64]store.User)
	}
	m.users[u.UserID] = u
	return nil
}

func (m *memStore) user(id int64) (store.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
