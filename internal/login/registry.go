package login

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"userbot-telebot/internal/authproto"
)

type Step int

const (
	StepAwaitingCode Step = iota
	StepAwaitingPassword
)

func (s Step) String() string {
	if s == StepAwaitingPassword {
		return "awaiting_password"
	}
	return "awaiting_code"
}

// Attempt is the transient state of one in-flight login. Conn is owned by
// the attempt and is closed by cleanup before the entry is removed.
type Attempt struct {
	ID              string
	UserID          int64
	Phone           string
	Step            Step
	Conn            authproto.Conn
	CodeHash        string
	Attempts        int
	Delivery        authproto.Delivery
	CreatedAt       time.Time
	LastActive      time.Time
	CodeRequestedAt time.Time
}

// Registry maps user IDs to their in-flight login attempt. Lookups return
// copies; the map itself is never exposed.
type Registry struct {
	mu       sync.Mutex
	attempts map[int64]*Attempt

	lmu   sync.Mutex
	locks map[int64]*userLock

	now func() time.Time
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewRegistry returns an empty registry. A nil clock means time.Now.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		attempts: make(map[int64]*Attempt),
		locks:    make(map[int64]*userLock),
		now:      now,
	}
}

// Lock serializes multi-step work for one user. Different users never
// share a lock. The returned func releases it.
func (r *Registry) Lock(userID int64) func() {
	r.lmu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &userLock{}
		r.locks[userID] = l
	}
	l.refs++
	r.lmu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.lmu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, userID)
		}
		r.lmu.Unlock()
	}
}

// Begin creates an attempt awaiting a code. It fails rather than
// overwriting an existing one.
func (r *Registry) Begin(userID int64, phone string, conn authproto.Conn) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.attempts[userID]; ok {
		return Attempt{}, ErrAlreadyInProgress
	}
	now := r.now()
	a := &Attempt{
		ID:         uuid.NewString(),
		UserID:     userID,
		Phone:      phone,
		Step:       StepAwaitingCode,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
	r.attempts[userID] = a
	return *a, nil
}

func (r *Registry) Get(userID int64) (Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[userID]
	if !ok {
		return Attempt{}, false
	}
	return *a, true
}

// Update applies mutate to the stored attempt, touches LastActive and
// returns the result.
func (r *Registry) Update(userID int64, mutate func(*Attempt)) (Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[userID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	mutate(a)
	a.LastActive = r.now()
	return *a, nil
}

// Remove deletes the entry if present. It does not touch the connection.
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	delete(r.attempts, userID)
	r.mu.Unlock()
}

// Idle lists users whose attempt has been inactive since before cutoff.
func (r *Registry) Idle(cutoff time.Time) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for id, a := range r.attempts {
		if a.LastActive.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Registry) Users() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.attempts))
	for id := range r.attempts {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}
