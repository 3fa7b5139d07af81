// Package store persists bot users, broadcast messages and joined groups
// as JSON documents in Redis, one key per user.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxStoredMessages = 50

var (
	ErrBackend  = errors.New("store backend unavailable")
	ErrConflict = errors.New("store write conflict")
)

type User struct {
	UserID        int64     `json:"user_id"`
	Phone         string    `json:"phone"`
	SessionString string    `json:"session_string"`
	CreatedAt     time.Time `json:"created_at"`
	LastActive    time.Time `json:"last_active"`
	IsActive      bool      `json:"is_active"`
}

type Message struct {
	UserID      int64     `json:"user_id"`
	MessageText string    `json:"message_text"`
	CreatedAt   time.Time `json:"created_at"`
}

type Groups struct {
	UserID    int64     `json:"user_id"`
	GroupIDs  []int64   `json:"group_ids"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	redis  redis.UniversalClient
	prefix string
}

func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ubot"
	}
	return &Store{redis: redisClient, prefix: prefix}
}

func (s *Store) key(kind string, userID int64) string {
	return s.prefix + ":" + kind + ":" + strconv.FormatInt(userID, 10)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// SaveUser upserts the user document; last write wins.
func (s *Store) SaveUser(ctx context.Context, u User) error {
	return s.setJSON(ctx, s.key("user", u.UserID), u)
}

func (s *Store) GetUser(ctx context.Context, userID int64) (User, bool, error) {
	var u User
	ok, err := s.getJSON(ctx, s.key("user", userID), &u)
	return u, ok, err
}

// DeactivateUser clears is_active with an optimistic read-modify-write so a
// concurrent SaveUser is never half-overwritten. It reports whether a user
// document existed.
func (s *Store) DeactivateUser(ctx context.Context, userID int64) (bool, error) {
	const maxRetries = 4
	key := s.key("user", userID)

	for i := 0; i < maxRetries; i++ {
		found := false
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return nil
				}
				return err
			}
			var u User
			if err := json.Unmarshal(data, &u); err != nil {
				return err
			}
			found = true
			u.IsActive = false
			u.LastActive = time.Now()
			encoded, err := json.Marshal(u)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return found, nil
	}
	return false, ErrConflict
}

// SaveMessage records a broadcast message; the newest one is current.
func (s *Store) SaveMessage(ctx context.Context, m Message) error {
	encoded, err := json.Marshal(m)
	if err != nil {
		return err
	}
	key := s.key("messages", m.UserID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, encoded)
		pipe.LTrim(ctx, key, 0, maxStoredMessages-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *Store) LatestMessage(ctx context.Context, userID int64) (Message, bool, error) {
	var m Message
	data, err := s.redis.LIndex(ctx, s.key("messages", userID), 0).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return m, false, nil
		}
		return m, false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, false, err
	}
	return m, true, nil
}

func (s *Store) SaveGroups(ctx context.Context, g Groups) error {
	return s.setJSON(ctx, s.key("groups", g.UserID), g)
}

func (s *Store) GetGroups(ctx context.Context, userID int64) (Groups, bool, error) {
	var g Groups
	ok, err := s.getJSON(ctx, s.key("groups", userID), &g)
	return g, ok, err
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}
