package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON values. Every Save restarts the TTL;
// the manager saves active sessions often enough to keep them alive.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore stores sessions under "<prefix>:<id>".
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	bs, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(bs, &sess); err != nil {
		return nil, err
	}
	sess.ID = id
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess.Empty() {
		return s.Delete(ctx, sess.ID)
	}
	bs, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(sess.ID), bs, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

// MemoryStore keeps sessions in process. It is the fallback when redis is
// not reachable; sessions do not survive a restart. Expired entries are
// swept during Save, at most once per sweep interval, so abandoned
// sessions cannot pile up.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]memoryEntry
	now       func() time.Time
	nextSweep time.Time
}

// maxSweepInterval caps how long expired entries may linger.
const maxSweepInterval = time.Minute

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.ttl > 0 && s.now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, ErrSessionNotFound
	}
	sess := e.sess
	sess.ID = id
	sess.dirty = false
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
	}
	if sess.Empty() {
		delete(s.entries, sess.ID)
		return nil
	}
	s.entries[sess.ID] = memoryEntry{sess: *sess, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	if s.ttl > 0 {
		for id, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, id)
			}
		}
	}
	every := s.ttl
	if every <= 0 || every > maxSweepInterval {
		every = maxSweepInterval
	}
	s.nextSweep = now.Add(every)
}
