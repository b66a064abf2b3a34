// Package fence orders concurrently resolving results per session.
//
// A caller takes a sequence number before issuing a request and publishes the
// result with it afterwards. The board keeps the result with the highest
// sequence, so a slow early request can never overwrite a newer one.
package fence

import (
	"sync"
	"time"
)

// Entry is the latest accepted result for a session
type Entry[T any] struct {
	Seq       uint64
	Value     T
	UpdatedAt time.Time
}

type session[T any] struct {
	next      uint64
	published bool
	latest    Entry[T]
	touched   time.Time
}

// Board tracks sequence numbers and the latest result per session.
// It is safe for concurrent use.
type Board[T any] struct {
	mu       sync.Mutex
	sessions map[string]*session[T]
	ttl      time.Duration
	now      func() time.Time
}

// NewBoard returns a board that forgets sessions idle for longer than ttl.
// A non-positive ttl keeps sessions forever.
func NewBoard[T any](ttl time.Duration) *Board[T] {
	return &Board[T]{
		sessions: make(map[string]*session[T]),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Next reserves the next sequence number for key. Numbers start at 1.
func (b *Board[T]) Next(key string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.pruneLocked(now)

	s, ok := b.sessions[key]
	if !ok {
		s = &session[T]{}
		b.sessions[key] = s
	}
	s.next++
	s.touched = now
	return s.next
}

// Publish stores value for key if seq is newer than the stored one. It
// reports whether the value was accepted.
func (b *Board[T]) Publish(key string, seq uint64, value T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[key]
	if !ok || seq == 0 || seq > s.next {
		// Unknown session or a sequence that was never handed out
		return false
	}
	if s.published && seq <= s.latest.Seq {
		return false
	}

	now := b.now()
	s.latest = Entry[T]{Seq: seq, Value: value, UpdatedAt: now}
	s.published = true
	s.touched = now
	return true
}

// Latest returns the newest accepted result for key. Sessions idle for longer
// than the ttl are forgotten.
func (b *Board[T]) Latest(key string) (Entry[T], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[key]
	if !ok {
		return Entry[T]{}, false
	}
	if b.expired(s, b.now()) {
		delete(b.sessions, key)
		return Entry[T]{}, false
	}
	if !s.published {
		return Entry[T]{}, false
	}
	return s.latest, true
}

func (b *Board[T]) expired(s *session[T], now time.Time) bool {
	return b.ttl > 0 && now.Sub(s.touched) > b.ttl
}

func (b *Board[T]) pruneLocked(now time.Time) {
	if b.ttl <= 0 {
		return
	}
	for key, s := range b.sessions {
		if b.expired(s, now) {
			delete(b.sessions, key)
		}
	}
}
