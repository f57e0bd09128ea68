package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultInactivityTimeout = 24 * time.Hour
	DefaultSweeperInterval   = 10 * time.Minute
)

// Entry binds a live session to the chat message currently showing its card.
type Entry struct {
	Session      *Session
	Token        string
	MessageID    int
	PromptText   string
	LastActivity time.Time
}

// Registry tracks live sessions per chat and user. Callbacks for one entry
// are serialized by Do.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
	timeout time.Duration
}

func NewRegistry(now func() time.Time, timeout time.Duration) *Registry {
	if now == nil {
		now = time.Now
	}
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}
	return &Registry{
		entries: make(map[string]*Entry),
		now:     now,
		timeout: timeout,
	}
}

func registryKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}

func newToken() string {
	return fmt.Sprintf("%x", rand.Int63())
}

// Put stores s for the chat and returns the card token and any session it
// replaced, which the caller should abandon.
func (r *Registry) Put(chatID, userID int64, s *Session) (string, *Session) {
	entry := &Entry{
		Session:      s,
		Token:        newToken(),
		LastActivity: r.now(),
	}
	key := registryKey(chatID, userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	var previous *Session
	if old := r.entries[key]; old != nil {
		previous = old.Session
	}
	r.entries[key] = entry
	return entry.Token, previous
}

// Do runs fn on the entry under the registry lock. fn must not block on I/O.
func (r *Registry) Do(chatID, userID int64, fn func(e *Entry) error) error {
	key := registryKey(chatID, userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[key]
	if entry == nil {
		return ErrNoActiveSession
	}
	entry.LastActivity = r.now()
	return fn(entry)
}

// Bind records the message showing the card identified by token.
func (r *Registry) Bind(chatID, userID int64, token string, messageID int, prompt string) bool {
	key := registryKey(chatID, userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[key]
	if entry == nil || entry.Token != token {
		return false
	}
	entry.MessageID = messageID
	entry.PromptText = prompt
	return true
}

func (r *Registry) Get(chatID, userID int64) (Entry, bool) {
	key := registryKey(chatID, userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[key]
	if entry == nil {
		return Entry{}, false
	}
	return *entry, true
}

func (r *Registry) Remove(chatID, userID int64) *Session {
	key := registryKey(chatID, userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[key]
	delete(r.entries, key)
	if entry == nil {
		return nil
	}
	return entry.Session
}

// Release removes the entry for the chat only if it still holds s.
func (r *Registry) Release(chatID, userID int64, s *Session) bool {
	key := registryKey(chatID, userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[key]
	if entry == nil || entry.Session != s {
		return false
	}
	delete(r.entries, key)
	return true
}

// Drain removes every entry and returns the sessions it held.
func (r *Registry) Drain() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.entries))
	for key, entry := range r.entries {
		if entry != nil {
			sessions = append(sessions, entry.Session)
		}
		delete(r.entries, key)
	}
	return sessions
}

// RotateToken issues a new card token, invalidating callbacks for the
// previous card.
func (e *Entry) RotateToken() string {
	e.Token = newToken()
	e.MessageID = 0
	e.PromptText = ""
	return e.Token
}

// SweepInactive removes entries idle for longer than the timeout and returns
// their sessions.
func (r *Registry) SweepInactive(now time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*Session
	for key, entry := range r.entries {
		if entry == nil {
			delete(r.entries, key)
			continue
		}
		if now.Sub(entry.LastActivity) > r.timeout {
			delete(r.entries, key)
			expired = append(expired, entry.Session)
		}
	}
	return expired
}

// StartSweeper expires idle sessions until ctx is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration, onExpired func(*Session)) {
	if interval <= 0 {
		interval = DefaultSweeperInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range r.SweepInactive(r.now()) {
				if onExpired != nil {
					onExpired(s)
				}
			}
		}
	}
}
