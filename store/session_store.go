package store

import (
	"sync"

	"easystay_client/domain"
)

// SessionMemoryStore is the single shared holder for the current Session.
// Writes replace the whole value and every subscriber observes the new
// session synchronously; readers never see a half-updated session.
type SessionMemoryStore struct {
	mu      sync.RWMutex
	session domain.Session
	subs    map[int]func(domain.Session)
	nextSub int
}

func NewSessionMemoryStore() domain.SessionStore {
	return &SessionMemoryStore{
		subs: make(map[int]func(domain.Session)),
	}
}

func (store *SessionMemoryStore) Get() domain.Session {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.session
}

func (store *SessionMemoryStore) Set(session domain.Session) {
	store.mu.Lock()
	store.session = session
	subs := make([]func(domain.Session), 0, len(store.subs))
	for _, fn := range store.subs {
		subs = append(subs, fn)
	}
	store.mu.Unlock()

	// Callbacks run outside the lock so a subscriber may read the store.
	for _, fn := range subs {
		fn(session)
	}
}

func (store *SessionMemoryStore) Clear() {
	store.Set(domain.Session{})
}

// Subscribe registers fn to run on every session change. The returned
// function removes the subscription.
func (store *SessionMemoryStore) Subscribe(fn func(domain.Session)) func() {
	store.mu.Lock()
	id := store.nextSub
	store.nextSub++
	store.subs[id] = fn
	store.mu.Unlock()

	return func() {
		store.mu.Lock()
		delete(store.subs, id)
		store.mu.Unlock()
	}
}
