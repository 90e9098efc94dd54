package game

import (
	"sync"
	"time"
)

// SessionStore holds live blackjack sessions keyed by session id. Sessions
// exist only for their own lifetime; an expired session is forfeited on next
// access with no settlement, since no funds were debited at deal time.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*BlackjackSession
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*BlackjackSession),
		now:      time.Now,
	}
}

// Put stores a session and sweeps abandoned ones. The sweep only takes
// sessions past the retention window, so a freshly timed out hand stays
// readable and its owner sees ErrSessionExpired, not ErrSessionNotFound.
func (st *SessionStore) Put(s *BlackjackSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.purge()
	st.sessions[s.ID] = s
}

// Get returns a live session, or ErrSessionExpired after forfeiting a timed
// out one.
func (st *SessionStore) Get(id string) (*BlackjackSession, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Expired(st.now()) {
		delete(st.sessions, id)
		return nil, ErrSessionExpired
	}
	return s, nil
}

func (st *SessionStore) Remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// purgeRetention is how long an expired session stays readable before the
// sweep reclaims it.
const purgeRetention = time.Hour

// purge drops sessions expired past the retention window; called under the
// lock.
func (st *SessionStore) purge() {
	cutoff := st.now().Add(-purgeRetention)
	for id, s := range st.sessions {
		if s.Expired(cutoff) {
			delete(st.sessions, id)
		}
	}
}
