package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/utils"
)

// SessionStore is the single writer of the persisted Session. The UI calls
// Login/Logout; the HTTP client reads tokens and rotates them through the
// same methods.
type SessionStore struct {
	backend Backend
	logger  *log.Logger

	mu      sync.Mutex
	session models.Session
	subs    subscribers[models.Session]
}

// NewSessionStore loads the persisted session. Missing or unreadable data
// yields the default never-logged-in state.
func NewSessionStore(backend Backend, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.Default()
	}
	s := &SessionStore{backend: backend, logger: logger, session: models.NewSession()}

	data, found, err := backend.Get(SessionKey)
	switch {
	case err != nil:
		logger.Printf("Failed to read stored session, starting logged out: %v", err)
	case !found:
	default:
		var loaded models.Session
		if err := json.Unmarshal(data, &loaded); err != nil {
			logger.Printf("Stored session is corrupt, starting logged out: %v", err)
			break
		}
		if loaded.IsAuthenticated && loaded.AccessToken == "" && loaded.RefreshToken == "" {
			logger.Printf("Stored session has no tokens, starting logged out")
			break
		}
		s.session = loaded
	}
	return s
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.session)
}

// Tokens returns the current access and refresh tokens; either may be empty.
func (s *SessionStore) Tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.AccessToken, s.session.RefreshToken
}

// AccessToken returns the current access token, empty when absent.
func (s *SessionStore) AccessToken() string {
	access, _ := s.Tokens()
	return access
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.IsAuthenticated
}

// UserID returns the id of the held user record, or the user_id claim of the
// access token when no record is held.
func (s *SessionStore) UserID() string {
	snap := s.Snapshot()
	if snap.User != nil && snap.User.ID != "" {
		return snap.User.ID
	}
	if snap.AccessToken == "" {
		return ""
	}
	claims, err := utils.ParseTokenClaims(snap.AccessToken)
	if err != nil {
		return ""
	}
	return claims.UserID
}

// AccessTokenExpiry reads the exp claim of the access token. The zero time
// means unknown.
func (s *SessionStore) AccessTokenExpiry() time.Time {
	access := s.AccessToken()
	if access == "" {
		return time.Time{}
	}
	claims, err := utils.ParseTokenClaims(access)
	if err != nil {
		return time.Time{}
	}
	return claims.ExpiresAt
}

// Login records a successful login or registration.
func (s *SessionStore) Login(user *models.User, access, refresh string) error {
	return s.update(func(sess *models.Session) {
		sess.User = copyUser(user)
		sess.AccessToken = access
		sess.RefreshToken = refresh
		sess.IsAuthenticated = true
		sess.FirstVisit = false
	})
}

// Logout resets every field to absent/false.
func (s *SessionStore) Logout() error {
	return s.update(func(sess *models.Session) {
		*sess = models.Session{}
	})
}

// UpdateAccessToken replaces only the access token.
func (s *SessionStore) UpdateAccessToken(access string) error {
	return s.update(func(sess *models.Session) {
		sess.AccessToken = access
	})
}

// SetTokens stores a rotated token pair. An empty refresh keeps the current one.
func (s *SessionStore) SetTokens(access, refresh string) error {
	return s.update(func(sess *models.Session) {
		sess.AccessToken = access
		if refresh != "" {
			sess.RefreshToken = refresh
		}
	})
}

// Subscribe registers fn to receive the session after every change. The
// returned function unregisters it.
func (s *SessionStore) Subscribe(fn func(models.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.subs.add(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs.remove(id)
	}
}

// update applies mutate, persists, then notifies subscribers outside the
// lock. The in-memory state changes even if persisting fails.
func (s *SessionStore) update(mutate func(*models.Session)) error {
	s.mu.Lock()
	mutate(&s.session)
	snap := copySession(s.session)
	fns := s.subs.list()
	err := s.persistLocked()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copySession(snap))
	}
	return err
}

func (s *SessionStore) persistLocked() error {
	data, err := json.Marshal(s.session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Set(SessionKey, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func copySession(in models.Session) models.Session {
	out := in
	out.User = copyUser(in.User)
	return out
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
