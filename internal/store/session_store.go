package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

type tokenPersister interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// roleList accepts roles as a list of names, a single name or a list of
// {"authority": name} objects.
type roleList []string

func (r *roleList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*r = names
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*r = strings.Fields(strings.ReplaceAll(single, ",", " "))
		}
		return nil
	}
	var authorities []struct {
		Authority string `json:"authority"`
	}
	if err := json.Unmarshal(data, &authorities); err != nil {
		return err
	}
	names = make([]string, 0, len(authorities))
	for _, a := range authorities {
		names = append(names, a.Authority)
	}
	*r = names
	return nil
}

type tokenClaims struct {
	ID    models.SubjectID `json:"id"`
	Roles roleList         `json:"roles"`
	jwt.RegisteredClaims
}

// DecodeSubject reads the identity claims of a token without verifying its
// signature. ok is false when the token is not a well-formed JWT.
func DecodeSubject(token string) (subject *models.Subject, ok bool) {
	if strings.TrimSpace(token) == "" {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			subject, ok = nil, false
		}
	}()
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	return &models.Subject{
		ID:          claims.ID,
		PhoneNumber: claims.Subject,
		Roles:       []string(claims.Roles),
	}, true
}

// AuthState tracks the one-time password exchange.
type AuthState struct {
	RequestOTP OpState `json:"requestOtp"`
	VerifyOTP  OpState `json:"verifyOtp"`
}

// SessionStore holds the bearer token and the identity derived from it.
type SessionStore struct {
	mu      sync.RWMutex
	session models.Session
	epoch   uint64
	auth    AuthState
	persist tokenPersister
	changes *Signal
	logger  *zap.Logger
}

// NewSessionStore constructs an empty session store.
func NewSessionStore(persist tokenPersister, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		persist: persist,
		auth:    AuthState{RequestOTP: idle(), VerifyOTP: idle()},
		changes: NewSignal(),
		logger:  logger,
	}
}

// Changes returns the store's change signal.
func (s *SessionStore) Changes() *Signal {
	return s.changes
}

// Login stores token and its subject and persists the token. An undecodable
// token leaves the session empty and returns false.
func (s *SessionStore) Login(ctx context.Context, token string) bool {
	subject, ok := DecodeSubject(token)
	s.mu.Lock()
	if ok {
		s.session = models.Session{Token: token, Subject: subject}
	} else {
		s.session = models.Session{}
	}
	s.epoch++
	s.mu.Unlock()
	s.changes.Notify()

	if !ok {
		s.logger.Warn("discarding undecodable token")
		return false
	}
	if s.persist != nil {
		if err := s.persist.Save(ctx, token); err != nil {
			s.logger.Error("failed to persist token", zap.Error(err))
		}
	}
	return true
}

// Logout clears the session and the persisted token. Calling it without a
// session is harmless.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.session = models.Session{}
	s.auth = AuthState{RequestOTP: idle(), VerifyOTP: idle()}
	s.epoch++
	s.mu.Unlock()
	s.changes.Notify()

	if s.persist != nil {
		if err := s.persist.Clear(ctx); err != nil {
			s.logger.Error("failed to clear persisted token", zap.Error(err))
		}
	}
}

// Restore loads the persisted token once at start-up. A stored token that
// cannot be decoded is removed.
func (s *SessionStore) Restore(ctx context.Context) bool {
	if s.persist == nil {
		return false
	}
	token, err := s.persist.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to read persisted token", zap.Error(err))
		return false
	}
	if token == "" {
		return false
	}
	subject, ok := DecodeSubject(token)
	if !ok {
		s.logger.Warn("persisted token is not decodable, clearing it")
		if err := s.persist.Clear(ctx); err != nil {
			s.logger.Error("failed to clear persisted token", zap.Error(err))
		}
		return false
	}

	s.mu.Lock()
	s.session = models.Session{Token: token, Subject: subject}
	s.epoch++
	s.mu.Unlock()
	s.changes.Notify()
	return true
}

// Epoch counts session changes. Every login, logout and restore moves it.
func (s *SessionStore) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Session returns a copy of the current session.
func (s *SessionStore) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.session
	if out.Subject != nil {
		subject := *out.Subject
		subject.Roles = append([]string(nil), subject.Roles...)
		out.Subject = &subject
	}
	return out
}

// Token returns the bearer token, empty without a session.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Auth returns the state of the one-time password exchange.
func (s *SessionStore) Auth() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

// BeginRequestOTP marks a code request in flight.
func (s *SessionStore) BeginRequestOTP() {
	s.mutateAuth(func(a *AuthState) { a.RequestOTP.begin() })
}

// SettleRequestOTP records the outcome of a code request.
func (s *SessionStore) SettleRequestOTP(err error) {
	s.mutateAuth(func(a *AuthState) { a.RequestOTP.settle(err) })
}

// BeginVerifyOTP marks a code verification in flight.
func (s *SessionStore) BeginVerifyOTP() {
	s.mutateAuth(func(a *AuthState) { a.VerifyOTP.begin() })
}

// SettleVerifyOTP records the outcome of a code verification.
func (s *SessionStore) SettleVerifyOTP(err error) {
	s.mutateAuth(func(a *AuthState) { a.VerifyOTP.settle(err) })
}

func (s *SessionStore) mutateAuth(fn func(*AuthState)) {
	s.mu.Lock()
	fn(&s.auth)
	s.mu.Unlock()
	s.changes.Notify()
}
