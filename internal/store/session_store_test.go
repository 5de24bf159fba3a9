package store

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

type memPersister struct {
	token   string
	saves   int
	clears  int
	loadErr error
}

func (m *memPersister) Load(context.Context) (string, error) { return m.token, m.loadErr }

func (m *memPersister) Save(_ context.Context, token string) error {
	m.token = token
	m.saves++
	return nil
}

func (m *memPersister) Clear(context.Context) error {
	m.token = ""
	m.clears++
	return nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionLogin(t *testing.T) {
	persist := &memPersister{}
	s := NewSessionStore(persist, nil)
	token := signToken(t, jwt.MapClaims{"id": 12, "sub": "08123456789", "roles": []string{"ROLE_USER", "ROLE_ADMIN"}})

	require.True(t, s.Login(context.Background(), token))
	session := s.Session()
	require.True(t, session.Active())
	assert.Equal(t, models.SubjectID("12"), session.Subject.ID)
	assert.Equal(t, "08123456789", session.Subject.PhoneNumber)
	assert.True(t, session.Subject.IsAdmin())
	assert.Equal(t, token, persist.token)
	assert.Equal(t, token, s.Token())
}

func TestSessionLoginUndecodableToken(t *testing.T) {
	persist := &memPersister{}
	s := NewSessionStore(persist, nil)
	require.True(t, s.Login(context.Background(), signToken(t, jwt.MapClaims{"sub": "0811"})))

	for _, raw := range []string{"not-a-jwt", "", "a.b.c", "header.payload"} {
		assert.NotPanics(t, func() {
			assert.False(t, s.Login(context.Background(), raw))
		})
		session := s.Session()
		assert.Empty(t, session.Token)
		assert.Nil(t, session.Subject)
	}
	assert.Equal(t, 1, persist.saves)
}

func TestSessionLogoutIsIdempotent(t *testing.T) {
	persist := &memPersister{}
	s := NewSessionStore(persist, nil)
	require.True(t, s.Login(context.Background(), signToken(t, jwt.MapClaims{"sub": "0811"})))

	s.Logout(context.Background())
	s.Logout(context.Background())
	assert.False(t, s.Session().Active())
	assert.Empty(t, persist.token)
	assert.Equal(t, 2, persist.clears)
}

func TestSessionRestore(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"id": "u-1", "sub": "0811", "roles": "ROLE_USER"})
	s := NewSessionStore(&memPersister{token: token}, nil)
	require.True(t, s.Restore(context.Background()))
	assert.Equal(t, []string{"ROLE_USER"}, s.Session().Subject.Roles)

	broken := &memPersister{token: "not-a-jwt"}
	s = NewSessionStore(broken, nil)
	assert.False(t, s.Restore(context.Background()))
	assert.Empty(t, broken.token)
	assert.Equal(t, 1, broken.clears)

	s = NewSessionStore(&memPersister{loadErr: errors.New("disk")}, nil)
	assert.False(t, s.Restore(context.Background()))
	assert.False(t, s.Session().Active())
}

func TestDecodeSubjectAuthorityObjects(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "0811", "roles": []map[string]string{{"authority": "ROLE_ADMIN"}}})
	subject, ok := DecodeSubject(token)
	require.True(t, ok)
	assert.True(t, subject.IsAdmin())
}

func TestSessionAuthStatus(t *testing.T) {
	s := NewSessionStore(nil, nil)
	ch, cancel := s.Changes().Subscribe()
	defer cancel()

	s.BeginVerifyOTP()
	assert.Equal(t, StatusLoading, s.Auth().VerifyOTP.Status)
	s.SettleVerifyOTP(errors.New("bad code"))
	assert.Equal(t, StatusFailed, s.Auth().VerifyOTP.Status)
	assert.Equal(t, StatusIdle, s.Auth().RequestOTP.Status)

	select {
	case <-ch:
	default:
		t.Fatal("expected a change tick")
	}
}
