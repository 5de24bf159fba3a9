package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

type authRepository interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, otp string) (string, error)
}

// Resetter drops the state a store holds for the ended session.
type Resetter interface {
	Reset()
}

// SessionService drives the one-time password login and logout.
type SessionService struct {
	repo      authRepository
	session   *store.SessionStore
	resets    []Resetter
	commands  *Commands
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService. resets are cleared on logout.
func NewSessionService(repo authRepository, session *store.SessionStore, commands *Commands, validate *validator.Validate, logger *zap.Logger, resets ...Resetter) *SessionService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, session: session, resets: resets, commands: commands, validator: validate, logger: logger}
}

// Session returns the current session.
func (s *SessionService) Session() models.Session {
	return s.session.Session()
}

// Auth returns the one-time password exchange status.
func (s *SessionService) Auth() store.AuthState {
	return s.session.Auth()
}

// RequestOTP asks for a one-time password to be sent to the phone number.
func (s *SessionService) RequestOTP(ctx context.Context, req dto.OTPRequest) *jobs.Ticket {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := s.validator.Struct(req); err != nil {
		appErr := invalidPayload(err, "invalid phone number")
		s.session.SettleRequestOTP(appErr)
		return s.commands.Refuse(ctx, "session.request_otp", appErr)
	}
	s.session.BeginRequestOTP()
	return s.commands.Run(ctx, "session.request_otp", s.session.SettleRequestOTP, func(ctx context.Context) error {
		err := s.repo.RequestOTP(ctx, req.PhoneNumber)
		s.session.SettleRequestOTP(err)
		return err
	})
}

// VerifyOTP exchanges the code for a token and signs in with it.
func (s *SessionService) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) *jobs.Ticket {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.OTP = strings.TrimSpace(req.OTP)
	if err := s.validator.Struct(req); err != nil {
		appErr := invalidPayload(err, "invalid verification payload")
		s.session.SettleVerifyOTP(appErr)
		return s.commands.Refuse(ctx, "session.verify_otp", appErr)
	}
	s.session.BeginVerifyOTP()
	return s.commands.Run(ctx, "session.verify_otp", s.session.SettleVerifyOTP, func(ctx context.Context) error {
		token, err := s.repo.VerifyOTP(ctx, req.PhoneNumber, req.OTP)
		if err == nil && !s.signIn(ctx, token) {
			err = appErrors.Clone(appErrors.ErrUnauthorized, "the issued token could not be decoded")
		}
		s.session.SettleVerifyOTP(err)
		if err == nil {
			s.logger.Info("signed in", zap.String("phone_number", req.PhoneNumber))
		}
		return err
	})
}

// Login signs in with a token obtained elsewhere.
func (s *SessionService) Login(ctx context.Context, token string) bool {
	return s.signIn(ctx, token)
}

// signIn replaces the session. Stores holding another subject's data are
// dropped.
func (s *SessionService) signIn(ctx context.Context, token string) bool {
	var ok bool
	s.commands.Transition(func() {
		prev := s.session.Session()
		ok = s.session.Login(ctx, token)
		if !sameSubject(prev.Subject, s.session.Session().Subject) {
			s.reset()
		}
	})
	return ok
}

func (s *SessionService) reset() {
	for _, r := range s.resets {
		r.Reset()
	}
}

func sameSubject(a, b *models.Subject) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.PhoneNumber == b.PhoneNumber
}

// Restore loads the persisted session once at start-up.
func (s *SessionService) Restore(ctx context.Context) bool {
	restored := s.session.Restore(ctx)
	if restored {
		s.logger.Info("session restored")
	}
	return restored
}

// Logout ends the session and drops every resource store.
func (s *SessionService) Logout(ctx context.Context) {
	s.commands.Transition(func() {
		s.session.Logout(ctx)
		s.reset()
	})
	s.logger.Info("signed out")
}
