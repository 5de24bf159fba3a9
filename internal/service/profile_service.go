package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
)

type userRepository interface {
	Me(ctx context.Context) (*models.UserProfile, error)
	UpdateInfo(ctx context.Context, req dto.ProfileUpdateRequest) (*models.UserProfile, error)
}

// ProfileService loads and edits the applicant profile.
type ProfileService struct {
	repo      userRepository
	profile   *store.ProfileStore
	commands  *Commands
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo userRepository, profile *store.ProfileStore, commands *Commands, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, profile: profile, commands: commands, validator: validate, logger: logger}
}

// Snapshot returns the profile store state.
func (s *ProfileService) Snapshot() store.ProfileSnapshot {
	return s.profile.Snapshot()
}

// Fetch reloads the profile.
func (s *ProfileService) Fetch(ctx context.Context) *jobs.Ticket {
	s.profile.BeginFetch()
	abort := func(err error) { s.profile.SettleFetch(nil, err) }
	return s.commands.Run(ctx, "profile.fetch", abort, func(ctx context.Context) error {
		profile, err := s.repo.Me(ctx)
		return s.commands.Settle(ctx, err, func() { s.profile.SettleFetch(profile, err) })
	})
}

// Update stores new profile details.
func (s *ProfileService) Update(ctx context.Context, req dto.ProfileUpdateRequest) *jobs.Ticket {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Gender = models.Gender(strings.ToUpper(string(req.Gender)))
	if err := s.validator.Struct(req); err != nil {
		appErr := invalidPayload(err, "invalid profile")
		s.profile.SettleUpdate(nil, appErr)
		return s.commands.Refuse(ctx, "profile.update", appErr)
	}
	s.profile.BeginUpdate()
	abort := func(err error) { s.profile.SettleUpdate(nil, err) }
	return s.commands.Run(ctx, "profile.update", abort, func(ctx context.Context) error {
		profile, err := s.repo.UpdateInfo(ctx, req)
		err = s.commands.Settle(ctx, err, func() { s.profile.SettleUpdate(profile, err) })
		if err == nil {
			s.commands.Success("Profile updated")
		}
		return err
	})
}
