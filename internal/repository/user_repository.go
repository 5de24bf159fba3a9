package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// UserRepository reads and updates the signed-in user's profile.
type UserRepository struct {
	client *APIClient
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(client *APIClient) *UserRepository {
	return &UserRepository{client: client}
}

// Me returns the profile of the token holder.
func (r *UserRepository) Me(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.client.doJSON(ctx, "users.me", http.MethodGet, "/users/me", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateInfo stores the profile fields and returns the server copy.
func (r *UserRepository) UpdateInfo(ctx context.Context, req dto.ProfileUpdateRequest) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.client.doJSON(ctx, "users.update_info", http.MethodPut, "/users/me/update-info", nil, req, &profile); err != nil {
		return nil, err
	}
	if profile.FirstName == "" && profile.LastName == "" {
		profile = models.UserProfile{FirstName: req.FirstName, LastName: req.LastName, Gender: req.Gender}
	}
	return &profile, nil
}
