package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
)

// AuthRepository issues and verifies one-time passwords.
type AuthRepository struct {
	client *APIClient
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(client *APIClient) *AuthRepository {
	return &AuthRepository{client: client}
}

// RequestOTP asks the API to send a one-time password to phone.
func (r *AuthRepository) RequestOTP(ctx context.Context, phone string) error {
	return r.client.doJSON(ctx, "auth.request_otp", http.MethodPost, "/auth/request-otp", nil,
		dto.OTPRequest{PhoneNumber: phone}, nil)
}

// VerifyOTP exchanges the code for a bearer token.
func (r *AuthRepository) VerifyOTP(ctx context.Context, phone, otp string) (string, error) {
	var out dto.TokenResponse
	err := r.client.doJSON(ctx, "auth.verify_otp", http.MethodPost, "/auth/verify-otp", nil,
		dto.VerifyOTPRequest{PhoneNumber: phone, OTP: otp}, &out)
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}
