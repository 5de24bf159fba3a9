package dto

import "github.com/noah-isme/marriage-appointment-client/internal/models"

// OTPRequest starts a phone number login.
type OTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=6,max=20"`
}

// VerifyOTPRequest exchanges the one-time password for an access token.
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=6,max=20"`
	OTP         string `json:"otp" validate:"required,numeric,min=4,max=8"`
}

// TokenResponse is the verify-otp answer.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// ProfileUpdateRequest completes or edits the applicant profile.
type ProfileUpdateRequest struct {
	FirstName string        `json:"firstName" validate:"required,max=100"`
	LastName  string        `json:"lastName" validate:"required,max=100"`
	Gender    models.Gender `json:"gender" validate:"required,oneof=MALE FEMALE"`
}
