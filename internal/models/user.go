package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Role names carried in the access token.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// UserProfile holds the personal details required before booking.
type UserProfile struct {
	PhoneNumber string `json:"phoneNumber,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Gender      Gender `json:"gender"`
}

// Complete reports whether every field needed for a booking is filled in.
func (p *UserProfile) Complete() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.FirstName) != "" &&
		strings.TrimSpace(p.LastName) != "" &&
		(p.Gender == GenderMale || p.Gender == GenderFemale)
}

// SubjectID accepts the id claim as either a JSON number or a string.
type SubjectID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *SubjectID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = SubjectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = SubjectID(n.String())
	return nil
}

// Subject is the identity derived from the access token.
type Subject struct {
	ID          SubjectID `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	Roles       []string  `json:"roles"`
}

// HasRole reports whether the subject holds role.
func (s *Subject) HasRole(role string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the subject may use the administrative surface.
func (s *Subject) IsAdmin() bool {
	return s.HasRole(RoleAdmin)
}

// Session is the authenticated state: both fields are set or neither is.
type Session struct {
	Token   string   `json:"-"`
	Subject *Subject `json:"subject,omitempty"`
}

// Active reports whether a session exists.
func (s Session) Active() bool {
	return s.Token != "" && s.Subject != nil
}
