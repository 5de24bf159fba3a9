package dto

import (
	"github.com/noah-isme/marriage-appointment-client/internal/models"
)

// Attachment is an uploaded document held in memory until it is sent.
type Attachment struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-" validate:"min=1"`
}

// BookingRequest is the payload for reserving a slot.
type BookingRequest struct {
	TimeSlotID      int64            `json:"timeSlotId" validate:"required,gt=0"`
	SpouseFirstName string           `json:"spouseFirstName" validate:"required,max=100"`
	SpouseLastName  string           `json:"spouseLastName" validate:"required,max=100"`
	Witnesses       []models.Witness `json:"witnesses" validate:"required,min=2,max=3,dive"`
	Notes           string           `json:"notes" validate:"max=1000"`
	Document        *Attachment      `json:"-" validate:"required"`
}

// bookingPart is the JSON "request" part of the multipart booking call.
type bookingPart struct {
	TimeSlotID      int64            `json:"timeSlotId"`
	SpouseFirstName string           `json:"spouseFirstName"`
	SpouseLastName  string           `json:"spouseLastName"`
	Witnesses       []models.Witness `json:"witnesses"`
	Notes           string           `json:"notes,omitempty"`
}

// RequestPart returns the value serialised into the "request" part.
func (r BookingRequest) RequestPart() interface{} {
	return bookingPart{
		TimeSlotID:      r.TimeSlotID,
		SpouseFirstName: r.SpouseFirstName,
		SpouseLastName:  r.SpouseLastName,
		Witnesses:       r.Witnesses,
		Notes:           r.Notes,
	}
}
