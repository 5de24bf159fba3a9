package models

import "encoding/json"

// AppointmentStatus is the approval lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusApproved  AppointmentStatus = "APPROVED"
	StatusRejected  AppointmentStatus = "REJECTED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// AppointmentStatuses lists every status in display order.
var AppointmentStatuses = []AppointmentStatus{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	for _, known := range AppointmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is a lifecycle step.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Gender of a profile owner or a witness.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Witness attends the ceremony.
type Witness struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Gender    Gender `json:"gender" validate:"required,oneof=MALE FEMALE"`
}

// Appointment is the client projection of a server-side appointment.
type Appointment struct {
	ID                   int64             `json:"id"`
	ApplicantPhoneNumber string            `json:"applicantPhoneNumber"`
	GroomFirstName       string            `json:"groomFirstName"`
	GroomLastName        string            `json:"groomLastName"`
	BrideFirstName       string            `json:"brideFirstName"`
	BrideLastName        string            `json:"brideLastName"`
	Witnesses            []Witness         `json:"witnesses"`
	Notes                string            `json:"notes,omitempty"`
	DocumentPath         string            `json:"documentPath,omitempty"`
	Status               AppointmentStatus `json:"status"`
	RejectionReason      string            `json:"rejectionReason,omitempty"`
	StartTime            Timestamp         `json:"startTime"`
	CreatedAt            Timestamp         `json:"createdAt"`
}

// appointmentWire adds the flattened witness columns the API may send
// instead of a witnesses array.
type appointmentWire struct {
	appointmentAlias
	Witness1FirstName string `json:"witness1FirstName"`
	Witness1LastName  string `json:"witness1LastName"`
	Witness1Gender    Gender `json:"witness1Gender"`
	Witness2FirstName string `json:"witness2FirstName"`
	Witness2LastName  string `json:"witness2LastName"`
	Witness2Gender    Gender `json:"witness2Gender"`
	Witness3FirstName string `json:"witness3FirstName"`
	Witness3LastName  string `json:"witness3LastName"`
	Witness3Gender    Gender `json:"witness3Gender"`
}

type appointmentAlias Appointment

// UnmarshalJSON implements json.Unmarshaler.
func (a *Appointment) UnmarshalJSON(data []byte) error {
	var wire appointmentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = Appointment(wire.appointmentAlias)
	if len(a.Witnesses) == 0 {
		flat := []Witness{
			{FirstName: wire.Witness1FirstName, LastName: wire.Witness1LastName, Gender: wire.Witness1Gender},
			{FirstName: wire.Witness2FirstName, LastName: wire.Witness2LastName, Gender: wire.Witness2Gender},
			{FirstName: wire.Witness3FirstName, LastName: wire.Witness3LastName, Gender: wire.Witness3Gender},
		}
		for _, w := range flat {
			if w.FirstName != "" || w.LastName != "" {
				a.Witnesses = append(a.Witnesses, w)
			}
		}
	}
	if a.Status != StatusRejected {
		a.RejectionReason = ""
	}
	return nil
}

// TimeSlot is a bookable window generated by an administrator.
type TimeSlot struct {
	ID        int64     `json:"id"`
	StartTime Timestamp `json:"startTime"`
}

// WitnessCompositionValid applies the witness rule: exactly two witnesses of
// any gender, or three witnesses that are two men and one woman or one man
// and two women.
func WitnessCompositionValid(witnesses []Witness) bool {
	switch len(witnesses) {
	case 2:
		return true
	case 3:
		var men, women int
		for _, w := range witnesses {
			switch w.Gender {
			case GenderMale:
				men++
			case GenderFemale:
				women++
			}
		}
		return (men == 2 && women == 1) || (men == 1 && women == 2)
	default:
		return false
	}
}
