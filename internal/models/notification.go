package models

import "encoding/json"

// Notification is a message addressed to the signed-in subject.
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}

type notificationAlias Notification

// UnmarshalJSON accepts both "isRead" and "read" for the read flag.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var wire struct {
		notificationAlias
		Read *bool `json:"read"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*n = Notification(wire.notificationAlias)
	if wire.Read != nil {
		n.IsRead = n.IsRead || *wire.Read
	}
	return nil
}

// Alert is a transient, dismissable message for the operator.
type Alert struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Alert levels.
const (
	AlertInfo    = "info"
	AlertSuccess = "success"
	AlertError   = "error"
)
