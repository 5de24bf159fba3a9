package store

import (
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

// OpStatus tracks one logical operation group.
type OpStatus string

const (
	StatusIdle      OpStatus = "idle"
	StatusLoading   OpStatus = "loading"
	StatusSucceeded OpStatus = "succeeded"
	StatusFailed    OpStatus = "failed"
)

// OpState is the status of an operation group plus the error of its last
// failure, held until the next success.
type OpState struct {
	Status OpStatus         `json:"status"`
	Error  *appErrors.Error `json:"error,omitempty"`
}

func idle() OpState {
	return OpState{Status: StatusIdle}
}

func (o *OpState) begin() {
	o.Status = StatusLoading
}

func (o *OpState) settle(err error) {
	if err != nil {
		o.Status = StatusFailed
		o.Error = appErrors.FromError(err)
		return
	}
	o.Status = StatusSucceeded
	o.Error = nil
}
