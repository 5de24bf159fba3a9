package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

// remoteBody covers the shapes the remote API answers with: the
// {"data": ...} success envelope and the usual error bodies.
type remoteBody struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DecodeData unwraps the data member of a success envelope into dest.
func DecodeData(body []byte, dest interface{}) error {
	if dest == nil {
		return nil
	}
	var env remoteBody
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode envelope data: %w", err)
	}
	return nil
}

// DecodeError converts a non-2xx remote answer into a typed error. The body is
// kept verbatim in Payload; field errors are extracted when present.
func DecodeError(status int, body []byte) *appErrors.Error {
	base := appErrors.FromStatus(status)
	appErr := appErrors.Clone(base, "")
	appErr.Status = status
	if len(body) > 0 && json.Valid(body) {
		appErr.Payload = json.RawMessage(body)
	}

	var env remoteBody
	if err := json.Unmarshal(body, &env); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
			appErr.Message = text
		} else if msg := http.StatusText(status); msg != "" {
			appErr.Message = strings.ToLower(msg)
		}
		return appErr
	}

	if env.Message != "" {
		appErr.Message = env.Message
	}
	if len(env.Error) > 0 {
		var nested appErrors.Error
		var plain string
		switch {
		case json.Unmarshal(env.Error, &nested) == nil && nested.Message != "":
			appErr.Message = nested.Message
			if nested.Code != "" {
				appErr.Code = nested.Code
			}
			if len(nested.Fields) > 0 {
				appErr.Fields = nested.Fields
			}
		case json.Unmarshal(env.Error, &plain) == nil && env.Message == "" && plain != "":
			appErr.Message = plain
		}
	}
	if fields := decodeFields(env.Errors); len(fields) > 0 {
		appErr.Fields = fields
	}
	if appErr.HasFields() {
		appErr.Code = appErrors.ErrValidation.Code
	}
	return appErr
}

func decodeFields(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var byName map[string]string
	if err := json.Unmarshal(raw, &byName); err == nil {
		return byName
	}
	var list []fieldError
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	fields := make(map[string]string, len(list))
	for _, fe := range list {
		if fe.Field != "" {
			fields[fe.Field] = fe.Message
		}
	}
	return fields
}
