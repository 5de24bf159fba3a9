package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

func TestDecodeData(t *testing.T) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, DecodeData([]byte(`{"data":{"accessToken":"abc"}}`), &out))
	assert.Equal(t, "abc", out.AccessToken)

	require.NoError(t, DecodeData([]byte(`{"data":null}`), &out))
	require.Error(t, DecodeData([]byte(`not json`), &out))
}

func TestDecodeErrorFieldMap(t *testing.T) {
	body := []byte(`{"message":"Validation failed","errors":{"spouseFirstName":"must not be blank"}}`)
	err := DecodeError(http.StatusBadRequest, body)
	require.NotNil(t, err)
	assert.Equal(t, "Validation failed", err.Message)
	assert.Equal(t, "must not be blank", err.Fields["spouseFirstName"])
	assert.JSONEq(t, string(body), string(err.Payload))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestDecodeErrorFieldList(t *testing.T) {
	body := []byte(`{"error":"Bad Request","errors":[{"field":"witnesses","message":"invalid composition"}]}`)
	err := DecodeError(http.StatusBadRequest, body)
	assert.Equal(t, "Bad Request", err.Message)
	assert.Equal(t, "invalid composition", err.Fields["witnesses"])
}

func TestDecodeErrorPlainBody(t *testing.T) {
	err := DecodeError(http.StatusForbidden, []byte("Access denied"))
	assert.Equal(t, "Access denied", err.Message)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, err.Payload)

	err = DecodeError(http.StatusInternalServerError, nil)
	assert.Equal(t, "internal server error", err.Message)
}
