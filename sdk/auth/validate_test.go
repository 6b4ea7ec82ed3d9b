package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

func TestValidate_NilCredential(t *testing.T) {
	assert.False(t, Validate(nil))
}

func TestValidate_WrongTypeTag(t *testing.T) {
	cred := testCredential("user@example.com")
	cred.Type = "gemini"

	// Rejected on the tag alone, with no error markers anywhere.
	assert.False(t, Validate(cred))
}

func TestValidate_EmptyTypeTag(t *testing.T) {
	cred := testCredential("user@example.com")
	cred.Type = ""
	assert.False(t, Validate(cred))
}

func TestValidate_InvalidClientMarker(t *testing.T) {
	cred := testCredential("user@example.com")
	cred.Token["error"] = "invalid_client"
	assert.False(t, Validate(cred))
}

func TestValidate_InvalidRequestMarker(t *testing.T) {
	cred := testCredential("user@example.com")
	cred.Token["error"] = "invalid_request"
	assert.False(t, Validate(cred))
}

func TestValidate_MarkerInsideSurroundingText(t *testing.T) {
	cred := testCredential("user@example.com")
	cred.Token["error_description"] = "the server said: invalid_client (unauthorized)"
	assert.False(t, Validate(cred))
}

func TestValidate_NestedMarker(t *testing.T) {
	cred := testCredential("user@example.com")
	cred.Token["details"] = map[string]any{
		"responses": []any{
			map[string]any{"status": "invalid_request"},
		},
	}
	assert.False(t, Validate(cred))
}

func TestValidate_MarkerInKeyOnly(t *testing.T) {
	cred := testCredential("user@example.com")
	// Only values are scanned; a key spelled like a marker is harmless.
	cred.Token["invalid_client"] = "no problem here"
	assert.True(t, Validate(cred))
}

func TestValidate_WellFormedCredential(t *testing.T) {
	assert.True(t, Validate(testCredential("user@example.com")))
}

func TestRetrieveErrorMarker_TypedCode(t *testing.T) {
	err := &oauth2.RetrieveError{ErrorCode: "invalid_client"}
	assert.Equal(t, "invalid_client", retrieveErrorMarker(err))
}

func TestRetrieveErrorMarker_WrappedError(t *testing.T) {
	inner := &oauth2.RetrieveError{ErrorCode: "invalid_request"}
	wrapped := errors.Join(errors.New("exchange failed"), inner)
	assert.Equal(t, "invalid_request", retrieveErrorMarker(wrapped))
}

func TestRetrieveErrorMarker_BodyFallback(t *testing.T) {
	err := &oauth2.RetrieveError{Body: []byte(`{"error":"invalid_client"}`)}
	assert.Equal(t, "invalid_client", retrieveErrorMarker(err))
}

func TestRetrieveErrorMarker_UnrelatedError(t *testing.T) {
	assert.Equal(t, "", retrieveErrorMarker(errors.New("network down")))
}
