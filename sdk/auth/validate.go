package auth

import (
	"encoding/json"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// Error markers Google embeds in failed token payloads. The literal values
// come from the OAuth2 error vocabulary (RFC 6749 section 5.2).
const (
	markerInvalidClient  = "invalid_client"
	markerInvalidRequest = "invalid_request"
)

// Validate reports whether a credential bundle is usable. It never returns an
// error; rejection reasons are logged at debug level.
//
// A bundle is rejected when it is missing, carries a foreign type tag, or
// embeds an OAuth error marker anywhere in its values. Error payloads can
// arrive wrapped in otherwise well-formed bundles, so every string value is
// scanned, not just known fields.
func Validate(cred *Credential) bool {
	if cred == nil {
		log.Debug("credential rejected: no credential present")
		return false
	}
	if cred.Type != CredentialType {
		log.Debugf("credential rejected: unrecognized type %q", cred.Type)
		return false
	}

	raw, err := json.Marshal(cred)
	if err != nil {
		log.Debugf("credential rejected: not serializable: %v", err)
		return false
	}

	switch findErrorMarker(gjson.ParseBytes(raw)) {
	case markerInvalidClient:
		log.Debug("credential rejected: token endpoint reported invalid_client; check the OAuth app's client id and secret")
		return false
	case markerInvalidRequest:
		log.Debug("credential rejected: token endpoint reported invalid_request; the consent was likely declined or cancelled")
		return false
	}
	return true
}

// findErrorMarker walks every string value in the parsed bundle and returns
// the first OAuth error marker it finds, or "". Keys are not scanned.
func findErrorMarker(value gjson.Result) string {
	if value.IsObject() || value.IsArray() {
		found := ""
		value.ForEach(func(_, child gjson.Result) bool {
			found = findErrorMarker(child)
			return found == ""
		})
		return found
	}
	if value.Type != gjson.String {
		return ""
	}
	if strings.Contains(value.Str, markerInvalidClient) {
		return markerInvalidClient
	}
	if strings.Contains(value.Str, markerInvalidRequest) {
		return markerInvalidRequest
	}
	return ""
}

// retrieveErrorMarker extracts the OAuth error code from a typed token
// endpoint error. The typed code is preferred; the response body is only
// scanned when the endpoint did not structure its error.
func retrieveErrorMarker(err error) string {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return ""
	}
	if rerr.ErrorCode != "" {
		return rerr.ErrorCode
	}
	body := string(rerr.Body)
	if strings.Contains(body, markerInvalidClient) {
		return markerInvalidClient
	}
	if strings.Contains(body, markerInvalidRequest) {
		return markerInvalidRequest
	}
	return ""
}
