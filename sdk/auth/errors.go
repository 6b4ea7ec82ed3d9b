package auth

import "errors"

var (
	// ErrInvalidCredential indicates credential material that failed validation.
	// Authorization never falls back to API-key mode when this is returned.
	ErrInvalidCredential = errors.New("googledocs auth: invalid credential")

	// ErrConfigConflict indicates that an OAuth app object and an app file path
	// were supplied together. Configuration is left untouched when this is returned.
	ErrConfigConflict = errors.New("googledocs auth: oauth app and app file are mutually exclusive")
)
