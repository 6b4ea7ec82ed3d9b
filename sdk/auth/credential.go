package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/noamross/googledocs/internal/misc"
	"golang.org/x/oauth2"
)

// CredentialType tags credential files written by this library. Validation
// rejects bundles carrying any other type tag.
const CredentialType = "googledocs"

// Credential bundles an OAuth2 token with the identity and scopes it was
// issued for. The Token map carries the raw token payload plus the refresh
// metadata (token endpoint, client id/secret, scopes) needed to mint fresh
// access tokens later.
type Credential struct {
	// Token is the raw OAuth2 token payload.
	Token map[string]any `json:"token"`

	// Email is the account the token was issued for.
	Email string `json:"email"`

	// Scopes are the OAuth scopes granted during consent.
	Scopes []string `json:"scopes"`

	// Obtained records when the authorization flow completed.
	Obtained time.Time `json:"obtained"`

	// Type is the credential type identifier, always CredentialType.
	Type string `json:"type"`
}

// AccessToken returns the raw access token string, or "" when absent.
func (c *Credential) AccessToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	token, _ := c.Token["access_token"].(string)
	return token
}

// OAuthToken converts the stored token payload back into an oauth2.Token.
func (c *Credential) OAuthToken() (*oauth2.Token, error) {
	if c == nil || c.Token == nil {
		return nil, fmt.Errorf("googledocs auth: credential has no token payload")
	}
	raw, err := json.Marshal(c.Token)
	if err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to marshal token payload: %w", err)
	}
	var token oauth2.Token
	if err = json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to unmarshal token payload: %w", err)
	}
	return &token, nil
}

// SaveToFile persists the credential as JSON at the given path. The file is
// written to a temporary sibling first and renamed into place so watchers
// never observe a partial write.
func (c *Credential) SaveToFile(path string) error {
	c.Type = CredentialType
	misc.LogSavingCredentials(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory for credential file: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename credential file: %w", err)
	}
	return nil
}

// LoadCredentialFile reads a credential bundle previously written by SaveToFile.
func LoadCredentialFile(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to read credential file: %w", err)
	}
	var cred Credential
	if err = json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to parse credential file: %w", err)
	}
	return &cred, nil
}
