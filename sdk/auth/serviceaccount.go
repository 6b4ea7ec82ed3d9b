package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// authorizeServiceAccount authorizes with a service-account key file. The
// JWT grant skips the consent screen entirely, so it suits headless hosts.
func authorizeServiceAccount(ctx context.Context, client *http.Client, path string, scopes []string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to read service account file: %w", err)
	}

	jwtConf, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to parse service account file: %w", err)
	}

	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}

	token, err := jwtConf.TokenSource(ctx).Token()
	if err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to mint service account token: %w", err)
	}

	var payload map[string]any
	raw, _ := json.Marshal(token)
	if err = json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("googledocs auth: failed to unmarshal token: %w", err)
	}
	payload["token_uri"] = gjson.GetBytes(data, "token_uri").String()
	payload["client_email"] = jwtConf.Email
	payload["scopes"] = scopes
	payload["universe_domain"] = "googleapis.com"

	log.Infof("Authorized service account: %s", jwtConf.Email)

	return &Credential{
		Token:    payload,
		Email:    jwtConf.Email,
		Scopes:   scopes,
		Obtained: time.Now(),
		Type:     CredentialType,
	}, nil
}
