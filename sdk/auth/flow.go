package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/noamross/googledocs/internal/browser"
	"github.com/noamross/googledocs/internal/misc"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	callbackPort     = 8085
	callbackPath     = "/oauth2callback"
	userinfoEndpoint = "https://www.googleapis.com/oauth2/v1/userinfo?alt=json"

	// consentTimeout bounds how long the flow waits for the user to finish
	// the consent screen.
	consentTimeout = 5 * time.Minute
)

// LoginOptions captures the knobs of the authorization flow.
type LoginOptions struct {
	// Email hints which Google account to preselect on the consent screen
	// and names the credential cache entry.
	Email string

	// ServiceAccountFile authorizes with a service-account key file instead
	// of the interactive browser flow.
	ServiceAccountFile string

	// Scopes overrides DefaultScopes().
	Scopes []string

	// NoCache skips both reading and writing the credential file cache.
	NoCache bool

	// NoBrowser prints the consent URL instead of opening a browser.
	NoBrowser bool
}

// Authorize obtains a credential and loads it into the state. The credential
// cache is consulted first unless disabled; otherwise the interactive web
// flow (or the service-account flow) runs. The resulting credential is
// validated before it replaces the loaded one, and a validation failure
// surfaces as ErrInvalidCredential rather than a silent fallback to API-key
// mode.
func (s *State) Authorize(ctx context.Context, opts *LoginOptions) error {
	if opts == nil {
		opts = &LoginOptions{}
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	s.mu.RLock()
	app := s.app
	client := s.httpClient
	s.mu.RUnlock()
	if app == nil {
		log.Debug("no oauth app configured, using the built-in app")
		app = DefaultApp()
	}

	store := s.credentialStore()

	if !opts.NoCache {
		if cred, err := store.Load(opts.Email); err == nil {
			if Validate(cred) {
				s.mu.Lock()
				s.cred = cred
				s.active = true
				s.mu.Unlock()
				log.Infof("Loaded cached credential for %s", identityLabel(cred.Email))
				return nil
			}
			log.Warnf("cached credential failed validation, discarding: %s", store.FilePath(opts.Email))
		}
	}

	var cred *Credential
	var err error
	if opts.ServiceAccountFile != "" {
		cred, err = authorizeServiceAccount(ctx, client, opts.ServiceAccountFile, scopes)
	} else {
		cred, err = authorizeWeb(ctx, client, app, opts, scopes)
	}
	if err != nil {
		if marker := retrieveErrorMarker(err); marker != "" {
			return fmt.Errorf("%w: token endpoint reported %s: %v", ErrInvalidCredential, marker, err)
		}
		return err
	}

	if !Validate(cred) {
		return fmt.Errorf("%w: authorization produced an unusable credential", ErrInvalidCredential)
	}

	s.mu.Lock()
	s.cred = cred
	s.active = true
	s.mu.Unlock()

	if !opts.NoCache {
		if _, errSave := store.Save(cred); errSave != nil {
			log.Warnf("failed to cache credential: %v", errSave)
		}
	}
	return nil
}

// oauthConfig assembles the delegated OAuth2 client configuration for app.
// The email scope rides along so the flow can resolve the account identity.
func oauthConfig(app *App, scopes []string) *oauth2.Config {
	merged := make([]string, 0, len(scopes)+1)
	hasEmailScope := false
	for _, scope := range scopes {
		if scope == scopeEmail {
			hasEmailScope = true
		}
		merged = append(merged, scope)
	}
	if !hasEmailScope {
		merged = append(merged, scopeEmail)
	}

	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://localhost:%d%s", callbackPort, callbackPath),
		Scopes:       merged,
		Endpoint:     google.Endpoint,
	}
}

// authorizeWeb runs the web-based OAuth2 authorization flow. It starts a
// local HTTP server to receive the callback from Google's auth server, sends
// the user's browser to the consent URL, and exchanges the received
// authorization code for a token.
func authorizeWeb(ctx context.Context, client *http.Client, app *App, opts *LoginOptions, scopes []string) (*Credential, error) {
	conf := oauthConfig(app, scopes)
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}

	state, err := misc.GenerateRandomState()
	if err != nil {
		return nil, err
	}

	// The authorization code travels from the HTTP handler to this function
	// through channels. Capacity 1 with non-blocking sends: only the first
	// outcome matters, and a stray late or duplicate callback (a browser
	// reload of the callback page) must not wedge a handler and keep the
	// server from draining on shutdown.
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, callbackHandler(state, codeChan, errChan))
	server := &http.Server{Addr: fmt.Sprintf(":%d", callbackPort), Handler: mux}

	go func() {
		if errServe := server.ListenAndServe(); !errors.Is(errServe, http.ErrServerClosed) {
			select {
			case errChan <- fmt.Errorf("callback server failed: %w", errServe):
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("Failed to shut down callback server: %v", errShutdown)
		}
	}()

	params := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")}
	if opts.Email != "" {
		params = append(params, oauth2.SetAuthURLParam("login_hint", opts.Email))
	}
	authURL := conf.AuthCodeURL(state, params...)

	if opts.NoBrowser {
		log.Infof("Open this URL in your browser to authorize:\n\n%s\n", authURL)
	} else if !browser.IsAvailable() {
		log.Warn("No browser available on this system")
		log.Infof("Please open this URL manually:\n\n%s\n", authURL)
	} else {
		log.Debugf("Attempting to open the authentication page in your browser.\nIf it does not open, please navigate to this URL:\n\n%s\n", authURL)
		if errOpen := browser.OpenURL(authURL); errOpen != nil {
			log.Errorf("Failed to open browser: %v. Please open this URL manually:\n\n%s\n", errOpen, authURL)
		}
	}

	var authCode string
	select {
	case code := <-codeChan:
		authCode = code
	case err = <-errChan:
		return nil, err
	case <-time.After(consentTimeout):
		return nil, fmt.Errorf("oauth flow timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	log.Info("Authentication successful.")
	return buildCredential(ctx, conf, token)
}

// callbackHandler validates the OAuth callback and forwards the authorization
// code. Consent denials and state mismatches surface on errChan. Sends never
// block: after the first outcome is delivered, later callbacks are answered
// and dropped.
func callbackHandler(state string, codeChan chan<- string, errChan chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			_, _ = fmt.Fprintf(w, "Authentication failed: %s", errParam)
			select {
			case errChan <- fmt.Errorf("authentication failed via callback: %s", errParam):
			default:
			}
			return
		}
		if got := r.URL.Query().Get("state"); got != state {
			http.Error(w, "State mismatch.", http.StatusBadRequest)
			select {
			case errChan <- fmt.Errorf("state mismatch in callback"):
			default:
			}
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			_, _ = fmt.Fprint(w, "Authentication failed: code not found.")
			select {
			case errChan <- fmt.Errorf("code not found in callback"):
			default:
			}
			return
		}
		_, _ = fmt.Fprint(w, "<html><body><h1>Authentication successful!</h1><p>You can close this window.</p></body></html>")
		select {
		case codeChan <- code:
		default:
		}
	}
}

// buildCredential enriches the exchanged token with refresh metadata and the
// account email. The payload layout matches what Google's own client
// libraries persist, so the files interoperate.
func buildCredential(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*Credential, error) {
	email, err := fetchUserEmail(ctx, conf, token)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	raw, _ := json.Marshal(token)
	if err = json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	payload["token_uri"] = google.Endpoint.TokenURL
	payload["client_id"] = conf.ClientID
	payload["client_secret"] = conf.ClientSecret
	payload["scopes"] = conf.Scopes
	payload["universe_domain"] = "googleapis.com"

	return &Credential{
		Token:    payload,
		Email:    email,
		Scopes:   conf.Scopes,
		Obtained: time.Now(),
		Type:     CredentialType,
	}, nil
}

// fetchUserEmail resolves the authorized account's address from the userinfo
// endpoint. A missing email is logged, not fatal.
func fetchUserEmail(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (string, error) {
	httpClient := conf.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, "GET", userinfoEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("could not get user info: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Debugf("failed to close response body: %v", errClose)
		}
	}()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("get user info request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	emailResult := gjson.GetBytes(bodyBytes, "email")
	if emailResult.Exists() && emailResult.Type == gjson.String {
		log.Infof("Authenticated user email: %s", emailResult.String())
		return emailResult.String(), nil
	}
	log.Info("Failed to get user email from token")
	return "", nil
}
