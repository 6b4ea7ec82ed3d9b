// Package auth manages OAuth2 credentials and API keys for the googledocs
// request builders. It covers the complete credential lifecycle: interactive
// and service-account authorization, validation, file caching, change
// watching, and conversion into the token sources request builders attach to
// outbound calls. The OAuth2 protocol itself is delegated to golang.org/x/oauth2.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/noamross/googledocs/internal/config"
	"github.com/noamross/googledocs/internal/util"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// State holds the authorization mode and material shared by the request
// builders of one host application. Create exactly one per logical unit of
// work and pass it explicitly; there is no package-level instance. All
// methods are safe for concurrent use.
type State struct {
	mu         sync.RWMutex
	active     bool
	cred       *Credential
	apiKey     string
	app        *App
	httpClient *http.Client
	cacheDir   string
}

// Option customizes a State at construction time.
type Option func(*State)

// WithApp overrides the built-in OAuth app.
func WithApp(app *App) Option {
	return func(s *State) {
		if app != nil {
			s.app = app
		}
	}
}

// WithAPIKey overrides the built-in API key.
func WithAPIKey(key string) Option {
	return func(s *State) { s.apiKey = key }
}

// WithHTTPClient sets the HTTP client used for token exchange and refresh,
// letting hosts route the flow through a proxy.
func WithHTTPClient(client *http.Client) Option {
	return func(s *State) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithCacheDir sets the directory holding cached credential files.
func WithCacheDir(dir string) Option {
	return func(s *State) { s.cacheDir = dir }
}

// WithProxyURL routes token exchange and refresh through a proxy. A
// socks5:// or http(s):// URL is accepted.
func WithProxyURL(proxyURL string) Option {
	return func(s *State) {
		if proxyURL != "" {
			s.httpClient = util.SetProxy(&config.Config{ProxyURL: proxyURL}, &http.Client{})
		}
	}
}

// NewState creates a State in active mode with the built-in OAuth app and
// API key and no credential loaded.
func NewState(opts ...Option) *State {
	s := &State{
		active:     true,
		apiKey:     DefaultAPIKey,
		app:        DefaultApp(),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetActive switches between credential mode (true) and API-key mode (false).
func (s *State) SetActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

// Active reports whether credential mode is engaged.
func (s *State) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetCredential replaces the loaded credential wholesale. nil clears it.
func (s *State) SetCredential(cred *Credential) {
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
}

// Credential returns the currently loaded credential, or nil.
func (s *State) Credential() *Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// SetAPIKey stores the API key verbatim, independent of the active flag.
func (s *State) SetAPIKey(key string) {
	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()
}

// APIKey returns the current API key.
func (s *State) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetApp replaces the OAuth app used by future authorization flows.
func (s *State) SetApp(app *App) {
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()
}

// App returns the current OAuth app, or nil.
func (s *State) App() *App {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.app
}

// Deauthorize switches to API-key mode and drops the loaded credential.
// Cached credential files are left on disk; removing them is the host's call.
func (s *State) Deauthorize() {
	s.mu.Lock()
	s.active = false
	s.cred = nil
	s.mu.Unlock()
	log.Debug("deauthorized: credential cleared, requests fall back to the API key")
}

// ConfigOptions selects the OAuth app and API key used for subsequent
// authorization. Zero values fall back to the built-in defaults. App and
// AppFile are mutually exclusive.
type ConfigOptions struct {
	// App is a fully formed OAuth client descriptor.
	App *App

	// AppFile is the path of a Google client-secret JSON file.
	AppFile string

	// APIKey replaces the API key attached to key-only requests.
	APIKey string
}

// Snapshot reports the configuration in effect after a Configure call.
type Snapshot struct {
	Active  bool
	AppName string
	APIKey  string
}

// Configure swaps the OAuth app and API key used for future authorization
// and reports the resulting configuration. When both an app object and an
// app file are given the call fails with ErrConfigConflict and the state is
// left untouched; the same holds when the app file cannot be loaded.
func (s *State) Configure(opts *ConfigOptions) (*Snapshot, error) {
	if opts == nil {
		opts = &ConfigOptions{}
	}
	if opts.App != nil && opts.AppFile != "" {
		return nil, fmt.Errorf("%w: pass the app object or its file path, not both", ErrConfigConflict)
	}

	app := opts.App
	if opts.AppFile != "" {
		loaded, err := LoadAppFile(opts.AppFile)
		if err != nil {
			return nil, err
		}
		app = loaded
	}
	if app == nil {
		app = DefaultApp()
	}

	key := opts.APIKey
	if key == "" {
		key = DefaultAPIKey
	}

	s.mu.Lock()
	s.app = app
	s.apiKey = key
	active := s.active
	s.mu.Unlock()

	log.Debugf("auth configured: app=%s api-key=%s active=%t", app.Name, util.HideAPIKey(key), active)
	return &Snapshot{Active: active, AppName: app.Name, APIKey: key}, nil
}

// Token returns the token source request builders should attach to outbound
// calls. A nil source with a nil error means authorization is inactive and
// the API key should be attached instead. In active mode with no credential
// loaded the interactive flow runs first.
func (s *State) Token(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if !active {
		return nil, nil
	}

	if err := s.ensureCredential(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cred := s.cred
	app := s.app
	client := s.httpClient
	s.mu.RUnlock()
	if app == nil {
		// SetApp(nil) is a valid wholesale replacement; refresh falls back
		// to the built-in app the same way Authorize does.
		app = DefaultApp()
	}

	tok, err := cred.OAuthToken()
	if err != nil {
		return nil, err
	}

	conf := oauthConfig(app, cred.Scopes)
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, client)
	return oauth2.ReuseTokenSource(tok, conf.TokenSource(tokenCtx, tok)), nil
}

// ensureCredential runs the authorization flow when no credential is loaded.
func (s *State) ensureCredential(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.cred != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	log.Debug("no credential loaded, starting authorization")
	return s.Authorize(ctx, nil)
}

// AttachAuth applies the authorization contract to an outbound request: an
// active token source sets a Bearer header, otherwise the API key is added
// as the key query parameter.
func (s *State) AttachAuth(ctx context.Context, req *http.Request) error {
	source, err := s.Token(ctx)
	if err != nil {
		return err
	}
	if source == nil {
		query := req.URL.Query()
		query.Set("key", s.APIKey())
		req.URL.RawQuery = query.Encode()
		return nil
	}
	tok, err := source.Token()
	if err != nil {
		return fmt.Errorf("googledocs auth: failed to mint access token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}
