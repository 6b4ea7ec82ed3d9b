// Package cmd implements the gdocs command-line operations: authorization
// management (login, logout, show-config) and the demonstrated document
// operations (get, create, append). Each command builds its collaborators
// from the loaded configuration and exits via log.Fatalf on unrecoverable
// errors.
package cmd

import (
	"net/http"

	"github.com/noamross/googledocs/internal/cache"
	"github.com/noamross/googledocs/internal/config"
	"github.com/noamross/googledocs/internal/logging"
	"github.com/noamross/googledocs/internal/util"
	"github.com/noamross/googledocs/sdk/auth"
	"github.com/noamross/googledocs/sdk/docs"
	log "github.com/sirupsen/logrus"
)

// buildState assembles the auth state from configuration. The config's API
// key and client-secret file flow through Configure so an invalid combination
// fails before any request is attempted.
func buildState(cfg *config.Config) *auth.State {
	httpClient := util.SetProxy(cfg, &http.Client{})
	state := auth.NewState(
		auth.WithHTTPClient(httpClient),
		auth.WithCacheDir(cfg.CacheDir),
	)

	_, err := state.Configure(&auth.ConfigOptions{
		AppFile: cfg.ClientSecretFile,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		log.Fatalf("failed to configure authorization: %v", err)
	}
	return state
}

// buildClient assembles a Docs client around the state, attaching the
// document metadata cache and the optional request logger.
func buildClient(cfg *config.Config, state *auth.State) (*docs.Client, func()) {
	opts := []docs.Option{
		docs.WithHTTPClient(util.SetProxy(cfg, &http.Client{})),
	}

	closeCache := func() {}
	if cfg.DocumentCache != "" {
		metadataCache, err := cache.Open(cfg.DocumentCache)
		if err != nil {
			log.Warnf("document metadata cache unavailable: %v", err)
		} else {
			opts = append(opts, docs.WithCache(metadataCache))
			closeCache = func() {
				if errClose := metadataCache.Close(); errClose != nil {
					log.Debugf("failed to close document cache: %v", errClose)
				}
			}
		}
	}

	if cfg.RequestLog {
		opts = append(opts, docs.WithRequestLogger(logging.NewFileRequestLogger(true, "logs")))
	}

	return docs.New(state, opts...), closeCache
}
