package cmd

import (
	"context"
	"os"

	"github.com/noamross/googledocs/internal/config"
	"github.com/noamross/googledocs/internal/misc"
	"github.com/noamross/googledocs/sdk/auth"
	log "github.com/sirupsen/logrus"
)

// LoginOptions carries the login command's flags.
type LoginOptions struct {
	// Email preselects a Google account on the consent screen and names the
	// credential cache entry.
	Email string

	// ServiceAccountFile switches to the headless service-account flow.
	ServiceAccountFile string

	// NoBrowser prints the consent URL instead of opening a browser.
	NoBrowser bool

	// NoCache skips the credential file cache entirely.
	NoCache bool
}

// DoLogin runs the authorization flow and caches the resulting credential.
func DoLogin(cfg *config.Config, options *LoginOptions) {
	if options == nil {
		options = &LoginOptions{}
	}

	state := buildState(cfg)
	misc.LogCredentialSeparator()
	log.Info("Initializing Google authorization...")

	err := state.Authorize(context.Background(), &auth.LoginOptions{
		Email:              options.Email,
		ServiceAccountFile: options.ServiceAccountFile,
		NoBrowser:          options.NoBrowser,
		NoCache:            options.NoCache,
	})
	if err != nil {
		log.Fatalf("authorization failed: %v", err)
	}

	cred := state.Credential()
	if cred != nil && cred.Email != "" {
		log.Infof("Authorized as %s", cred.Email)
	} else {
		log.Info("Authorization complete.")
	}
}

// DoLogout deauthorizes and removes the cached credential file.
func DoLogout(cfg *config.Config, email string) {
	state := buildState(cfg)
	store := state.Store()
	path := store.FilePath(email)

	state.Deauthorize()
	if err := store.Delete(email); err != nil {
		log.Fatalf("failed to remove cached credential: %v", err)
	}
	if _, err := os.Stat(path); err == nil {
		log.Warnf("credential file still present: %s", path)
		return
	}
	log.Infof("Logged out. Removed %s", path)
}
