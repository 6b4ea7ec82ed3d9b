package cmd

import (
	"fmt"

	"github.com/noamross/googledocs/internal/config"
	"github.com/noamross/googledocs/internal/util"
	"github.com/noamross/googledocs/sdk/auth"
	log "github.com/sirupsen/logrus"
)

// DoShowConfig prints the authorization configuration in effect.
func DoShowConfig(cfg *config.Config) {
	state := buildState(cfg)

	// Re-applying the config's options yields the snapshot without
	// disturbing what buildState already configured.
	snapshot, err := state.Configure(&auth.ConfigOptions{
		AppFile: cfg.ClientSecretFile,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		log.Fatalf("failed to read configuration: %v", err)
	}

	fmt.Printf("active:    %t\n", snapshot.Active)
	fmt.Printf("oauth app: %s\n", snapshot.AppName)
	fmt.Printf("api key:   %s\n", util.HideAPIKey(snapshot.APIKey))
	fmt.Printf("cache dir: %s\n", cfg.CacheDir)
}
