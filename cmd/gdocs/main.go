package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/noamross/googledocs/internal/cmd"
	"github.com/noamross/googledocs/internal/config"
	"github.com/noamross/googledocs/internal/logging"
	"github.com/noamross/googledocs/internal/util"
	log "github.com/sirupsen/logrus"
)

func init() {
	logging.SetupBaseLogger()
}

func main() {
	var login bool
	var logout bool
	var showConfig bool
	var getID string
	var createTitle string
	var appendID string
	var text string
	var email string
	var serviceAccount string
	var noBrowser bool
	var noCache bool
	var configPath string

	flag.BoolVar(&login, "login", false, "Authorize a Google account")
	flag.BoolVar(&logout, "logout", false, "Deauthorize and remove the cached credential")
	flag.BoolVar(&showConfig, "show-config", false, "Print the authorization configuration in effect")
	flag.StringVar(&getID, "get", "", "Fetch a document by id")
	flag.StringVar(&createTitle, "create", "", "Create a blank document with the given title")
	flag.StringVar(&appendID, "append", "", "Append -text to the document with the given id")
	flag.StringVar(&text, "text", "", "Text for -append")
	flag.StringVar(&email, "email", "", "Google account hint for -login / -logout")
	flag.StringVar(&serviceAccount, "service-account", "", "Authorize with a service account key file")
	flag.BoolVar(&noBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
	flag.BoolVar(&noCache, "no-cache", false, "Skip the credential file cache")
	flag.StringVar(&configPath, "config", "", "Configuration file path")

	flag.Parse()

	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = config.DefaultConfig()
		if err = cfg.ExpandPaths(); err != nil {
			log.Fatalf("failed to resolve config paths: %v", err)
		}
	}

	util.SetLogLevel(cfg)
	if err = logging.ConfigureLogOutput(cfg.LoggingToFile); err != nil {
		log.Fatalf("failed to configure log output: %v", err)
	}

	switch {
	case login:
		cmd.DoLogin(cfg, &cmd.LoginOptions{
			Email:              email,
			ServiceAccountFile: serviceAccount,
			NoBrowser:          noBrowser,
			NoCache:            noCache,
		})
	case logout:
		cmd.DoLogout(cfg, email)
	case showConfig:
		cmd.DoShowConfig(cfg)
	case getID != "":
		cmd.DoGet(cfg, getID)
	case createTitle != "":
		cmd.DoCreate(cfg, createTitle)
	case appendID != "":
		cmd.DoAppend(cfg, appendID, text)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
