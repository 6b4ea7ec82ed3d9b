// Package misc provides miscellaneous helpers that do not fit into more
// specific domain packages, such as shared log formatting for credential
// handling and OAuth state generation.
package misc

import (
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

var credentialSeparator = strings.Repeat("-", 70)

// LogSavingCredentials announces where a credential bundle is being written.
// The path is cleaned first so the same file always logs identically.
func LogSavingCredentials(path string) {
	if path == "" {
		return
	}
	log.Infof("Saving credentials to %s", filepath.Clean(path))
}

// LogCredentialSeparator starts a visually distinct block of authorization
// log lines.
func LogCredentialSeparator() {
	log.Info(credentialSeparator)
}
