package auth

import (
	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
)

// OAuth scopes accepted by the Docs and Drive APIs. The constants are
// re-exported from the generated API packages so callers do not need to
// import them separately.
const (
	// ScopeDrive grants full access to Drive files, which the Docs API accepts
	// for every document operation. It is the default scope of this library.
	ScopeDrive = drive.DriveScope

	// ScopeDriveFile grants access only to files created or opened by the app.
	ScopeDriveFile = drive.DriveFileScope

	// ScopeDriveReadonly grants read-only access to Drive metadata and content.
	ScopeDriveReadonly = drive.DriveReadonlyScope

	// ScopeDocuments grants access to Docs documents only.
	ScopeDocuments = docs.DocumentsScope

	// ScopeDocumentsReadonly grants read-only access to Docs documents.
	ScopeDocumentsReadonly = docs.DocumentsReadonlyScope

	// scopeEmail lets the flow resolve the authorized account's address.
	scopeEmail = "https://www.googleapis.com/auth/userinfo.email"
)

// DefaultScopes returns the scopes requested when the caller supplies none.
func DefaultScopes() []string {
	return []string{ScopeDrive}
}
