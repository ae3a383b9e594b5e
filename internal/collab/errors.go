package collab

import "errors"

var (
	// ErrAuthentication rejects a connection before any session state exists.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAccessDenied is event-scoped and never fatal to the connection.
	ErrAccessDenied = errors.New("access denied")
)
