package directory

import "errors"

var (
	// ErrNotConfigured is returned when any of the base URL, tenant, client
	// id or client secret is missing.
	ErrNotConfigured = errors.New("directory service is not configured")

	ErrSubjectNotFound = errors.New("no matching subject found")
)
