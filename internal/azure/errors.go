package azure

import "errors"

var (
	// ErrPermissionDenied means the subscription key was rejected (HTTP 401).
	// Callers must not retry with the same credential.
	ErrPermissionDenied = errors.New("azure: permission denied")

	// ErrUpstream wraps transient upstream failures that are safe to retry.
	ErrUpstream = errors.New("azure: upstream error")
)
