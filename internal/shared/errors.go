package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTenantMismatch indicates a resource owned by a different tenant.
	ErrTenantMismatch = errors.New("resource belongs to a different tenant")
)
