package shared

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type tenantContextKey struct{}

// ErrTenantRequired indicates the request carried no tenant identity.
var ErrTenantRequired = errors.New("shared: tenant required")

// WithTenant returns a context carrying the tenant identity.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// TenantFromContext extracts the tenant identity set by the middleware.
func TenantFromContext(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(tenantContextKey{}).(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrTenantRequired
	}
	return tenantID, nil
}
