package auth

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
)

// Roles the upstream gateway may attach to a request. Authentication itself is
// handled outside this service; we only consume the resolved identity.
const (
	RoleAdmin     = "admin"
	RoleWarehouse = "warehouse"
	RoleSales     = "sales"
)

type UserContext struct {
	UserID string
	Role   string
}

type ctxKey struct{}

func WithUser(ctx context.Context, user UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func FromContext(ctx context.Context) (UserContext, bool) {
	user, ok := ctx.Value(ctxKey{}).(UserContext)
	return user, ok
}

// RequireRole checks the caller's role before any mutable state is read.
func RequireRole(ctx context.Context, roles ...string) error {
	user, ok := FromContext(ctx)
	if !ok || user.UserID == "" {
		return apperr.ErrUnauthorized
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return apperr.ErrForbidden
}
