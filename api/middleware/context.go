package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxTokenTenant contextKey = "token_tenant_id"
	ctxTenantID    contextKey = "tenant_id"
)

func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

// TenantIDFromContext returns the tenant resolved by TenantContext. It is empty
// until the X-Tenant-ID header has been checked against the token.
func TenantIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxTenantID)
}

func tokenTenantFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxTokenTenant)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithTenantID injects a resolved tenant into the context for downstream handlers.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTenantID, tenantID)
}

// Actor is the caller identity handlers pass into services.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     string
}

// ActorFromContext parses the identity placed on the context by Auth and
// TenantContext. ok is false when either id is missing or malformed.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return Actor{}, false
	}
	tenantID, err := uuid.Parse(TenantIDFromContext(ctx))
	if err != nil {
		return Actor{}, false
	}
	return Actor{UserID: userID, TenantID: tenantID, Role: RoleFromContext(ctx)}, true
}
