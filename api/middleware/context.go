package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// RoleFromContext returns the platform role resolved for the caller, or an
// empty role when the request was not authenticated.
func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
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

func WithRole(ctx context.Context, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// CallerFromContext returns the authenticated user and role set by Auth.
func CallerFromContext(ctx context.Context) (uuid.UUID, enums.UserRole, error) {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	role := RoleFromContext(ctx)
	if !role.IsValid() {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
	}
	return id, role, nil
}
