package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/api/responses"
	pkgAuth "github.com/angelmondragon/vendorpool-backend/pkg/auth"
	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
)

// ProfileRoleLookup resolves the platform role stored on a user's profile.
type ProfileRoleLookup interface {
	RoleFor(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
}

// Auth validates a bearer token, loads the caller's platform role and seeds
// the request context with both.
func Auth(cfg config.JWTConfig, profiles ProfileRoleLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token subject"))
				return
			}

			role := enums.UserRoleSeller
			if profiles != nil {
				role, err = profiles.RoleFor(r.Context(), userID)
				if err != nil {
					if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
						responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile not provisioned"))
						return
					}
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile role"))
					return
				}
			}

			ctx := WithUserID(r.Context(), userID.String())
			ctx = WithRole(ctx, role)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    userID.String(),
					"actor_role": role.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
