package middleware

import (
	"net/http"

	"github.com/angelmondragon/vendorpool-backend/api/responses"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
)

// RequireRole admits requests whose resolved role is one of roles.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := RoleFromContext(r.Context())
			for _, role := range roles {
				if current == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
		})
	}
}

// RequireStaff admits admins and warehouse workers.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleWorker)
}
