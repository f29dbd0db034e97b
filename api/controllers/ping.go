package controllers

import (
	"net/http"

	"github.com/angelmondragon/vendorpool-backend/api/middleware"
	"github.com/angelmondragon/vendorpool-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// PrivatePing echoes the authenticated caller so clients can verify a token.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if user := middleware.UserIDFromContext(r.Context()); user != "" {
			payload["user_id"] = user
		}
		if role := middleware.RoleFromContext(r.Context()); role != "" {
			payload["role"] = role.String()
		}
		responses.WriteSuccess(w, payload)
	}
}
