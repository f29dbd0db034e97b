package controllers

import (
	"net/http"

	"github.com/angelmondragon/vendorpool-backend/api/responses"
	"github.com/angelmondragon/vendorpool-backend/internal/warehouses"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
)

// Warehouses lists the active receiving warehouses and the delivery methods
// each accepts.
func Warehouses(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
