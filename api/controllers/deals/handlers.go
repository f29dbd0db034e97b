package deals

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/vendorpool-backend/api/middleware"
	"github.com/angelmondragon/vendorpool-backend/api/responses"
	"github.com/angelmondragon/vendorpool-backend/api/validators"
	internaldeals "github.com/angelmondragon/vendorpool-backend/internal/deals"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
)

func actorFrom(r *http.Request) (internaldeals.Actor, error) {
	id, role, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		return internaldeals.Actor{}, err
	}
	return internaldeals.Actor{UserID: id, Role: role}, nil
}

// List serves both the vendor catalogue and the admin listing; the service
// narrows visibility by role.
func List(svc internaldeals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deal service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeExpired, err := validators.ParseQueryBool(r, "includeExpired", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internaldeals.ListParams{
			IncludeExpired: includeExpired,
			Cursor:         strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:          limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDealStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").WithDetails(map[string]any{"field": "status"}))
				return
			}
			params.Status = &status
		}

		page, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Get(svc internaldeals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := validators.ParseUUIDParam(chi.URLParam(r, "dealId"), "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deal, err := svc.Get(r.Context(), actor, dealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

func AdminCreate(svc internaldeals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createDealRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deal, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, deal)
	}
}

func AdminUpdate(svc internaldeals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := validators.ParseUUIDParam(chi.URLParam(r, "dealId"), "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateDealRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deal, err := svc.Update(r.Context(), actor, dealID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

func AdminDelete(svc internaldeals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealID, err := validators.ParseUUIDParam(chi.URLParam(r, "dealId"), "dealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, dealID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
