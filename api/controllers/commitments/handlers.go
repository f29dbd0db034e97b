package commitments

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/api/middleware"
	"github.com/angelmondragon/vendorpool-backend/api/responses"
	"github.com/angelmondragon/vendorpool-backend/api/validators"
	internalcommitments "github.com/angelmondragon/vendorpool-backend/internal/commitments"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
)

func actorFrom(r *http.Request) (internalcommitments.Actor, error) {
	id, role, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		return internalcommitments.Actor{}, err
	}
	return internalcommitments.Actor{UserID: id, Role: role}, nil
}

// target resolves the caller and the commitment addressed by the path.
func target(r *http.Request) (internalcommitments.Actor, uuid.UUID, error) {
	actor, err := actorFrom(r)
	if err != nil {
		return actor, uuid.Nil, err
	}
	id, err := validators.ParseUUIDParam(chi.URLParam(r, "commitmentId"), "commitmentId")
	if err != nil {
		return actor, uuid.Nil, err
	}
	return actor, id, nil
}

func parseListParams(r *http.Request, withUserFilter bool) (internalcommitments.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return internalcommitments.ListParams{}, err
	}
	params := internalcommitments.ListParams{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		Limit:  limit,
	}
	if params.DealID, err = validators.ParseQueryUUID(r, "dealId"); err != nil {
		return params, err
	}
	if withUserFilter {
		if params.UserID, err = validators.ParseQueryUUID(r, "userId"); err != nil {
			return params, err
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseCommitmentStatus(strings.ToUpper(raw))
		if err != nil {
			return params, invalidField("status", "invalid status filter")
		}
		params.Status = &status
	}
	return params, nil
}

// List returns the caller's own commitments.
func List(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parseListParams(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.UserID = &actor.UserID

		page, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminList lists commitments across vendors with optional filters.
func AdminList(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parseListParams(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Create(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createCommitmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.Create(r.Context(), actor, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, commitment)
	}
}

func Get(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func SetDelivery(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.SetDelivery(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func UpdateQuantity(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.UpdateQuantity(r.Context(), actor, id, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func SubmitTracking(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload submitTrackingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.SubmitTracking(r.Context(), actor, id, payload.TrackingNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

// RemoveTracking serves both the vendor and staff routes; ownership is
// enforced by the service.
func RemoveTracking(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.RemoveTracking(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func RequestLabel(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload labelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		commitment, err := svc.RequestLabel(r.Context(), actor, id, payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, commitment)
	}
}

func Cancel(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.Cancel(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func AdminSetStatus(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload adminStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.AdminSetStatus(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func AdminUpdateTracking(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload trackingStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.UpdateTrackingStatus(r.Context(), actor, id, internalcommitments.TrackingStatusInput{
			LastStatus:   payload.LastStatus,
			LastLocation: payload.LastLocation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func AdminReviewLabel(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := target(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reviewLabelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		commitment, err := svc.ReviewLabel(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitment)
	}
}

func AdminMarkInvoicePaid(svc internalcommitments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseUUIDParam(chi.URLParam(r, "invoiceId"), "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload markPaidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.MarkInvoicePaid(r.Context(), actor, invoiceID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
