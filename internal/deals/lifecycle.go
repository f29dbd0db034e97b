package deals

import (
	"fmt"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
)

var dealTransitions = map[enums.DealStatus][]enums.DealStatus{
	enums.DealStatusDraft:   {enums.DealStatusActive, enums.DealStatusClosed},
	enums.DealStatusActive:  {enums.DealStatusPaused, enums.DealStatusExpired, enums.DealStatusClosed},
	enums.DealStatusPaused:  {enums.DealStatusActive, enums.DealStatusExpired, enums.DealStatusClosed},
	enums.DealStatusExpired: {enums.DealStatusActive, enums.DealStatusClosed},
	enums.DealStatusClosed:  {},
}

// CanTransition reports whether an admin may move a deal from one status to
// another. Re-asserting the current status is a no-op and always allowed.
func CanTransition(from, to enums.DealStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	for _, candidate := range dealTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ValidateTransition wraps CanTransition with a typed error.
func ValidateTransition(from, to enums.DealStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid deal status %q", to))
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("deal cannot move from %s to %s", from, to)).
			WithDetails(map[string]string{"currentStatus": from.String(), "requestedStatus": to.String()})
	}
	return nil
}

// InitialStatusAllowed reports whether a deal may be created in status.
func InitialStatusAllowed(status enums.DealStatus) bool {
	return status == enums.DealStatusDraft || status == enums.DealStatusActive
}

// VisibleStatuses lists the statuses a role may browse. A nil result means
// every status is visible.
func VisibleStatuses(role enums.UserRole, includeExpired bool) []enums.DealStatus {
	if role == enums.UserRoleAdmin {
		return nil
	}
	if includeExpired {
		return []enums.DealStatus{enums.DealStatusActive, enums.DealStatusExpired}
	}
	return []enums.DealStatus{enums.DealStatusActive}
}

// IsVisible reports whether a deal in status may be shown to role.
func IsVisible(role enums.UserRole, status enums.DealStatus, includeExpired bool) bool {
	allowed := VisibleStatuses(role, includeExpired)
	if allowed == nil {
		return true
	}
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}
