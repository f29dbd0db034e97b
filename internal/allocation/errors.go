package allocation

import (
	"fmt"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
)

// Rejection reasons surfaced in error details.
const (
	ReasonDealNotActive    = "DEAL_NOT_ACTIVE"
	ReasonActiveCommitment = "ACTIVE_COMMITMENT_EXISTS"
	ReasonFulfilledMax     = "FULFILLED_MAX_QUANTITY"
	ReasonExceedsLimit     = "EXCEEDS_VENDOR_LIMIT"
)

// RejectionDetails gives callers enough context to explain a rejection
// without a second round trip.
type RejectionDetails struct {
	Reason             string `json:"reason"`
	RemainingAllowance int    `json:"remainingAllowance"`
	Requested          int    `json:"requested,omitempty"`
	Limit              *int   `json:"limit"`
	CurrentStatus      string `json:"currentStatus,omitempty"`
}

// ErrDealNotActive rejects commitments against a deal that is not ACTIVE.
func ErrDealNotActive(status enums.DealStatus, remaining int, limit Limit) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "deal not active").WithDetails(RejectionDetails{
		Reason:             ReasonDealNotActive,
		RemainingAllowance: clamp(remaining),
		Limit:              limit.Ptr(),
		CurrentStatus:      status.String(),
	})
}

// ErrActiveCommitmentExists rejects a second in-flight commitment for the same deal.
func ErrActiveCommitmentExists(remaining int, limit Limit) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "already has an active commitment for this deal").WithDetails(RejectionDetails{
		Reason:             ReasonActiveCommitment,
		RemainingAllowance: clamp(remaining),
		Limit:              limit.Ptr(),
	})
}

// ErrFulfilledMax rejects requests once the vendor has used the full allowance.
func ErrFulfilledMax(requested int, limit Limit) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeLimitExceeded, "already fulfilled max quantity").WithDetails(RejectionDetails{
		Reason:             ReasonFulfilledMax,
		RemainingAllowance: 0,
		Requested:          requested,
		Limit:              limit.Ptr(),
	})
}

// ErrExceedsLimit rejects a quantity that would push the vendor past the limit.
func ErrExceedsLimit(requested, remaining int, limit Limit) *pkgerrors.Error {
	msg := fmt.Sprintf("would exceed vendor limit; %d remaining", clamp(remaining))
	return pkgerrors.New(pkgerrors.CodeLimitExceeded, msg).WithDetails(RejectionDetails{
		Reason:             ReasonExceedsLimit,
		RemainingAllowance: clamp(remaining),
		Requested:          requested,
		Limit:              limit.Ptr(),
	})
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
