package allocation

import "github.com/angelmondragon/vendorpool-backend/pkg/enums"

// CheckNew runs the full gate for a brand-new commitment: deal status, the
// single-active-commitment rule, then quantity headroom. The returned Result
// is populated even when err is non-nil.
func CheckNew(dealStatus enums.DealStatus, existing []Entry, requested int, limit Limit) (Result, error) {
	result := CanCommit(existing, requested, limit)
	if dealStatus != enums.DealStatusActive {
		return result, ErrDealNotActive(dealStatus, result.RemainingAllowance, limit)
	}
	if result.HasActive {
		return result, ErrActiveCommitmentExists(result.RemainingAllowance, limit)
	}
	if result.RemainingAllowance <= 0 {
		return result, ErrFulfilledMax(requested, limit)
	}
	if !result.Allowed {
		return result, ErrExceedsLimit(requested, result.RemainingAllowance, limit)
	}
	return result, nil
}

// CheckResize validates changing a commitment from currentQty to newQty.
// Shrinking is always permitted.
func CheckResize(otherQty, currentQty, newQty int, limit Limit) (UpdateResult, error) {
	result := CanUpdateQuantity(otherQty, newQty, limit)
	if newQty <= currentQty {
		result.CanUpdate = true
		return result, nil
	}
	if !result.CanUpdate {
		return result, ErrExceedsLimit(newQty, result.Available, limit)
	}
	return result, nil
}
