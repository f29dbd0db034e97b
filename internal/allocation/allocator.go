package allocation

import (
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// Entry is the slice of a commitment the allocator needs.
type Entry struct {
	Quantity int
	Status   enums.CommitmentStatus
}

// EntriesFromCommitments projects commitment rows into allocator entries.
func EntriesFromCommitments(rows []models.Commitment) []Entry {
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, Entry{Quantity: row.Quantity, Status: row.Status})
	}
	return out
}

// Totals aggregates a vendor's commitments for one deal.
type Totals struct {
	FulfilledQty   int  `json:"fulfilledQty"`
	ActiveQty      int  `json:"activeQty"`
	TotalCommitted int  `json:"totalCommitted"`
	HasActive      bool `json:"hasActive"`
}

// Summarize sums fulfilled and in-flight quantity. Cancelled commitments
// contribute nothing.
func Summarize(existing []Entry) Totals {
	var totals Totals
	for _, entry := range existing {
		switch {
		case entry.Status == enums.CommitmentStatusFulfilled:
			totals.FulfilledQty += entry.Quantity
		case entry.Status == enums.CommitmentStatusCancelled:
		case entry.Status.IsActive():
			totals.ActiveQty += entry.Quantity
			totals.HasActive = true
		}
	}
	totals.TotalCommitted = totals.FulfilledQty + totals.ActiveQty
	return totals
}

// Result is the allocation decision for a new commitment request.
type Result struct {
	Allowed            bool `json:"allowed"`
	RemainingAllowance int  `json:"remainingAllowance"`
	Totals
}

// CanCommit decides whether requested units fit under the vendor limit given
// the vendor's existing commitments for the deal.
func CanCommit(existing []Entry, requested int, limit Limit) Result {
	totals := Summarize(existing)
	remaining := limit.Effective() - totals.TotalCommitted
	return Result{
		Allowed:            remaining > 0 && requested <= remaining,
		RemainingAllowance: remaining,
		Totals:             totals,
	}
}

// UpdateResult is the decision for resizing an existing commitment.
type UpdateResult struct {
	CanUpdate bool `json:"canUpdate"`
	Available int  `json:"available"`
	NewTotal  int  `json:"newTotal"`
}

// CanUpdateQuantity checks a resize against the limit. otherQty is the sum of
// every other non-cancelled commitment the vendor holds on the deal.
func CanUpdateQuantity(otherQty, newQuantity int, limit Limit) UpdateResult {
	effective := limit.Effective()
	newTotal := otherQty + newQuantity
	return UpdateResult{
		CanUpdate: newTotal <= effective,
		Available: effective - otherQty,
		NewTotal:  newTotal,
	}
}

// OtherCommittedQty sums non-cancelled quantity across rows, skipping exclude.
func OtherCommittedQty(rows []models.Commitment, exclude models.Commitment) int {
	total := 0
	for _, row := range rows {
		if row.ID == exclude.ID {
			continue
		}
		if row.Status == enums.CommitmentStatusCancelled {
			continue
		}
		total += row.Quantity
	}
	return total
}
