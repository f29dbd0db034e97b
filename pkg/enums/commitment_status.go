package enums

import "fmt"

// CommitmentStatus tracks a vendor commitment from creation to a terminal state.
type CommitmentStatus string

const (
	CommitmentStatusPending        CommitmentStatus = "PENDING"
	CommitmentStatusDropOffPending CommitmentStatus = "DROP_OFF_PENDING"
	CommitmentStatusInTransit      CommitmentStatus = "IN_TRANSIT"
	CommitmentStatusDelivered      CommitmentStatus = "DELIVERED"
	CommitmentStatusFulfilled      CommitmentStatus = "FULFILLED"
	CommitmentStatusCancelled      CommitmentStatus = "CANCELLED"
)

var validCommitmentStatuses = []CommitmentStatus{
	CommitmentStatusPending,
	CommitmentStatusDropOffPending,
	CommitmentStatusInTransit,
	CommitmentStatusDelivered,
	CommitmentStatusFulfilled,
	CommitmentStatusCancelled,
}

// String implements fmt.Stringer.
func (c CommitmentStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommitmentStatus.
func (c CommitmentStatus) IsValid() bool {
	for _, candidate := range validCommitmentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (c CommitmentStatus) IsTerminal() bool {
	return c == CommitmentStatusFulfilled || c == CommitmentStatusCancelled
}

// IsActive reports whether the commitment is still in flight
// (neither fulfilled nor cancelled).
func (c CommitmentStatus) IsActive() bool {
	return c.IsValid() && !c.IsTerminal()
}

// IsVendorEditable reports whether the owning vendor may still mutate the commitment.
func (c CommitmentStatus) IsVendorEditable() bool {
	return c == CommitmentStatusPending || c == CommitmentStatusDropOffPending
}

// ParseCommitmentStatus converts raw input into a CommitmentStatus.
func ParseCommitmentStatus(value string) (CommitmentStatus, error) {
	for _, candidate := range validCommitmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commitment status %q", value)
}
