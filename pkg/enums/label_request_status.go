package enums

import "fmt"

// LabelRequestStatus tracks admin review of a prepaid label request.
type LabelRequestStatus string

const (
	LabelRequestStatusPending  LabelRequestStatus = "PENDING"
	LabelRequestStatusApproved LabelRequestStatus = "APPROVED"
	LabelRequestStatusRejected LabelRequestStatus = "REJECTED"
)

var validLabelRequestStatuses = []LabelRequestStatus{
	LabelRequestStatusPending,
	LabelRequestStatusApproved,
	LabelRequestStatusRejected,
}

// String implements fmt.Stringer.
func (l LabelRequestStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LabelRequestStatus.
func (l LabelRequestStatus) IsValid() bool {
	for _, candidate := range validLabelRequestStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request has been decided.
func (l LabelRequestStatus) IsTerminal() bool {
	return l == LabelRequestStatusApproved || l == LabelRequestStatusRejected
}

// ParseLabelRequestStatus converts raw input into a LabelRequestStatus.
func ParseLabelRequestStatus(value string) (LabelRequestStatus, error) {
	for _, candidate := range validLabelRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid label request status %q", value)
}
