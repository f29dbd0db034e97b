package commitments

import (
	"fmt"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
)

// Action is a requested change to a commitment.
type Action string

const (
	ActionSetDeliveryShip    Action = "SET_DELIVERY_SHIP"
	ActionSetDeliveryDropOff Action = "SET_DELIVERY_DROP_OFF"
	ActionSubmitTracking     Action = "SUBMIT_TRACKING"
	ActionRemoveTracking     Action = "REMOVE_TRACKING"
	ActionRequestLabel       Action = "REQUEST_LABEL"
	ActionUpdateQuantity     Action = "UPDATE_QUANTITY"
	ActionCancel             Action = "CANCEL"
	ActionMarkDelivered      Action = "MARK_DELIVERED"
	ActionFulfill            Action = "FULFILL"
	ActionForceCancel        Action = "FORCE_CANCEL"
)

// TransitionDetails is attached to rejected transitions.
type TransitionDetails struct {
	CurrentStatus string `json:"currentStatus"`
	Action        string `json:"action"`
}

type rule struct {
	from      []enums.CommitmentStatus
	to        func(current enums.CommitmentStatus) enums.CommitmentStatus
	staffOnly bool
	rejectMsg string
}

func stay(current enums.CommitmentStatus) enums.CommitmentStatus { return current }

func moveTo(status enums.CommitmentStatus) func(enums.CommitmentStatus) enums.CommitmentStatus {
	return func(enums.CommitmentStatus) enums.CommitmentStatus { return status }
}

var (
	vendorEditable = []enums.CommitmentStatus{enums.CommitmentStatusPending, enums.CommitmentStatusDropOffPending}
	shipPending    = []enums.CommitmentStatus{enums.CommitmentStatusPending}
	nonTerminal    = []enums.CommitmentStatus{
		enums.CommitmentStatusPending,
		enums.CommitmentStatusDropOffPending,
		enums.CommitmentStatusInTransit,
		enums.CommitmentStatusDelivered,
	}
)

var rules = map[Action]rule{
	ActionSetDeliveryShip: {
		from:      vendorEditable,
		to:        moveTo(enums.CommitmentStatusPending),
		rejectMsg: "delivery can only be changed on pending commitments",
	},
	ActionSetDeliveryDropOff: {
		from:      vendorEditable,
		to:        moveTo(enums.CommitmentStatusDropOffPending),
		rejectMsg: "delivery can only be changed on pending commitments",
	},
	ActionSubmitTracking: {
		from:      shipPending,
		to:        moveTo(enums.CommitmentStatusInTransit),
		rejectMsg: "tracking can only be added to pending ship commitments",
	},
	ActionRemoveTracking: {
		from:      []enums.CommitmentStatus{enums.CommitmentStatusInTransit},
		to:        moveTo(enums.CommitmentStatusPending),
		rejectMsg: "tracking can only be removed while in transit",
	},
	ActionRequestLabel: {
		from:      shipPending,
		to:        stay,
		rejectMsg: "labels can only be requested for pending ship commitments",
	},
	ActionUpdateQuantity: {
		from:      vendorEditable,
		to:        stay,
		rejectMsg: "quantity can only be changed on pending commitments",
	},
	ActionCancel: {
		from:      vendorEditable,
		to:        moveTo(enums.CommitmentStatusCancelled),
		rejectMsg: "can only cancel pending commitments",
	},
	ActionMarkDelivered: {
		from:      []enums.CommitmentStatus{enums.CommitmentStatusInTransit},
		to:        moveTo(enums.CommitmentStatusDelivered),
		staffOnly: true,
		rejectMsg: "only in-transit commitments can be marked delivered",
	},
	ActionFulfill: {
		from:      []enums.CommitmentStatus{enums.CommitmentStatusDelivered, enums.CommitmentStatusDropOffPending},
		to:        moveTo(enums.CommitmentStatusFulfilled),
		staffOnly: true,
		rejectMsg: "only delivered or drop-off pending commitments can be fulfilled",
	},
	ActionForceCancel: {
		from:      nonTerminal,
		to:        moveTo(enums.CommitmentStatusCancelled),
		staffOnly: true,
		rejectMsg: "commitment can no longer be cancelled",
	},
}

// NextState returns the status a commitment moves to when actor performs
// action, or a typed rejection. Ownership is checked by the caller; this
// function only knows about roles.
func NextState(current enums.CommitmentStatus, action Action, role enums.UserRole) (enums.CommitmentStatus, error) {
	if !current.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown commitment status %q", current))
	}
	r, ok := rules[action]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown commitment action %q", action))
	}
	if !role.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
	}
	if r.staffOnly && !role.IsStaff() {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "only admins or workers can perform this action")
	}

	details := TransitionDetails{CurrentStatus: current.String(), Action: string(action)}
	if current.IsTerminal() {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("commitment is %s and can no longer change", current)).WithDetails(details)
	}
	for _, allowed := range r.from {
		if allowed == current {
			return r.to(current), nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeStateConflict, r.rejectMsg).WithDetails(details)
}
