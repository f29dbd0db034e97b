package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDeal       OutboxAggregateType = "deal"
	AggregateCommitment OutboxAggregateType = "commitment"
	AggregateInvoice    OutboxAggregateType = "invoice"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDeal,
	AggregateCommitment,
	AggregateInvoice,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventDealActivated             OutboxEventType = "deal_activated"
	EventDealStatusChanged         OutboxEventType = "deal_status_changed"
	EventCommitmentCreated         OutboxEventType = "commitment_created"
	EventCommitmentStatusChanged   OutboxEventType = "commitment_status_changed"
	EventCommitmentQuantityChanged OutboxEventType = "commitment_quantity_changed"
	EventInvoiceCreated            OutboxEventType = "invoice_created"
	EventInvoicePaid               OutboxEventType = "invoice_paid"
)

var validOutboxEventTypes = []OutboxEventType{
	EventDealActivated,
	EventDealStatusChanged,
	EventCommitmentCreated,
	EventCommitmentStatusChanged,
	EventCommitmentQuantityChanged,
	EventInvoiceCreated,
	EventInvoicePaid,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
