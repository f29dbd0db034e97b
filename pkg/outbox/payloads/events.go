package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// DealActivatedEvent announces a deal that just opened for commitments.
type DealActivatedEvent struct {
	DealID         uuid.UUID        `json:"dealId"`
	DealNumber     int64            `json:"dealNumber"`
	Slug           string           `json:"slug"`
	Title          string           `json:"title"`
	ImageURL       *string          `json:"imageUrl,omitempty"`
	RetailPrice    decimal.Decimal  `json:"retailPrice"`
	Payout         decimal.Decimal  `json:"payout"`
	PriceType      enums.PriceType  `json:"priceType"`
	LimitPerVendor *int             `json:"limitPerVendor,omitempty"`
	IsExclusive    bool             `json:"isExclusive"`
	ExclusivePrice *decimal.Decimal `json:"exclusivePrice,omitempty"`
	Deadline       *time.Time       `json:"deadline,omitempty"`
	ActivatedAt    time.Time        `json:"activatedAt"`
}

// DealStatusChangedEvent records every deal lifecycle move, including expiry.
type DealStatusChangedEvent struct {
	DealID uuid.UUID        `json:"dealId"`
	From   enums.DealStatus `json:"from"`
	To     enums.DealStatus `json:"to"`
	Reason string           `json:"reason,omitempty"`
}

// CommitmentCreatedEvent is emitted once the allocation check admitted a claim.
type CommitmentCreatedEvent struct {
	CommitmentID     uuid.UUID       `json:"commitmentId"`
	CommitmentNumber int64           `json:"commitmentNumber"`
	DealID           uuid.UUID       `json:"dealId"`
	UserID           uuid.UUID       `json:"userId"`
	Quantity         int             `json:"quantity"`
	PayoutRate       decimal.Decimal `json:"payoutRate"`
	IsVip            bool            `json:"isVip"`
}

// CommitmentStatusChangedEvent mirrors a state machine transition.
type CommitmentStatusChangedEvent struct {
	CommitmentID uuid.UUID              `json:"commitmentId"`
	DealID       uuid.UUID              `json:"dealId"`
	UserID       uuid.UUID              `json:"userId"`
	From         enums.CommitmentStatus `json:"from"`
	To           enums.CommitmentStatus `json:"to"`
	Action       string                 `json:"action"`
}

// CommitmentQuantityChangedEvent is emitted on an accepted resize.
type CommitmentQuantityChangedEvent struct {
	CommitmentID uuid.UUID `json:"commitmentId"`
	DealID       uuid.UUID `json:"dealId"`
	UserID       uuid.UUID `json:"userId"`
	Previous     int       `json:"previous"`
	Quantity     int       `json:"quantity"`
}

// InvoiceCreatedEvent is emitted when fulfillment opens a payout.
type InvoiceCreatedEvent struct {
	InvoiceID    uuid.UUID       `json:"invoiceId"`
	CommitmentID uuid.UUID       `json:"commitmentId"`
	UserID       uuid.UUID       `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
	InvoiceURL   string          `json:"invoiceUrl"`
}

// InvoicePaidEvent closes the payout bookkeeping for a commitment.
type InvoicePaidEvent struct {
	InvoiceID    uuid.UUID       `json:"invoiceId"`
	CommitmentID uuid.UUID       `json:"commitmentId"`
	UserID       uuid.UUID       `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
	CheckNumber  *string         `json:"checkNumber,omitempty"`
	PaidAt       time.Time       `json:"paidAt"`
}
