package commitments

import (
	"time"

	"github.com/angelmondragon/vendorpool-backend/internal/pricing"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommitmentDTO is the transport shape for a commitment aggregate.
type CommitmentDTO struct {
	ID                 uuid.UUID              `json:"id"`
	DisplayID          string                 `json:"displayId"`
	DealID             uuid.UUID              `json:"dealId"`
	UserID             uuid.UUID              `json:"userId"`
	Quantity           int                    `json:"quantity"`
	DeliveryMethod     enums.DeliveryMethod   `json:"deliveryMethod"`
	Warehouse          string                 `json:"warehouse"`
	Status             enums.CommitmentStatus `json:"status"`
	PayoutRate         decimal.Decimal        `json:"payoutRate"`
	IsVip              bool                   `json:"isVip"`
	EstimatedPayout    decimal.Decimal        `json:"estimatedPayout"`
	ShippedAt          *time.Time             `json:"shippedAt,omitempty"`
	DeliveredAt        *time.Time             `json:"deliveredAt,omitempty"`
	FulfilledAt        *time.Time             `json:"fulfilledAt,omitempty"`
	CancelledAt        *time.Time             `json:"cancelledAt,omitempty"`
	Tracking           *TrackingDTO           `json:"tracking,omitempty"`
	LabelRequest       *LabelRequestDTO       `json:"labelRequest,omitempty"`
	Invoice            *InvoiceDTO            `json:"invoice,omitempty"`
	RemainingAllowance *int                   `json:"remainingAllowance,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

type TrackingDTO struct {
	TrackingNumber string        `json:"trackingNumber"`
	Carrier        enums.Carrier `json:"carrier"`
	LastStatus     *string       `json:"lastStatus,omitempty"`
	LastLocation   *string       `json:"lastLocation,omitempty"`
	LastCheckedAt  *time.Time    `json:"lastCheckedAt,omitempty"`
}

type LabelRequestDTO struct {
	ID         uuid.UUID                `json:"id"`
	Status     enums.LabelRequestStatus `json:"status"`
	LabelURL   *string                  `json:"labelUrl,omitempty"`
	LabelFiles []string                 `json:"labelFiles,omitempty"`
	Notes      *string                  `json:"notes,omitempty"`
	ReviewedAt *time.Time               `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time                `json:"createdAt"`
}

type InvoiceDTO struct {
	ID            uuid.UUID           `json:"id"`
	CommitmentID  uuid.UUID           `json:"commitmentId"`
	UserID        uuid.UUID           `json:"userId"`
	InvoiceURL    string              `json:"invoiceUrl"`
	Amount        decimal.Decimal     `json:"amount"`
	Status        enums.InvoiceStatus `json:"status"`
	CheckNumber   *string             `json:"checkNumber,omitempty"`
	CheckImageURL *string             `json:"checkImageUrl,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func FromModel(c *models.Commitment) *CommitmentDTO {
	if c == nil {
		return nil
	}
	dto := &CommitmentDTO{
		ID:              c.ID,
		DisplayID:       types.FormatCommitmentID(c.CommitmentNumber),
		DealID:          c.DealID,
		UserID:          c.UserID,
		Quantity:        c.Quantity,
		DeliveryMethod:  c.DeliveryMethod,
		Warehouse:       c.Warehouse,
		Status:          c.Status,
		PayoutRate:      c.PayoutRate,
		IsVip:           c.IsVip,
		EstimatedPayout: pricing.InvoiceAmount(c.Quantity, c.PayoutRate),
		ShippedAt:       c.ShippedAt,
		DeliveredAt:     c.DeliveredAt,
		FulfilledAt:     c.FulfilledAt,
		CancelledAt:     c.CancelledAt,
		Invoice:         InvoiceFromModel(c.Invoice),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if t := c.Tracking; t != nil {
		dto.Tracking = &TrackingDTO{
			TrackingNumber: t.TrackingNumber,
			Carrier:        t.Carrier,
			LastStatus:     t.LastStatus,
			LastLocation:   t.LastLocation,
			LastCheckedAt:  t.LastCheckedAt,
		}
	}
	if lr := c.LabelRequest; lr != nil {
		dto.LabelRequest = &LabelRequestDTO{
			ID:         lr.ID,
			Status:     lr.Status,
			LabelURL:   lr.LabelURL,
			LabelFiles: lr.LabelFiles,
			Notes:      lr.Notes,
			ReviewedAt: lr.ReviewedAt,
			CreatedAt:  lr.CreatedAt,
		}
	}
	return dto
}

func InvoiceFromModel(i *models.Invoice) *InvoiceDTO {
	if i == nil {
		return nil
	}
	return &InvoiceDTO{
		ID:            i.ID,
		CommitmentID:  i.CommitmentID,
		UserID:        i.UserID,
		InvoiceURL:    i.SkynovaURL,
		Amount:        i.Amount,
		Status:        i.Status,
		CheckNumber:   i.CheckNumber,
		CheckImageURL: i.CheckImageURL,
		Notes:         i.Notes,
		PaidAt:        i.PaidAt,
		CreatedAt:     i.CreatedAt,
	}
}

// CreateInput is what a vendor may supply for a new commitment. Rates and
// VIP flags are resolved server-side and have no field here.
type CreateInput struct {
	DealID   uuid.UUID
	Quantity int
}

type SetDeliveryInput struct {
	Method        enums.DeliveryMethod
	WarehouseCode string
}

type TrackingStatusInput struct {
	LastStatus   *string
	LastLocation *string
}

type ReviewLabelInput struct {
	Status     enums.LabelRequestStatus
	LabelURL   *string
	LabelFiles []string
	Notes      *string
}

// FulfillInput carries the optional invoice. Amount overrides the computed
// default only when positive.
type FulfillInput struct {
	InvoiceURL *string
	Amount     *decimal.Decimal
	Notes      *string
}

// AdminStatusInput drives the staff status endpoint.
type AdminStatusInput struct {
	Status enums.CommitmentStatus
	FulfillInput
}

type MarkPaidInput struct {
	CheckNumber   *string
	CheckImageURL *string
	Notes         *string
}

type ListParams struct {
	UserID *uuid.UUID
	DealID *uuid.UUID
	Status *enums.CommitmentStatus
	Cursor string
	Limit  int
}
