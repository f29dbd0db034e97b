package deals

import (
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealDTO is the transport shape for a deal. ViewerRate and ViewerIsVip are
// filled only on single-deal reads for an identified viewer.
type DealDTO struct {
	ID             uuid.UUID        `json:"id"`
	DisplayID      string           `json:"displayId"`
	Slug           string           `json:"slug"`
	Title          string           `json:"title"`
	Description    *string          `json:"description,omitempty"`
	ImageURL       *string          `json:"imageUrl,omitempty"`
	RetailPrice    decimal.Decimal  `json:"retailPrice"`
	Payout         decimal.Decimal  `json:"payout"`
	PriceType      enums.PriceType  `json:"priceType"`
	LimitPerVendor *int             `json:"limitPerVendor"`
	FreeLabelMin   *int             `json:"freeLabelMin"`
	IsExclusive    bool             `json:"isExclusive"`
	ExclusivePrice *decimal.Decimal `json:"exclusivePrice"`
	Deadline       *time.Time       `json:"deadline"`
	Status         enums.DealStatus `json:"status"`
	ActivatedAt    *time.Time       `json:"activatedAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	ViewerRate     *decimal.Decimal `json:"yourPayoutRate,omitempty"`
	ViewerIsVip    *bool            `json:"yourIsVip,omitempty"`
}

func FromModel(d *models.Deal) *DealDTO {
	if d == nil {
		return nil
	}
	return &DealDTO{
		ID:             d.ID,
		DisplayID:      types.FormatDealID(d.DealNumber),
		Slug:           d.Slug,
		Title:          d.Title,
		Description:    d.Description,
		ImageURL:       d.ImageURL,
		RetailPrice:    d.RetailPrice,
		Payout:         d.Payout,
		PriceType:      d.PriceType,
		LimitPerVendor: d.LimitPerVendor,
		FreeLabelMin:   d.FreeLabelMin,
		IsExclusive:    d.IsExclusive,
		ExclusivePrice: d.ExclusivePrice,
		Deadline:       d.Deadline,
		Status:         d.Status,
		ActivatedAt:    d.ActivatedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// CreateDealInput captures the admin-supplied fields for a new deal. The
// price type is always derived, never accepted.
type CreateDealInput struct {
	Title          string
	Description    *string
	ImageURL       *string
	RetailPrice    decimal.Decimal
	Payout         decimal.Decimal
	LimitPerVendor *int
	FreeLabelMin   *int
	IsExclusive    bool
	ExclusivePrice *decimal.Decimal
	Deadline       *time.Time
	Status         enums.DealStatus
}

// UpdateDealInput carries a partial edit. Nullable fields distinguish
// "leave alone" from "clear".
type UpdateDealInput struct {
	Title          *string
	Description    types.Nullable[string]
	ImageURL       types.Nullable[string]
	RetailPrice    *decimal.Decimal
	Payout         *decimal.Decimal
	LimitPerVendor types.Nullable[int]
	FreeLabelMin   types.Nullable[int]
	IsExclusive    *bool
	ExclusivePrice types.Nullable[decimal.Decimal]
	Deadline       types.Nullable[time.Time]
	Status         *enums.DealStatus
}

// ListParams drives deal listings.
type ListParams struct {
	Status         *enums.DealStatus
	IncludeExpired bool
	Cursor         string
	Limit          int
}
