package deals

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	internaldeals "github.com/angelmondragon/vendorpool-backend/internal/deals"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/types"
)

type createDealRequest struct {
	Title          string           `json:"title" validate:"required,max=200"`
	Description    *string          `json:"description" validate:"omitempty,max=5000"`
	ImageURL       *string          `json:"imageUrl" validate:"omitempty,url"`
	RetailPrice    decimal.Decimal  `json:"retailPrice"`
	Payout         decimal.Decimal  `json:"payout"`
	LimitPerVendor *int             `json:"limitPerVendor" validate:"omitempty,gte=0"`
	FreeLabelMin   *int             `json:"freeLabelMin" validate:"omitempty,gte=1"`
	IsExclusive    bool             `json:"isExclusive"`
	ExclusivePrice *decimal.Decimal `json:"exclusivePrice"`
	Deadline       *time.Time       `json:"deadline"`
	Status         string           `json:"status"`
}

func (r createDealRequest) toInput() (internaldeals.CreateDealInput, error) {
	input := internaldeals.CreateDealInput{
		Title:          strings.TrimSpace(r.Title),
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		RetailPrice:    r.RetailPrice,
		Payout:         r.Payout,
		LimitPerVendor: r.LimitPerVendor,
		FreeLabelMin:   r.FreeLabelMin,
		IsExclusive:    r.IsExclusive,
		ExclusivePrice: r.ExclusivePrice,
		Deadline:       r.Deadline,
	}
	if status := strings.TrimSpace(r.Status); status != "" {
		parsed, err := enums.ParseDealStatus(strings.ToUpper(status))
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid deal status").WithDetails(map[string]any{"field": "status"})
		}
		input.Status = parsed
	}
	return input, nil
}

type updateDealRequest struct {
	Title          *string                         `json:"title" validate:"omitempty,min=1,max=200"`
	Description    types.Nullable[string]          `json:"description"`
	ImageURL       types.Nullable[string]          `json:"imageUrl"`
	RetailPrice    *decimal.Decimal                `json:"retailPrice"`
	Payout         *decimal.Decimal                `json:"payout"`
	LimitPerVendor types.Nullable[int]             `json:"limitPerVendor"`
	FreeLabelMin   types.Nullable[int]             `json:"freeLabelMin"`
	IsExclusive    *bool                           `json:"isExclusive"`
	ExclusivePrice types.Nullable[decimal.Decimal] `json:"exclusivePrice"`
	Deadline       types.Nullable[time.Time]       `json:"deadline"`
	Status         *string                         `json:"status"`
}

func (r updateDealRequest) toInput() (internaldeals.UpdateDealInput, error) {
	input := internaldeals.UpdateDealInput{
		Title:          r.Title,
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		RetailPrice:    r.RetailPrice,
		Payout:         r.Payout,
		LimitPerVendor: r.LimitPerVendor,
		FreeLabelMin:   r.FreeLabelMin,
		IsExclusive:    r.IsExclusive,
		ExclusivePrice: r.ExclusivePrice,
		Deadline:       r.Deadline,
	}
	if r.Status != nil {
		parsed, err := enums.ParseDealStatus(strings.ToUpper(strings.TrimSpace(*r.Status)))
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid deal status").WithDetails(map[string]any{"field": "status"})
		}
		input.Status = &parsed
	}
	return input, nil
}
