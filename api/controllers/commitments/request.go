package commitments

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalcommitments "github.com/angelmondragon/vendorpool-backend/internal/commitments"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
)

// createCommitmentRequest accepts payoutRate and isVip so older clients are
// not rejected, but the values are never read; the rate is always resolved
// server side.
type createCommitmentRequest struct {
	DealID     uuid.UUID `json:"dealId" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,gte=1"`
	PayoutRate any       `json:"payoutRate"`
	IsVip      any       `json:"isVip"`
}

func (r createCommitmentRequest) toInput() internalcommitments.CreateInput {
	return internalcommitments.CreateInput{DealID: r.DealID, Quantity: r.Quantity}
}

type setDeliveryRequest struct {
	DeliveryMethod string `json:"deliveryMethod" validate:"required"`
	WarehouseCode  string `json:"warehouseCode" validate:"required,max=16"`
}

func (r setDeliveryRequest) toInput() (internalcommitments.SetDeliveryInput, error) {
	method, err := enums.ParseDeliveryMethod(strings.ToUpper(strings.TrimSpace(r.DeliveryMethod)))
	if err != nil {
		return internalcommitments.SetDeliveryInput{}, invalidField("deliveryMethod", "invalid delivery method")
	}
	return internalcommitments.SetDeliveryInput{
		Method:        method,
		WarehouseCode: strings.ToUpper(strings.TrimSpace(r.WarehouseCode)),
	}, nil
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type submitTrackingRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"required,max=64"`
}

type labelRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

type adminStatusRequest struct {
	Status     string           `json:"status" validate:"required"`
	InvoiceURL *string          `json:"invoiceUrl" validate:"omitempty,url"`
	Amount     *decimal.Decimal `json:"amount"`
	Notes      *string          `json:"notes" validate:"omitempty,max=2000"`
}

func (r adminStatusRequest) toInput() (internalcommitments.AdminStatusInput, error) {
	status, err := enums.ParseCommitmentStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
	if err != nil {
		return internalcommitments.AdminStatusInput{}, invalidField("status", "invalid commitment status")
	}
	return internalcommitments.AdminStatusInput{
		Status: status,
		FulfillInput: internalcommitments.FulfillInput{
			InvoiceURL: r.InvoiceURL,
			Amount:     r.Amount,
			Notes:      r.Notes,
		},
	}, nil
}

type trackingStatusRequest struct {
	LastStatus   *string `json:"lastStatus" validate:"omitempty,max=255"`
	LastLocation *string `json:"lastLocation" validate:"omitempty,max=255"`
}

type reviewLabelRequest struct {
	Status     string   `json:"status" validate:"required"`
	LabelURL   *string  `json:"labelUrl" validate:"omitempty,url"`
	LabelFiles []string `json:"labelFiles" validate:"omitempty,dive,url"`
	Notes      *string  `json:"notes" validate:"omitempty,max=2000"`
}

func (r reviewLabelRequest) toInput() (internalcommitments.ReviewLabelInput, error) {
	status, err := enums.ParseLabelRequestStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
	if err != nil {
		return internalcommitments.ReviewLabelInput{}, invalidField("status", "invalid label request status")
	}
	return internalcommitments.ReviewLabelInput{
		Status:     status,
		LabelURL:   r.LabelURL,
		LabelFiles: r.LabelFiles,
		Notes:      r.Notes,
	}, nil
}

type markPaidRequest struct {
	CheckNumber   *string `json:"checkNumber" validate:"omitempty,max=64"`
	CheckImageURL *string `json:"checkImageUrl" validate:"omitempty,url"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

func (r markPaidRequest) toInput() internalcommitments.MarkPaidInput {
	return internalcommitments.MarkPaidInput{
		CheckNumber:   r.CheckNumber,
		CheckImageURL: r.CheckImageURL,
		Notes:         r.Notes,
	}
}

func invalidField(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
}
