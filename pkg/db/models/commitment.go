package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// WarehouseTBD marks a commitment whose delivery has not been chosen yet.
const WarehouseTBD = "TBD"

// Commitment is a vendor's claim against a deal. Tracking, LabelRequest and
// Invoice are owned 1:1 records keyed by commitment_id.
type Commitment struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommitmentNumber int64                  `gorm:"column:commitment_number;not null;default:(-)"`
	DealID           uuid.UUID              `gorm:"column:deal_id;type:uuid;not null"`
	UserID           uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Quantity         int                    `gorm:"column:quantity;not null"`
	DeliveryMethod   enums.DeliveryMethod   `gorm:"column:delivery_method;type:delivery_method;not null;default:'SHIP'"`
	Warehouse        string                 `gorm:"column:warehouse;not null;default:'TBD'"`
	Status           enums.CommitmentStatus `gorm:"column:status;type:commitment_status;not null;default:'PENDING'"`
	PayoutRate       decimal.Decimal        `gorm:"column:payout_rate;type:numeric(12,2);not null"`
	IsVip            bool                   `gorm:"column:is_vip;not null;default:false"`
	ShippedAt        *time.Time             `gorm:"column:shipped_at"`
	DeliveredAt      *time.Time             `gorm:"column:delivered_at"`
	FulfilledAt      *time.Time             `gorm:"column:fulfilled_at"`
	FulfilledBy      *uuid.UUID             `gorm:"column:fulfilled_by;type:uuid"`
	CancelledAt      *time.Time             `gorm:"column:cancelled_at"`
	CancelledBy      *uuid.UUID             `gorm:"column:cancelled_by;type:uuid"`
	Tracking         *Tracking              `gorm:"foreignKey:CommitmentID"`
	LabelRequest     *LabelRequest          `gorm:"foreignKey:CommitmentID"`
	Invoice          *Invoice               `gorm:"foreignKey:CommitmentID"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
