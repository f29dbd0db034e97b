package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// Deal is an admin-defined buy offer that vendors commit quantities against.
// Deletes are soft so cancelled commitments keep their deal reference.
type Deal struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealNumber     int64            `gorm:"column:deal_number;not null;default:(-)"`
	Slug           string           `gorm:"column:slug;not null"`
	Title          string           `gorm:"column:title;not null"`
	Description    *string          `gorm:"column:description"`
	ImageURL       *string          `gorm:"column:image_url"`
	RetailPrice    decimal.Decimal  `gorm:"column:retail_price;type:numeric(12,2);not null"`
	Payout         decimal.Decimal  `gorm:"column:payout;type:numeric(12,2);not null"`
	PriceType      enums.PriceType  `gorm:"column:price_type;type:price_type;not null"`
	LimitPerVendor *int             `gorm:"column:limit_per_vendor"`
	FreeLabelMin   *int             `gorm:"column:free_label_min"`
	IsExclusive    bool             `gorm:"column:is_exclusive;not null;default:false"`
	ExclusivePrice *decimal.Decimal `gorm:"column:exclusive_price;type:numeric(12,2)"`
	Deadline       *time.Time       `gorm:"column:deadline"`
	Status         enums.DealStatus `gorm:"column:status;type:deal_status;not null;default:'DRAFT'"`
	CreatedBy      *uuid.UUID       `gorm:"column:created_by;type:uuid"`
	ActivatedAt    *time.Time       `gorm:"column:activated_at"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}
