package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// Invoice records the payout owed for a fulfilled commitment.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommitmentID  uuid.UUID           `gorm:"column:commitment_id;type:uuid;not null;uniqueIndex"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	SkynovaURL    string              `gorm:"column:skynova_url;not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'PENDING'"`
	CheckNumber   *string             `gorm:"column:check_number"`
	CheckImageURL *string             `gorm:"column:check_image_url"`
	Notes         *string             `gorm:"column:notes"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
