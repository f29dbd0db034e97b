package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// Tracking holds the carrier tracking attached to a shipped commitment.
type Tracking struct {
	ID             uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommitmentID   uuid.UUID     `gorm:"column:commitment_id;type:uuid;not null;uniqueIndex"`
	TrackingNumber string        `gorm:"column:tracking_number;not null"`
	Carrier        enums.Carrier `gorm:"column:carrier;type:carrier;not null;default:'UNKNOWN'"`
	LastStatus     *string       `gorm:"column:last_status"`
	LastLocation   *string       `gorm:"column:last_location"`
	LastCheckedAt  *time.Time    `gorm:"column:last_checked_at"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
