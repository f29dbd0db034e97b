package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// LabelRequest is a vendor's request for a prepaid shipping label.
type LabelRequest struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommitmentID uuid.UUID                `gorm:"column:commitment_id;type:uuid;not null;uniqueIndex"`
	Status       enums.LabelRequestStatus `gorm:"column:status;type:label_request_status;not null;default:'PENDING'"`
	LabelURL     *string                  `gorm:"column:label_url"`
	LabelFiles   []string                 `gorm:"column:label_files;type:jsonb;serializer:json"`
	Notes        *string                  `gorm:"column:notes"`
	ReviewedBy   *uuid.UUID               `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt   *time.Time               `gorm:"column:reviewed_at"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
