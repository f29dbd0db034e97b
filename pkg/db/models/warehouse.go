package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a receiving location. Rows are deactivated, never deleted,
// because commitments reference them by code.
type Warehouse struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string    `gorm:"column:code;not null;uniqueIndex"`
	Name          string    `gorm:"column:name;not null"`
	Address       *string   `gorm:"column:address"`
	AllowDropOff  bool      `gorm:"column:allow_drop_off;not null;default:false"`
	AllowShipping bool      `gorm:"column:allow_shipping;not null"`
	IsActive      bool      `gorm:"column:is_active;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
