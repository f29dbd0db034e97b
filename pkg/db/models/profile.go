package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// Profile mirrors an authenticated account. The ID matches the identity
// provider's subject claim.
type Profile struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	VendorNumber        int64          `gorm:"column:vendor_number;not null;default:(-)"`
	Email               string         `gorm:"column:email;not null"`
	FullName            *string        `gorm:"column:full_name"`
	Role                enums.UserRole `gorm:"column:role;type:user_role;not null;default:'SELLER'"`
	DiscordUserID       *string        `gorm:"column:discord_user_id"`
	IsExclusiveMember   bool           `gorm:"column:is_exclusive_member;not null;default:false"`
	MembershipCheckedAt *time.Time     `gorm:"column:membership_checked_at"`
	BusinessName        *string        `gorm:"column:business_name"`
	PayoutDetails       *string        `gorm:"column:payout_details"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
