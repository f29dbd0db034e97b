package profiles

import (
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/types"
	"github.com/google/uuid"
)

// VendorDTO is the compact vendor view embedded in staff listings.
type VendorDTO struct {
	ID                uuid.UUID      `json:"id"`
	DisplayID         string         `json:"displayId"`
	Email             string         `json:"email"`
	FullName          *string        `json:"fullName,omitempty"`
	BusinessName      *string        `json:"businessName,omitempty"`
	Role              enums.UserRole `json:"role"`
	IsExclusiveMember bool           `json:"isExclusiveMember"`
}

func FromModel(p *models.Profile) *VendorDTO {
	if p == nil {
		return nil
	}
	return &VendorDTO{
		ID:                p.ID,
		DisplayID:         types.FormatVendorID(p.VendorNumber),
		Email:             p.Email,
		FullName:          p.FullName,
		BusinessName:      p.BusinessName,
		Role:              p.Role,
		IsExclusiveMember: p.IsExclusiveMember,
	}
}
