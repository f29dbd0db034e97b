package warehouses

import (
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/google/uuid"
)

// WarehouseDTO is the public view of a receiving location.
type WarehouseDTO struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Address       *string   `json:"address,omitempty"`
	AllowDropOff  bool      `json:"allowDropOff"`
	AllowShipping bool      `json:"allowShipping"`
	IsActive      bool      `json:"isActive"`
}

// FromModel maps a warehouse row into its DTO.
func FromModel(w models.Warehouse) WarehouseDTO {
	return WarehouseDTO{
		ID:            w.ID,
		Code:          w.Code,
		Name:          w.Name,
		Address:       w.Address,
		AllowDropOff:  w.AllowDropOff,
		AllowShipping: w.AllowShipping,
		IsActive:      w.IsActive,
	}
}

// Supports reports whether the warehouse accepts the delivery method.
func Supports(w models.Warehouse, method enums.DeliveryMethod) bool {
	if !w.IsActive {
		return false
	}
	switch method {
	case enums.DeliveryMethodDropOff:
		return w.AllowDropOff
	case enums.DeliveryMethodShip:
		return w.AllowShipping
	default:
		return false
	}
}
