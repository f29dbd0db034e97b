package warehouses

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"gorm.io/gorm"
)

type warehouseRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Warehouse, error)
	List(ctx context.Context, activeOnly bool) ([]models.Warehouse, error)
}

// Service exposes warehouse lookups to handlers and the commitment service.
type Service interface {
	List(ctx context.Context) ([]WarehouseDTO, error)
	ResolveForDelivery(ctx context.Context, code string, method enums.DeliveryMethod) (*models.Warehouse, error)
}

type service struct {
	repo warehouseRepository
}

// NewService builds the warehouse service.
func NewService(repo warehouseRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]WarehouseDTO, error) {
	rows, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	out := make([]WarehouseDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// ResolveForDelivery loads the warehouse and verifies it accepts method.
// Unsupported combinations are rejected rather than corrected.
func (s *service) ResolveForDelivery(ctx context.Context, code string, method enums.DeliveryMethod) (*models.Warehouse, error) {
	if code == "" || code == models.WarehouseTBD {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse code is required")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	warehouse, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	if !Supports(*warehouse, method) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("warehouse %s does not accept %s", warehouse.Code, method)).
			WithDetails(map[string]any{
				"warehouse":      warehouse.Code,
				"deliveryMethod": method.String(),
				"allowDropOff":   warehouse.AllowDropOff,
				"allowShipping":  warehouse.AllowShipping,
				"isActive":       warehouse.IsActive,
			})
	}
	return warehouse, nil
}
