package warehouses

import (
	"context"
	"strings"

	"github.com/angelmondragon/vendorpool-backend/internal/repo"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads warehouse configuration. Warehouses are managed out of
// band; this layer never writes them.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to warehouse reads.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByCode loads a warehouse by its public code. Inactive warehouses are
// returned too; callers decide whether they are usable.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.DB(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// List returns warehouses ordered by code.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Warehouse, error) {
	query := r.DB(ctx).Model(&models.Warehouse{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Warehouse
	if err := query.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
