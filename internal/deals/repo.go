package deals

import (
	"context"
	"time"

	"github.com/angelmondragon/vendorpool-backend/internal/repo"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles deal persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to deal operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListFilter narrows deal listings. Empty Statuses means every status.
type ListFilter struct {
	Statuses []enums.DealStatus
	Cursor   *pagination.Cursor
	Limit    int
}

// CreateWithTx inserts a deal using the provided transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, deal *models.Deal) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	return tx.Create(deal).Error
}

// FindByID loads a deal by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	if err := r.DB(ctx).First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// FindByIDWithTx loads a deal using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Deal, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var deal models.Deal
	if err := tx.First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// SlugExists reports whether slug is already taken.
func (r *Repository) SlugExists(tx *gorm.DB, slug string) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	var count int64
	if err := tx.Unscoped().Model(&models.Deal{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateWithTx persists every mutable column of deal. deal_number is an
// identity column and cannot be written.
func (r *Repository) UpdateWithTx(tx *gorm.DB, deal *models.Deal) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Omit("deal_number", "created_at").Save(deal).Error
}

// List returns a keyset page of deals, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Deal, error) {
	query := r.DB(ctx).Model(&models.Deal{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	var rows []models.Deal
	if err := pagination.Apply(query, "deals", filter.Cursor, filter.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountBlockingCommitments counts commitments that prevent a hard delete,
// i.e. anything that has not been cancelled.
func (r *Repository) CountBlockingCommitments(tx *gorm.DB, dealID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	var count int64
	err := tx.Model(&models.Commitment{}).
		Where("deal_id = ? AND status <> ?", dealID, enums.CommitmentStatusCancelled).
		Count(&count).Error
	return count, err
}

// DeleteWithTx soft-deletes the deal. Cancelled commitments stay in place.
// Callers must have checked CountBlockingCommitments in the same transaction.
func (r *Repository) DeleteWithTx(tx *gorm.DB, dealID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	res := tx.Delete(&models.Deal{}, "id = ?", dealID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindOverdue returns ACTIVE deals whose deadline is at or before now.
func (r *Repository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]models.Deal, error) {
	var rows []models.Deal
	err := r.DB(ctx).
		Where("status = ? AND deadline IS NOT NULL AND deadline <= ?", enums.DealStatusActive, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TransitionWithTx moves a deal from one status to another only if it is
// still in from. It reports whether a row changed.
func (r *Repository) TransitionWithTx(tx *gorm.DB, id uuid.UUID, from, to enums.DealStatus) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Deal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
