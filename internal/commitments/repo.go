package commitments

import (
	"context"

	"github.com/angelmondragon/vendorpool-backend/internal/repo"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists commitments and their owned tracking, label request
// and invoice rows.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to commitment operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListFilter narrows commitment listings. Nil fields are not applied.
type ListFilter struct {
	UserID *uuid.UUID
	DealID *uuid.UUID
	Status *enums.CommitmentStatus
	Cursor *pagination.Cursor
	Limit  int
}

func withAggregate(db *gorm.DB) *gorm.DB {
	return db.Preload("Tracking").Preload("LabelRequest").Preload("Invoice")
}

// CreateWithTx inserts a commitment.
func (r *Repository) CreateWithTx(tx *gorm.DB, commitment *models.Commitment) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if commitment.ID == uuid.Nil {
		commitment.ID = uuid.New()
	}
	return tx.Omit(clause.Associations).Create(commitment).Error
}

// FindByID loads a commitment with its owned records.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error) {
	var commitment models.Commitment
	if err := withAggregate(r.DB(ctx)).First(&commitment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &commitment, nil
}

// FindByIDWithTx loads a commitment with its owned records inside tx.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Commitment, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var commitment models.Commitment
	if err := withAggregate(tx).First(&commitment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &commitment, nil
}

// ListForVendorDealWithTx returns every commitment the vendor holds on the
// deal, cancelled ones included.
func (r *Repository) ListForVendorDealWithTx(tx *gorm.DB, userID, dealID uuid.UUID) ([]models.Commitment, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var rows []models.Commitment
	err := tx.Where("user_id = ? AND deal_id = ?", userID, dealID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// List returns a keyset page of commitments with their owned records.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Commitment, error) {
	query := withAggregate(r.DB(ctx)).Model(&models.Commitment{})
	if filter.UserID != nil {
		query = query.Where("commitments.user_id = ?", *filter.UserID)
	}
	if filter.DealID != nil {
		query = query.Where("commitments.deal_id = ?", *filter.DealID)
	}
	if filter.Status != nil {
		query = query.Where("commitments.status = ?", *filter.Status)
	}
	var rows []models.Commitment
	if err := pagination.Apply(query, "commitments", filter.Cursor, filter.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateWithTx persists the commitment row only. commitment_number is an
// identity column and owned records are written through their own methods.
func (r *Repository) UpdateWithTx(tx *gorm.DB, commitment *models.Commitment) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Omit(clause.Associations, "commitment_number", "created_at").Save(commitment).Error
}

// CreateTrackingWithTx attaches tracking to a commitment.
func (r *Repository) CreateTrackingWithTx(tx *gorm.DB, tracking *models.Tracking) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if tracking.ID == uuid.Nil {
		tracking.ID = uuid.New()
	}
	return tx.Create(tracking).Error
}

// UpdateTrackingWithTx persists carrier mirror fields.
func (r *Repository) UpdateTrackingWithTx(tx *gorm.DB, tracking *models.Tracking) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Omit("created_at").Save(tracking).Error
}

// DeleteTrackingWithTx removes the tracking row for a commitment.
func (r *Repository) DeleteTrackingWithTx(tx *gorm.DB, commitmentID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Where("commitment_id = ?", commitmentID).Delete(&models.Tracking{}).Error
}

// CreateLabelRequestWithTx inserts a label request.
func (r *Repository) CreateLabelRequestWithTx(tx *gorm.DB, request *models.LabelRequest) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	return tx.Create(request).Error
}

// UpdateLabelRequestWithTx persists a reviewed label request.
func (r *Repository) UpdateLabelRequestWithTx(tx *gorm.DB, request *models.LabelRequest) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Omit("created_at").Save(request).Error
}

// CreateInvoiceWithTx inserts the invoice for a fulfilled commitment.
func (r *Repository) CreateInvoiceWithTx(tx *gorm.DB, invoice *models.Invoice) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	return tx.Create(invoice).Error
}

// FindInvoiceByIDWithTx loads an invoice inside tx.
func (r *Repository) FindInvoiceByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Invoice, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var invoice models.Invoice
	if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// UpdateInvoiceWithTx persists invoice bookkeeping fields.
func (r *Repository) UpdateInvoiceWithTx(tx *gorm.DB, invoice *models.Invoice) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Omit("created_at").Save(invoice).Error
}
