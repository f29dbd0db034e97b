package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/vendorpool-backend/internal/repo"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes profile persistence. Profiles are provisioned by the
// identity provider; this service reads them and maintains the cached
// membership flag.
type Repository struct {
	repo.Base
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a profile by the identity subject.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.DB(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByIDWithTx loads a profile using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Profile, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var profile models.Profile
	if err := tx.First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByIDs loads every profile in ids, in no particular order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Profile
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RoleFor returns the platform role for the user. A missing profile maps to
// CodeNotFound so the auth middleware can reject the token.
func (r *Repository) RoleFor(ctx context.Context, userID uuid.UUID) (enums.UserRole, error) {
	var profile models.Profile
	err := r.DB(ctx).Select("id", "role").First(&profile, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return "", err
	}
	if !profile.Role.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "profile role not recognized")
	}
	return profile.Role, nil
}

// UpdateMembership stores the latest guild membership check.
func (r *Repository) UpdateMembership(ctx context.Context, id uuid.UUID, isMember bool, checkedAt time.Time) error {
	return r.DB(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"is_exclusive_member":   isMember,
			"membership_checked_at": checkedAt,
		}).Error
}
