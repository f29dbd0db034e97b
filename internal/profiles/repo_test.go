package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/vendorpool-backend/internal/testdb"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRepositoryRoleFor(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	admin := models.Profile{ID: uuid.New(), Email: "admin@example.com", Role: enums.UserRoleAdmin}
	require.NoError(t, db.Create(&admin).Error)

	role, err := repo.RoleFor(ctx, admin.ID)
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleAdmin, role)

	_, err = repo.RoleFor(ctx, uuid.New())
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRepositoryUpdateMembership(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	profile := models.Profile{ID: uuid.New(), Email: "vendor@example.com", Role: enums.UserRoleSeller}
	require.NoError(t, db.Create(&profile).Error)

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateMembership(ctx, profile.ID, true, checked))

	loaded, err := repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.True(t, loaded.IsExclusiveMember)
	require.NotNil(t, loaded.MembershipCheckedAt)
	require.True(t, loaded.MembershipCheckedAt.Equal(checked))

	rows, err := repo.FindByIDs(ctx, []uuid.UUID{profile.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestFromModelRendersDisplayID(t *testing.T) {
	dto := FromModel(&models.Profile{ID: uuid.New(), VendorNumber: 42, Role: enums.UserRoleSeller})
	require.Equal(t, "U-00042", dto.DisplayID)
	require.Nil(t, FromModel(nil))
}
