package adapters

import (
	"context"
	"testing"
	"time"

	"courier-portal/internal/core/shipping"
	"courier-portal/internal/features/shipments/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.CreateUser(ctx, &domain.User{Email: "Demo@CourierPortal.dev", Name: "Demo"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.FindUserByEmail(ctx, "demo@courierportal.dev")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.FindUserByEmail(ctx, "nobody@courierportal.dev")
	require.NoError(t, err)
	assert.Nil(t, missing)

	name := "Renamed"
	updated, err := repo.UpdateUser(ctx, created.ID, domain.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	unknown, err := repo.UpdateUser(ctx, "nope", domain.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, unknown)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))
	require.NoError(t, repo.UpdateLastLogin(ctx, "nope", at))

	byID, err := repo.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLogin)
	assert.Equal(t, at, *byID.LastLogin)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "SC100001DEMO", Status: shipping.StatusPending}))

	p, err := repo.FindPackageByTrackingNumber(ctx, "SC100001DEMO")
	require.NoError(t, err)
	p.Status = shipping.StatusDelivered

	again, err := repo.FindPackageByTrackingNumber(ctx, "SC100001DEMO")
	require.NoError(t, err)
	assert.Equal(t, shipping.StatusPending, again.Status)
}

func TestMemoryRepository_Packages(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "SC000001AAAA", Status: shipping.StatusPending}))
	require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "SC000002BBBB", Status: shipping.StatusPending}))

	t.Run("Upsert", func(t *testing.T) {
		require.NoError(t, repo.SavePackage(ctx, &domain.Package{TrackingNumber: "SC000001AAAA", Status: shipping.StatusInTransit}))
		pkgs, err := repo.ListPackages(ctx)
		require.NoError(t, err)
		require.Len(t, pkgs, 2)
		assert.Equal(t, shipping.StatusInTransit, pkgs[0].Status)
	})

	t.Run("AddTrackingEvent", func(t *testing.T) {
		updated, err := repo.AddTrackingEvent(ctx, "sc000002bbbb", domain.TrackingEvent{Status: shipping.StatusPickedUp, Description: "Picked up"})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Len(t, updated.Events, 1)

		missing, err := repo.AddTrackingEvent(ctx, "UNKNOWN", domain.TrackingEvent{})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ReplacePackages", func(t *testing.T) {
		repo.ReplacePackages([]domain.Package{{TrackingNumber: "SC999999ZZZZ"}})
		pkgs, err := repo.ListPackages(ctx)
		require.NoError(t, err)
		require.Len(t, pkgs, 1)
		assert.Equal(t, "SC999999ZZZZ", pkgs[0].TrackingNumber)
	})
}
