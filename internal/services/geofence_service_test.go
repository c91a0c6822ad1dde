package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

func TestGeofenceService_Create(t *testing.T) {
	db := setupTestDB(t)
	service := NewGeofenceService(db)

	t.Run("create circle", func(t *testing.T) {
		fence := &models.Geofence{SiteID: 1, Name: "London", Kind: models.GeofenceKindCircle, CenterLat: 51.505, CenterLon: -0.09, RadiusMeters: 5000, IsActive: true}
		require.NoError(t, service.Create(fence))
		assert.NotEmpty(t, fence.UUID)
	})

	t.Run("create polygon", func(t *testing.T) {
		fence := &models.Geofence{SiteID: 1, Name: "Campus", Kind: models.GeofenceKindPolygon, IsActive: true}
		require.NoError(t, fence.SetRingPoints([][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}}))
		require.NoError(t, service.Create(fence))
	})

	t.Run("reject zero radius circle", func(t *testing.T) {
		err := service.Create(&models.Geofence{SiteID: 1, Kind: models.GeofenceKindCircle, RadiusMeters: 0})
		assert.ErrorIs(t, err, ErrInvalidCircle)
	})

	t.Run("reject degenerate ring at configuration time", func(t *testing.T) {
		fence := &models.Geofence{SiteID: 1, Kind: models.GeofenceKindPolygon}
		require.NoError(t, fence.SetRingPoints([][2]float64{{0, 0}, {1, 1}}))
		assert.ErrorIs(t, service.Create(fence), ErrDegenerateRing)
	})

	t.Run("reject out-of-range coordinates", func(t *testing.T) {
		err := service.Create(&models.Geofence{SiteID: 1, Kind: models.GeofenceKindCircle, CenterLat: 91, RadiusMeters: 100})
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("reject unknown kind", func(t *testing.T) {
		err := service.Create(&models.Geofence{SiteID: 1, Kind: "hexagon"})
		assert.ErrorIs(t, err, ErrInvalidGeofenceKind)
	})
}

func TestGeofenceService_UpdateDelete(t *testing.T) {
	db := setupTestDB(t)
	service := NewGeofenceService(db)

	fence := &models.Geofence{SiteID: 1, Kind: models.GeofenceKindCircle, CenterLat: 51.505, CenterLon: -0.09, RadiusMeters: 5000, IsActive: true}
	require.NoError(t, service.Create(fence))

	t.Run("update validates the new shape", func(t *testing.T) {
		err := service.Update(fence.ID, &models.Geofence{Kind: models.GeofenceKindCircle, RadiusMeters: -10})
		assert.ErrorIs(t, err, ErrInvalidCircle)
	})

	t.Run("update applies changes", func(t *testing.T) {
		require.NoError(t, service.Update(fence.ID, &models.Geofence{Kind: models.GeofenceKindCircle, CenterLat: 40.7, CenterLon: -74.0, RadiusMeters: 1000, IsActive: false}))
		updated, err := service.GetByID(fence.ID)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, updated.RadiusMeters)
		assert.False(t, updated.IsActive)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, service.Delete(fence.ID))
		assert.ErrorIs(t, service.Delete(fence.ID), ErrGeofenceNotFound)
	})
}

func TestGeofenceService_RejectsNonFiniteValues(t *testing.T) {
	db := setupTestDB(t)
	service := NewGeofenceService(db)

	t.Run("NaN center", func(t *testing.T) {
		fence := &models.Geofence{SiteID: 1, Kind: models.GeofenceKindCircle, CenterLat: math.NaN(), CenterLon: math.NaN(), RadiusMeters: 500, IsActive: true}
		assert.ErrorIs(t, service.Create(fence), ErrInvalidCoordinate)
	})

	t.Run("NaN radius", func(t *testing.T) {
		fence := &models.Geofence{SiteID: 1, Kind: models.GeofenceKindCircle, CenterLat: 51.5, CenterLon: -0.09, RadiusMeters: math.NaN(), IsActive: true}
		assert.ErrorIs(t, service.Create(fence), ErrInvalidCircle)
	})
}
