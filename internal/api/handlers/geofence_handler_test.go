package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

func newGeofenceRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewGeofenceHandler(db)
	r := gin.New()
	r.Use(actAs(1, "admin"))
	r.POST("/sites/:id/geofences", h.Create)
	r.GET("/sites/:id/geofences", h.List)
	r.PUT("/geofences/:id", h.Update)
	r.DELETE("/geofences/:id", h.Delete)
	return r
}

func TestGeofenceHandlerCreateCircle(t *testing.T) {
	db := OpenTestDB(t)
	r := newGeofenceRouter(db)
	site := createTestSite(t, db)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/sites/%d/geofences", site.ID), gin.H{
		"name":          "HQ",
		"kind":          "circle",
		"center_lat":    51.5007,
		"center_lon":    -0.1246,
		"radius_meters": 500,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var fence models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fence))
	assert.NotEmpty(t, fence.UUID)
	assert.True(t, fence.IsActive)
}

func TestGeofenceHandlerCreatePolygon(t *testing.T) {
	db := OpenTestDB(t)
	r := newGeofenceRouter(db)
	site := createTestSite(t, db)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/sites/%d/geofences", site.ID), gin.H{
		"name": "Campus",
		"kind": "polygon",
		"ring": "[[51.50,-0.13],[51.51,-0.13],[51.51,-0.12],[51.50,-0.12]]",
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestGeofenceHandlerCreateRejectsInvalid(t *testing.T) {
	db := OpenTestDB(t)
	r := newGeofenceRouter(db)
	site := createTestSite(t, db)

	tests := []struct {
		name string
		body gin.H
	}{
		{"unknown kind", gin.H{"kind": "hexagon"}},
		{"zero radius circle", gin.H{"kind": "circle", "center_lat": 51.5, "center_lon": -0.12, "radius_meters": 0}},
		{"two point ring", gin.H{"kind": "polygon", "ring": "[[51.50,-0.13],[51.51,-0.13]]"}},
		{"latitude out of range", gin.H{"kind": "circle", "center_lat": 95, "center_lon": 0, "radius_meters": 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/sites/%d/geofences", site.ID), tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGeofenceHandlerListUpdateDelete(t *testing.T) {
	db := OpenTestDB(t)
	r := newGeofenceRouter(db)
	site := createTestSite(t, db)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/sites/%d/geofences", site.ID), gin.H{
		"name":          "HQ",
		"kind":          "circle",
		"center_lat":    51.5,
		"center_lon":    -0.12,
		"radius_meters": 500,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var fence models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fence))

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/sites/%d/geofences", site.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fences []models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fences))
	require.Len(t, fences, 1)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/geofences/%d", fence.ID), gin.H{
		"name":          "HQ wide",
		"kind":          "circle",
		"center_lat":    51.5,
		"center_lon":    -0.12,
		"radius_meters": 2000,
		"is_active":     true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Geofence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, float64(2000), updated.RadiusMeters)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/geofences/%d", fence.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/geofences/%d", fence.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
