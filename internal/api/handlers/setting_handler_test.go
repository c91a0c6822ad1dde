package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

func newSettingRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSettingHandler(db)
	r := gin.New()
	r.GET("/settings", h.List)
	r.POST("/settings", h.Update)
	return r
}

func TestSettingHandlerUpdateAndList(t *testing.T) {
	db := OpenTestDB(t)
	r := newSettingRouter(db)

	w := doJSON(t, r, http.MethodPost, "/settings", gin.H{
		"key":   services.SettingKeyAuditRetention,
		"value": "168h",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Equal(t, "168h", settings[services.SettingKeyAuditRetention])

	// The stored value steers the retention window used by the prune job.
	retention := services.NewSettingService(db).GetDuration(services.SettingKeyAuditRetention, 720*time.Hour)
	assert.Equal(t, 168*time.Hour, retention)
}

func TestSettingHandlerUpdateRequiresKey(t *testing.T) {
	db := OpenTestDB(t)
	r := newSettingRouter(db)

	w := doJSON(t, r, http.MethodPost, "/settings", gin.H{"value": "168h"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
