package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

type SettingHandler struct {
	service *services.SettingService
}

func NewSettingHandler(db *gorm.DB) *SettingHandler {
	return &SettingHandler{service: services.NewSettingService(db)}
}

type updateSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// List handles GET /api/v1/settings and returns all settings as a map.
func (h *SettingHandler) List(c *gin.Context) {
	settings, err := h.service.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Update handles POST /api/v1/settings and upserts one setting.
func (h *SettingHandler) Update(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Set(req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
}
