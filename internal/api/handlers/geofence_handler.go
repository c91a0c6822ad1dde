package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/models"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

type GeofenceHandler struct {
	service *services.GeofenceService
	sites   *services.SiteService
}

func NewGeofenceHandler(db *gorm.DB) *GeofenceHandler {
	return &GeofenceHandler{
		service: services.NewGeofenceService(db),
		sites:   services.NewSiteService(db),
	}
}

// Create handles POST /api/v1/sites/:id/geofences
func (h *GeofenceHandler) Create(c *gin.Context) {
	siteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	if _, ok := requireSite(c, h.sites, uint(siteID)); !ok {
		return
	}

	var fence models.Geofence
	if err := c.ShouldBindJSON(&fence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fence.SiteID = uint(siteID)

	if err := h.service.Create(&fence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, fence)
}

// List handles GET /api/v1/sites/:id/geofences
func (h *GeofenceHandler) List(c *gin.Context) {
	siteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	if _, ok := requireSite(c, h.sites, uint(siteID)); !ok {
		return
	}

	fences, err := h.service.ListBySite(uint(siteID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fences)
}

// Update handles PUT /api/v1/geofences/:id
func (h *GeofenceHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	fence, err := h.service.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrGeofenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if _, ok := requireSite(c, h.sites, fence.SiteID); !ok {
		return
	}

	var updates models.Geofence
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Update(uint(id), &updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fence, _ = h.service.GetByID(uint(id))
	c.JSON(http.StatusOK, fence)
}

// Delete handles DELETE /api/v1/geofences/:id
func (h *GeofenceHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	fence, err := h.service.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrGeofenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if _, ok := requireSite(c, h.sites, fence.SiteID); !ok {
		return
	}

	if err := h.service.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "geofence deleted"})
}
