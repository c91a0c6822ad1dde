package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/models"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

type SiteHandler struct {
	service *services.SiteService
}

func NewSiteHandler(db *gorm.DB) *SiteHandler {
	return &SiteHandler{service: services.NewSiteService(db)}
}

// Create handles POST /api/v1/sites
func (h *SiteHandler) Create(c *gin.Context) {
	var site models.Site
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if userID, ok := c.Get("userID"); ok {
		site.OwnerUserID = userID.(uint)
	}

	if err := h.service.Create(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, site)
}

// List handles GET /api/v1/sites. Admins see every site, other users only
// their own.
func (h *SiteHandler) List(c *gin.Context) {
	var (
		sites []models.Site
		err   error
	)
	if c.GetString("role") == "admin" {
		sites, err = h.service.List()
	} else {
		uid, _ := c.Get("userID")
		ownerID, _ := uid.(uint)
		sites, err = h.service.ListByOwner(ownerID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sites)
}

// Get handles GET /api/v1/sites/:id
func (h *SiteHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	site, ok := requireSite(c, h.service, uint(id))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, site)
}

// Update handles PUT /api/v1/sites/:id
func (h *SiteHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	if _, ok := requireSite(c, h.service, uint(id)); !ok {
		return
	}

	var updates models.Site
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Update(uint(id), &updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, _ := h.service.GetByID(uint(id))
	c.JSON(http.StatusOK, site)
}

// Delete handles DELETE /api/v1/sites/:id
func (h *SiteHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	if _, ok := requireSite(c, h.service, uint(id)); !ok {
		return
	}

	if err := h.service.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "site deleted"})
}
