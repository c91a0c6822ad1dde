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

type IPRuleHandler struct {
	service *services.IPRuleService
	sites   *services.SiteService
}

func NewIPRuleHandler(db *gorm.DB) *IPRuleHandler {
	return &IPRuleHandler{
		service: services.NewIPRuleService(db),
		sites:   services.NewSiteService(db),
	}
}

// Create handles POST /api/v1/sites/:id/ip-rules
func (h *IPRuleHandler) Create(c *gin.Context) {
	siteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	if _, ok := requireSite(c, h.sites, uint(siteID)); !ok {
		return
	}

	var rule models.IPRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.SiteID = uint(siteID)

	if err := h.service.Create(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// List handles GET /api/v1/sites/:id/ip-rules
func (h *IPRuleHandler) List(c *gin.Context) {
	siteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	if _, ok := requireSite(c, h.sites, uint(siteID)); !ok {
		return
	}

	rules, err := h.service.ListBySite(uint(siteID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rules)
}

// Update handles PUT /api/v1/ip-rules/:id
func (h *IPRuleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	rule, err := h.service.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrIPRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "IP rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if _, ok := requireSite(c, h.sites, rule.SiteID); !ok {
		return
	}

	var updates models.IPRule
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Update(uint(id), &updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, _ = h.service.GetByID(uint(id))
	c.JSON(http.StatusOK, rule)
}

// Delete handles DELETE /api/v1/ip-rules/:id
func (h *IPRuleHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	rule, err := h.service.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrIPRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "IP rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if _, ok := requireSite(c, h.sites, rule.SiteID); !ok {
		return
	}

	if err := h.service.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "IP rule deleted"})
}
