package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/artifact"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

type AuditHandler struct {
	service     *services.AuditService
	sites       *services.SiteService
	artifactDir string
}

func NewAuditHandler(db *gorm.DB, artifactDir string) *AuditHandler {
	return &AuditHandler{
		service:     services.NewAuditService(db),
		sites:       services.NewSiteService(db),
		artifactDir: artifactDir,
	}
}

func auditFilters(c *gin.Context) services.ListFilters {
	filters := services.ListFilters{
		Decision: c.Query("decision"),
		ClientIP: c.Query("client_ip"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		filters.Offset = offset
	}
	if filters.Limit <= 0 || filters.Limit > 500 {
		filters.Limit = 100
	}
	return filters
}

// List handles GET /api/v1/sites/:id/audits
func (h *AuditHandler) List(c *gin.Context) {
	siteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	if _, ok := requireSite(c, h.sites, uint(siteID)); !ok {
		return
	}

	entries, err := h.service.List(uint(siteID), auditFilters(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Export handles GET /api/v1/sites/:id/audits/export
func (h *AuditHandler) Export(c *gin.Context) {
	siteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site ID"})
		return
	}

	if _, ok := requireSite(c, h.sites, uint(siteID)); !ok {
		return
	}

	filters := auditFilters(c)
	filters.Limit = 0
	filters.Offset = 0

	filename := fmt.Sprintf("audits_site_%d_%s.csv", siteID, time.Now().UTC().Format("20060102T150405Z"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.service.ExportCSV(c.Writer, uint(siteID), filters); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
}

// Artifact handles GET /api/v1/audits/:id/artifact and serves the stored
// screenshot for a blocked request, when one was captured.
func (h *AuditHandler) Artifact(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return
	}

	entry, err := h.service.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit entry not found"})
		return
	}

	if _, ok := requireSite(c, h.sites, entry.SiteID); !ok {
		return
	}

	if entry.ArtifactKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no artifact for this entry"})
		return
	}

	data, err := artifact.ReadKey(h.artifactDir, entry.ArtifactKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}
