package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/japperJ/geo2-ip-webserver/internal/models"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

// callerCanManage reports whether the authenticated caller may act on the
// site. Admins manage every tenant; everyone else only sites they own.
func callerCanManage(c *gin.Context, site *models.Site) bool {
	if c.GetString("role") == "admin" {
		return true
	}
	v, ok := c.Get("userID")
	if !ok {
		return false
	}
	uid, ok := v.(uint)
	return ok && uid != 0 && site.OwnerUserID == uid
}

// requireSite loads a site and enforces the caller's right to manage it.
// Writes the error response itself when access is refused.
func requireSite(c *gin.Context, sites *services.SiteService, siteID uint) (*models.Site, bool) {
	site, err := sites.GetByID(siteID)
	if err != nil {
		if errors.Is(err, services.ErrSiteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	if !callerCanManage(c, site) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return site, true
}
