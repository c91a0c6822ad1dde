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
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

func createOwnedSite(t *testing.T, db *gorm.DB, ownerID uint, hostname string) *models.Site {
	t.Helper()
	site := &models.Site{Name: "Owned", Hostname: hostname, OwnerUserID: ownerID}
	require.NoError(t, services.NewSiteService(db).Create(site))
	return site
}

func TestSiteAccessLimitedToOwner(t *testing.T) {
	db := OpenTestDB(t)
	site := createOwnedSite(t, db, 1, "owned.example.com")

	owner := newSiteRouterAs(db, 1, "user")
	intruder := newSiteRouterAs(db, 2, "user")
	admin := newSiteRouterAs(db, 3, "admin")

	w := doJSON(t, owner, http.MethodGet, fmt.Sprintf("/sites/%d", site.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, intruder, http.MethodGet, fmt.Sprintf("/sites/%d", site.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, intruder, http.MethodPut, fmt.Sprintf("/sites/%d", site.ID), gin.H{
		"name":        "Hijacked",
		"hostname":    "owned.example.com",
		"filter_mode": "disabled",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, intruder, http.MethodDelete, fmt.Sprintf("/sites/%d", site.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, admin, http.MethodGet, fmt.Sprintf("/sites/%d", site.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSiteListScopedToOwner(t *testing.T) {
	db := OpenTestDB(t)
	createOwnedSite(t, db, 1, "first.example.com")
	createOwnedSite(t, db, 2, "second.example.com")

	w := doJSON(t, newSiteRouterAs(db, 2, "user"), http.MethodGet, "/sites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sites []models.Site
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sites))
	require.Len(t, sites, 1)
	assert.Equal(t, "second.example.com", sites[0].Hostname)

	w = doJSON(t, newSiteRouterAs(db, 3, "admin"), http.MethodGet, "/sites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sites))
	assert.Len(t, sites, 2)
}

func TestIPRuleAccessLimitedToOwner(t *testing.T) {
	db := OpenTestDB(t)
	site := createOwnedSite(t, db, 1, "rules.example.com")

	owner := newIPRuleRouterAs(db, 1, "user")
	intruder := newIPRuleRouterAs(db, 2, "user")

	w := doJSON(t, owner, http.MethodPost, fmt.Sprintf("/sites/%d/ip-rules", site.ID), gin.H{
		"cidr":   "10.0.0.0/8",
		"action": "deny",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var rule models.IPRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rule))

	w = doJSON(t, intruder, http.MethodPost, fmt.Sprintf("/sites/%d/ip-rules", site.ID), gin.H{
		"cidr":   "0.0.0.0/0",
		"action": "allow",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, intruder, http.MethodGet, fmt.Sprintf("/sites/%d/ip-rules", site.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, intruder, http.MethodPut, fmt.Sprintf("/ip-rules/%d", rule.ID), gin.H{
		"cidr":      "0.0.0.0/0",
		"action":    "allow",
		"is_active": true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, intruder, http.MethodDelete, fmt.Sprintf("/ip-rules/%d", rule.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuditAccessLimitedToOwner(t *testing.T) {
	db := OpenTestDB(t)
	site := createOwnedSite(t, db, 1, "audits.example.com")
	entries := seedAudits(t, db, site.ID)

	intruder := newAuditRouterAs(db, t.TempDir(), 2, "user")

	w := doJSON(t, intruder, http.MethodGet, fmt.Sprintf("/sites/%d/audits", site.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, intruder, http.MethodGet, fmt.Sprintf("/sites/%d/audits/export", site.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, intruder, http.MethodGet, fmt.Sprintf("/audits/%d/artifact", entries[0].ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
