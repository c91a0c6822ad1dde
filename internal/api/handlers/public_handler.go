package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/access"
	"github.com/japperJ/geo2-ip-webserver/internal/artifact"
	"github.com/japperJ/geo2-ip-webserver/internal/geoip"
	"github.com/japperJ/geo2-ip-webserver/internal/logger"
	"github.com/japperJ/geo2-ip-webserver/internal/metrics"
	"github.com/japperJ/geo2-ip-webserver/internal/models"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

// PublicHandler is the gateway surface. Every request through it runs the
// same pipeline: resolve the site, evaluate access against a fresh
// configuration snapshot, enrich and record the audit entry, then either
// serve the response or the site's block page.
type PublicHandler struct {
	sites    *services.SiteService
	audit    *services.AuditService
	content  *services.ContentService
	geo      *geoip.Resolver
	notifier *services.NotificationService

	capturer       artifact.Capturer
	captureTimeout time.Duration
	baseURL        string
}

func NewPublicHandler(db *gorm.DB, contentDir string, geo *geoip.Resolver, notifier *services.NotificationService) *PublicHandler {
	return &PublicHandler{
		sites:          services.NewSiteService(db),
		audit:          services.NewAuditService(db),
		content:        services.NewContentService(contentDir),
		geo:            geo,
		notifier:       notifier,
		captureTimeout: 15 * time.Second,
	}
}

// SetCapturer enables block-page screenshot capture. baseURL is the
// externally reachable address of this server, used to render the page the
// client actually saw.
func (h *PublicHandler) SetCapturer(capturer artifact.Capturer, baseURL string, timeout time.Duration) {
	h.capturer = capturer
	h.baseURL = strings.TrimRight(baseURL, "/")
	if timeout > 0 {
		h.captureTimeout = timeout
	}
}

// Access handles GET /s/:site and answers whether the caller may enter.
func (h *PublicHandler) Access(c *gin.Context) {
	site, ok := h.resolveSite(c)
	if !ok {
		return
	}

	decision := h.evaluate(c, site)
	if !decision.Allowed {
		h.renderBlockPage(c, site, decision)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"site":   site.Name,
	})
}

// Content handles GET /s/:site/content/*filepath. The access decision and
// its audit entry are settled before the file is touched, so a missing file
// can never mask or alter a decision.
func (h *PublicHandler) Content(c *gin.Context) {
	site, ok := h.resolveSite(c)
	if !ok {
		return
	}

	decision := h.evaluate(c, site)
	if !decision.Allowed {
		h.renderBlockPage(c, site, decision)
		return
	}

	name := strings.TrimPrefix(c.Param("filepath"), "/")
	data, contentType, err := h.content.GetFile(site.UUID, name)
	if err != nil {
		if errors.Is(err, services.ErrContentNotFound) || errors.Is(err, services.ErrInvalidPath) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
			return
		}
		logger.WithSite(site.UUID).WithError(err).Error("content fetch failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "content unavailable"})
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

// resolveSite loads the site named in the route, by UUID or hostname.
func (h *PublicHandler) resolveSite(c *gin.Context) (*models.Site, bool) {
	site, err := h.sites.GetByIdentifier(c.Param("site"))
	if err != nil {
		if errors.Is(err, services.ErrSiteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return nil, false
	}
	return site, true
}

// evaluate runs one full decision cycle for the request: snapshot, engine,
// enrichment, metrics, audit. The returned decision is final by the time the
// audit entry exists; everything after it only shapes the response.
func (h *PublicHandler) evaluate(c *gin.Context, site *models.Site) access.Decision {
	clientIP := requestClientIP(c)
	clientGPS := requestClientGPS(c)

	var decision access.Decision
	rules, fences, err := h.sites.Snapshot(site.ID)
	if err != nil {
		logger.WithSite(site.UUID).WithError(err).Error("configuration snapshot failed")
		decision = access.Decision{Allowed: false, Reason: access.ReasonEvaluationError}
	} else {
		decision = access.Evaluate(access.EvaluationInput{
			FilterMode: access.FilterMode(site.FilterMode),
			ClientIP:   clientIP,
			ClientGPS:  clientGPS,
			IPRules:    rules,
			Geofences:  fences,
		})
	}

	metrics.IncDecision(decision.Reason.String(), decision.Allowed)

	location := h.geo.Lookup(c.Request.Context(), clientIP)

	entry, err := h.audit.Record(services.RecordInput{
		SiteID:    site.ID,
		ClientIP:  clientIP,
		ClientGPS: clientGPS,
		Decision:  decision,
		UserAgent: c.Request.UserAgent(),
		IPGeo:     location,
	})
	if err != nil {
		metrics.IncAuditWriteFailure()
		logger.WithSite(site.UUID).WithError(err).Error("audit write failed")
	}

	if decision.Reason == access.ReasonEvaluationError {
		h.notifier.AlertEvaluationError(site.UUID, clientIP)
	}

	if !decision.Allowed && entry != nil {
		h.captureArtifact(site, entry.ID)
	}

	return decision
}

// captureArtifact screenshots the block page in the background and attaches
// the key to the already-persisted audit entry. Any failure leaves the entry
// as it is, with an empty artifact key.
func (h *PublicHandler) captureArtifact(site *models.Site, auditID uint) {
	if h.capturer == nil {
		return
	}

	pageURL := h.baseURL + "/s/" + site.UUID
	siteUUID := site.UUID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.captureTimeout)
		defer cancel()

		key, err := h.capturer.CaptureBlockPage(ctx, siteUUID, pageURL)
		if err != nil {
			metrics.IncArtifactFailure()
			logger.WithSite(siteUUID).WithError(err).Warn("block page capture failed")
			return
		}
		if err := h.audit.AttachArtifact(auditID, key); err != nil {
			metrics.IncArtifactFailure()
			logger.WithSite(siteUUID).WithError(err).Warn("artifact attach failed")
		}
	}()
}

func (h *PublicHandler) renderBlockPage(c *gin.Context, site *models.Site, decision access.Decision) {
	body := fmt.Sprintf(blockPageTemplate,
		html.EscapeString(site.BlockPageTitle),
		html.EscapeString(site.BlockPageTitle),
		html.EscapeString(site.BlockPageMessage),
		html.EscapeString(decision.Reason.String()),
	)
	c.Data(http.StatusForbidden, "text/html; charset=utf-8", []byte(body))
}

const blockPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; background: #1a1a2e; color: #eee; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
.card { background: #16213e; border-radius: 8px; padding: 2.5rem 3rem; max-width: 480px; text-align: center; }
h1 { color: #e94560; margin-top: 0; }
.reason { color: #888; font-size: 0.8rem; margin-top: 2rem; }
</style>
</head>
<body>
<div class="card">
<h1>%s</h1>
<p>%s</p>
<p class="reason">%s</p>
</div>
</body>
</html>
`

// requestClientIP prefers the first hop in X-Forwarded-For, matching what an
// edge proxy in front of the gateway reports, and falls back to the socket
// peer address.
func requestClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	return c.ClientIP()
}

// requestClientGPS parses the self-reported position from the X-Client-GPS
// header, or the gps query parameter as a fallback, in "lat,lon" form.
// Absent or malformed values yield nil; the engine treats that as missing
// coordinates, never as an error.
func requestClientGPS(c *gin.Context) *access.Point {
	raw := c.GetHeader("X-Client-GPS")
	if raw == "" {
		raw = c.Query("gps")
	}
	if raw == "" {
		return nil
	}

	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a position.
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	return &access.Point{Lat: lat, Lon: lon}
}
