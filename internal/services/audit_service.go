package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/access"
	"github.com/japperJ/geo2-ip-webserver/internal/geoip"
	"github.com/japperJ/geo2-ip-webserver/internal/logger"
	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

var (
	ErrAuditNotFound = errors.New("audit entry not found")
)

// AuditService is the audit recorder: it durably persists exactly one entry
// per evaluated public request. Recording never depends on screenshot
// capture or content fetch; those run afterwards and at most attach an
// artifact key to the already-written row.
type AuditService struct {
	db   *gorm.DB
	cron *cron.Cron
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// RecordInput carries everything known about one evaluated request.
type RecordInput struct {
	SiteID    uint
	ClientIP  string
	ClientGPS *access.Point
	Decision  access.Decision
	UserAgent string
	IPGeo     *geoip.Location
}

// Record writes the audit entry for one evaluation. The entry is immutable
// afterwards except for AttachArtifact.
func (s *AuditService) Record(in RecordInput) (*models.AccessAudit, error) {
	entry := &models.AccessAudit{
		UUID:      uuid.New().String(),
		SiteID:    in.SiteID,
		Timestamp: time.Now().UTC(),
		ClientIP:  in.ClientIP,
		Decision:  models.DecisionBlocked,
		Reason:    in.Decision.Reason.String(),
		UserAgent: in.UserAgent,
	}
	if in.Decision.Allowed {
		entry.Decision = models.DecisionAllowed
	}
	if in.ClientGPS != nil {
		lat, lon := in.ClientGPS.Lat, in.ClientGPS.Lon
		entry.ClientGPSLat = &lat
		entry.ClientGPSLon = &lon
	}
	if in.IPGeo != nil {
		entry.IPGeoCountry = in.IPGeo.Country
		entry.IPGeoCity = in.IPGeo.City
	}

	if err := s.db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("record audit entry: %w", err)
	}
	return entry, nil
}

// AttachArtifact sets the artifact key on an existing entry. This is the
// only permitted mutation of an audit row.
func (s *AuditService) AttachArtifact(id uint, key string) error {
	result := s.db.Model(&models.AccessAudit{}).Where("id = ?", id).Update("artifact_key", key)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAuditNotFound
	}
	return nil
}

// GetByID fetches a single audit entry.
func (s *AuditService) GetByID(id uint) (*models.AccessAudit, error) {
	var entry models.AccessAudit
	if err := s.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ListFilters narrows List and ExportCSV output.
type ListFilters struct {
	// Decision filters on "allowed" or "blocked" when set.
	Decision string
	// ClientIP matches exactly, or as a prefix when it ends with a dot or
	// colon (e.g. "10.0." or "2001:db8:").
	ClientIP string
	Limit    int
	Offset   int
}

// List returns audit entries for a site, newest first, so pagination is
// consistent across calls.
func (s *AuditService) List(siteID uint, filters ListFilters) ([]models.AccessAudit, error) {
	query := s.filtered(siteID, filters).Order("timestamp desc, id desc")

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var entries []models.AccessAudit
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// csvHeader is the stable export column order. Consumers parse by position;
// reordering is a breaking change.
var csvHeader = []string{
	"timestamp", "site_id", "client_ip", "ip_geo_country", "ip_geo_city",
	"client_gps_lat", "client_gps_lon", "decision", "reason", "user_agent", "artifact_key",
}

// ExportCSV streams the filtered entries. Missing enrichment renders as an
// empty field, never an error.
func (s *AuditService) ExportCSV(w io.Writer, siteID uint, filters ListFilters) error {
	entries, err := s.List(siteID, filters)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatUint(uint64(e.SiteID), 10),
			e.ClientIP,
			e.IPGeoCountry,
			e.IPGeoCity,
			formatCoord(e.ClientGPSLat),
			formatCoord(e.ClientGPSLon),
			e.Decision,
			e.Reason,
			e.UserAgent,
			e.ArtifactKey,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// PruneOlderThan removes entries past the retention window and returns how
// many rows were deleted.
func (s *AuditService) PruneOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result := s.db.Where("timestamp < ?", cutoff).Delete(&models.AccessAudit{})
	return result.RowsAffected, result.Error
}

// StartRetentionJob schedules a daily prune. A zero retention disables it.
// When a settings service is supplied, the "audit_retention" setting
// overrides the configured window per run, so operators can tune it without
// a restart.
func (s *AuditService) StartRetentionJob(retention time.Duration, settings *SettingService) {
	if retention <= 0 {
		return
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc("@daily", func() {
		deleted, err := s.PruneOlderThan(settings.GetDuration(SettingKeyAuditRetention, retention))
		if err != nil {
			logger.Log().WithError(err).Error("audit retention prune failed")
			return
		}
		if deleted > 0 {
			logger.WithFields(map[string]interface{}{"deleted": deleted}).Info("pruned expired audit entries")
		}
	})
	if err != nil {
		logger.Log().WithError(err).Error("schedule audit retention job")
		return
	}
	s.cron.Start()
}

// StopRetentionJob stops the prune schedule if one is running.
func (s *AuditService) StopRetentionJob() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *AuditService) filtered(siteID uint, filters ListFilters) *gorm.DB {
	query := s.db.Model(&models.AccessAudit{}).Where("site_id = ?", siteID)

	if filters.Decision != "" {
		query = query.Where("decision = ?", filters.Decision)
	}
	if filters.ClientIP != "" {
		if isPrefixFilter(filters.ClientIP) {
			query = query.Where("client_ip LIKE ?", filters.ClientIP+"%")
		} else {
			query = query.Where("client_ip = ?", filters.ClientIP)
		}
	}
	return query
}

// isPrefixFilter treats a trailing separator as "match the prefix", e.g.
// "10.0." or "2001:db8:".
func isPrefixFilter(ip string) bool {
	if ip == "" {
		return false
	}
	last := ip[len(ip)-1]
	return last == '.' || last == ':'
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
