package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/access"
	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

var (
	ErrSiteNotFound      = errors.New("site not found")
	ErrInvalidFilterMode = errors.New("invalid filter mode")
	ErrHostnameTaken     = errors.New("hostname already in use")
)

type SiteService struct {
	db *gorm.DB
}

func NewSiteService(db *gorm.DB) *SiteService {
	return &SiteService{db: db}
}

// Create creates a new site with validation.
func (s *SiteService) Create(site *models.Site) error {
	if err := s.validate(site); err != nil {
		return err
	}

	if site.Hostname != "" {
		var count int64
		if err := s.db.Model(&models.Site{}).Where("hostname = ?", site.Hostname).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrHostnameTaken
		}
	}

	site.UUID = uuid.New().String()
	if site.FilterMode == "" {
		site.FilterMode = models.FilterModeDisabled
	}
	return s.db.Create(site).Error
}

// GetByID retrieves a site by numeric ID.
func (s *SiteService) GetByID(id uint) (*models.Site, error) {
	var site models.Site
	if err := s.db.First(&site, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return &site, nil
}

// GetByIdentifier resolves a site by UUID first, then hostname. This is how
// the public gateway addresses tenants.
func (s *SiteService) GetByIdentifier(identifier string) (*models.Site, error) {
	var site models.Site
	err := s.db.Where("uuid = ?", identifier).First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Where("hostname = ?", identifier).First(&site).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return &site, nil
}

// List retrieves all sites sorted by updated_at desc.
func (s *SiteService) List() ([]models.Site, error) {
	var sites []models.Site
	if err := s.db.Order("updated_at desc").Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

// ListByOwner returns only the sites owned by one user.
func (s *SiteService) ListByOwner(ownerID uint) ([]models.Site, error) {
	var sites []models.Site
	if err := s.db.Where("owner_user_id = ?", ownerID).Order("updated_at desc").Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

// Update applies updates to an existing site.
func (s *SiteService) Update(id uint, updates *models.Site) error {
	site, err := s.GetByID(id)
	if err != nil {
		return err
	}

	site.Name = updates.Name
	site.Hostname = updates.Hostname
	site.PathPrefix = updates.PathPrefix
	site.FilterMode = updates.FilterMode
	site.BlockPageTitle = updates.BlockPageTitle
	site.BlockPageMessage = updates.BlockPageMessage

	if err := s.validate(site); err != nil {
		return err
	}

	return s.db.Save(site).Error
}

// Delete removes a site along with its rules and geofences.
func (s *SiteService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Site{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSiteNotFound
		}
		if err := tx.Where("site_id = ?", id).Delete(&models.IPRule{}).Error; err != nil {
			return err
		}
		return tx.Where("site_id = ?", id).Delete(&models.Geofence{}).Error
	})
}

// Snapshot loads the site's current active rules and geofences as the
// immutable input for one evaluation. Creation order is preserved for the
// equal-prefix tiebreak. A rule or geofence row that fails to decode is not
// dropped: it is forwarded in a form the engine rejects, so a corrupt
// configuration fails closed instead of silently shrinking the rule set.
func (s *SiteService) Snapshot(siteID uint) ([]access.IPRule, []access.Geofence, error) {
	var ruleRows []models.IPRule
	if err := s.db.Where("site_id = ? AND is_active = ?", siteID, true).
		Order("created_at asc, id asc").Find(&ruleRows).Error; err != nil {
		return nil, nil, err
	}

	rules := make([]access.IPRule, 0, len(ruleRows))
	for _, row := range ruleRows {
		rules = append(rules, access.IPRule{
			CIDR:     row.CIDR,
			Action:   access.Action(row.Action),
			IsActive: row.IsActive,
		})
	}

	var fenceRows []models.Geofence
	if err := s.db.Where("site_id = ? AND is_active = ?", siteID, true).
		Order("created_at asc, id asc").Find(&fenceRows).Error; err != nil {
		return nil, nil, err
	}

	fences := make([]access.Geofence, 0, len(fenceRows))
	for _, row := range fenceRows {
		fences = append(fences, toAccessGeofence(row))
	}

	return rules, fences, nil
}

func toAccessGeofence(row models.Geofence) access.Geofence {
	switch row.Kind {
	case models.GeofenceKindCircle:
		return access.Geofence{
			Kind:         access.GeofenceCircle,
			Center:       access.Point{Lat: row.CenterLat, Lon: row.CenterLon},
			RadiusMeters: row.RadiusMeters,
		}
	case models.GeofenceKindPolygon:
		pts, err := row.RingPoints()
		if err != nil {
			return access.Geofence{Kind: "corrupt"}
		}
		ring := make([]access.Point, 0, len(pts))
		for _, p := range pts {
			ring = append(ring, access.Point{Lat: p[0], Lon: p[1]})
		}
		return access.Geofence{Kind: access.GeofencePolygon, Ring: ring}
	}
	return access.Geofence{Kind: row.Kind}
}

func (s *SiteService) validate(site *models.Site) error {
	if strings.TrimSpace(site.Name) == "" {
		return errors.New("name is required")
	}
	if site.FilterMode != "" && !site.FilterMode.Valid() {
		return ErrInvalidFilterMode
	}
	return nil
}
