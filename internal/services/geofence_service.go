package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

var (
	ErrGeofenceNotFound    = errors.New("geofence not found")
	ErrInvalidGeofenceKind = errors.New("invalid geofence kind")
	ErrInvalidCircle       = errors.New("invalid circle geofence")
	ErrDegenerateRing      = errors.New("polygon ring needs at least 3 vertices")
	ErrInvalidCoordinate   = errors.New("coordinate out of range")
)

type GeofenceService struct {
	db *gorm.DB
}

func NewGeofenceService(db *gorm.DB) *GeofenceService {
	return &GeofenceService{db: db}
}

// Create creates a new geofence. Degenerate shapes are rejected here at
// configuration time; the evaluator's never-containing fallback is only a
// defensive backstop.
func (s *GeofenceService) Create(fence *models.Geofence) error {
	if err := s.validate(fence); err != nil {
		return err
	}

	fence.UUID = uuid.New().String()
	return s.db.Create(fence).Error
}

// GetByID retrieves a geofence by ID.
func (s *GeofenceService) GetByID(id uint) (*models.Geofence, error) {
	var fence models.Geofence
	if err := s.db.First(&fence, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGeofenceNotFound
		}
		return nil, err
	}
	return &fence, nil
}

// ListBySite retrieves all geofences for a site.
func (s *GeofenceService) ListBySite(siteID uint) ([]models.Geofence, error) {
	var fences []models.Geofence
	if err := s.db.Where("site_id = ?", siteID).
		Order("created_at asc, id asc").Find(&fences).Error; err != nil {
		return nil, err
	}
	return fences, nil
}

// Update applies updates to an existing geofence.
func (s *GeofenceService) Update(id uint, updates *models.Geofence) error {
	fence, err := s.GetByID(id)
	if err != nil {
		return err
	}

	fence.Name = updates.Name
	fence.Kind = updates.Kind
	fence.CenterLat = updates.CenterLat
	fence.CenterLon = updates.CenterLon
	fence.RadiusMeters = updates.RadiusMeters
	fence.Ring = updates.Ring
	fence.IsActive = updates.IsActive

	if err := s.validate(fence); err != nil {
		return err
	}

	return s.db.Save(fence).Error
}

// Delete removes a geofence.
func (s *GeofenceService) Delete(id uint) error {
	result := s.db.Delete(&models.Geofence{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGeofenceNotFound
	}
	return nil
}

func (s *GeofenceService) validate(fence *models.Geofence) error {
	switch fence.Kind {
	case models.GeofenceKindCircle:
		if math.IsNaN(fence.RadiusMeters) || fence.RadiusMeters <= 0 {
			return fmt.Errorf("%w: radius must be positive", ErrInvalidCircle)
		}
		if err := validCoordinate(fence.CenterLat, fence.CenterLon); err != nil {
			return err
		}
	case models.GeofenceKindPolygon:
		pts, err := fence.RingPoints()
		if err != nil {
			return fmt.Errorf("invalid ring JSON: %w", err)
		}
		if len(pts) < 3 {
			return ErrDegenerateRing
		}
		for _, p := range pts {
			if err := validCoordinate(p[0], p[1]); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGeofenceKind, fence.Kind)
	}
	return nil
}

func validCoordinate(lat, lon float64) error {
	// NaN slips past plain range comparisons.
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lat, lon)
	}
	return nil
}
