package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/access"
	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

var (
	ErrIPRuleNotFound = errors.New("IP rule not found")
	ErrInvalidCIDR    = errors.New("invalid IP address or CIDR")
	ErrInvalidAction  = errors.New("invalid rule action")
)

type IPRuleService struct {
	db *gorm.DB
}

func NewIPRuleService(db *gorm.DB) *IPRuleService {
	return &IPRuleService{db: db}
}

// Create creates a new IP rule with validation. Malformed CIDRs are rejected
// here, at write time, so the engine only ever sees them if a row is
// corrupted out-of-band.
func (s *IPRuleService) Create(rule *models.IPRule) error {
	if err := s.validate(rule); err != nil {
		return err
	}

	rule.UUID = uuid.New().String()
	return s.db.Create(rule).Error
}

// GetByID retrieves a rule by ID.
func (s *IPRuleService) GetByID(id uint) (*models.IPRule, error) {
	var rule models.IPRule
	if err := s.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIPRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// ListBySite retrieves all rules for a site in creation order, which is also
// the engine's tiebreak order for equally specific rules.
func (s *IPRuleService) ListBySite(siteID uint) ([]models.IPRule, error) {
	var rules []models.IPRule
	if err := s.db.Where("site_id = ?", siteID).
		Order("created_at asc, id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Update applies updates to an existing rule.
func (s *IPRuleService) Update(id uint, updates *models.IPRule) error {
	rule, err := s.GetByID(id)
	if err != nil {
		return err
	}

	rule.CIDR = updates.CIDR
	rule.Action = updates.Action
	rule.Description = updates.Description
	rule.IsActive = updates.IsActive
	rule.Priority = updates.Priority

	if err := s.validate(rule); err != nil {
		return err
	}

	return s.db.Save(rule).Error
}

// Delete removes a rule.
func (s *IPRuleService) Delete(id uint) error {
	result := s.db.Delete(&models.IPRule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIPRuleNotFound
	}
	return nil
}

func (s *IPRuleService) validate(rule *models.IPRule) error {
	if !access.ValidCIDR(rule.CIDR) {
		return fmt.Errorf("%w: %s", ErrInvalidCIDR, rule.CIDR)
	}
	if rule.Action != models.RuleActionAllow && rule.Action != models.RuleActionDeny {
		return fmt.Errorf("%w: %s", ErrInvalidAction, rule.Action)
	}
	return nil
}
