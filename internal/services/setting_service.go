package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingKeyAuditRetention overrides the configured audit retention window
// at runtime. The value is a Go duration string such as "720h".
const SettingKeyAuditRetention = "audit_retention"

// SettingService reads and writes the key/value rows behind runtime-tunable
// flags.
type SettingService struct {
	db *gorm.DB
}

func NewSettingService(db *gorm.DB) *SettingService {
	return &SettingService{db: db}
}

// Get returns the value for a key.
func (s *SettingService) Get(key string) (string, error) {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return setting.Value, nil
}

// GetDuration parses a stored duration value, returning fallback when the
// key is absent or unparseable.
func (s *SettingService) GetDuration(key string, fallback time.Duration) time.Duration {
	if s == nil {
		return fallback
	}
	raw, err := s.Get(key)
	if err != nil {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// Set upserts a key/value pair.
func (s *SettingService) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return s.db.Where(models.Setting{Key: key}).Assign(setting).FirstOrCreate(&setting).Error
}

// All returns every setting as a key/value map.
func (s *SettingService) All() (map[string]string, error) {
	var settings []models.Setting
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, row := range settings {
		out[row.Key] = row.Value
	}
	return out, nil
}
