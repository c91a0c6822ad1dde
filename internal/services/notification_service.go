package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"

	"github.com/japperJ/geo2-ip-webserver/internal/logger"
)

// NotificationService pushes operator alerts over shoutrrr URLs. The only
// event it carries today is an evaluation error, which means a site's rules
// or geofences are corrupt and every request to it is failing closed.
type NotificationService struct {
	urls []string
}

func NewNotificationService(urls []string) *NotificationService {
	return &NotificationService{urls: urls}
}

// Enabled reports whether any alert destination is configured.
func (s *NotificationService) Enabled() bool {
	return s != nil && len(s.urls) > 0
}

// AlertEvaluationError notifies operators that a site is failing closed.
// Fire-and-forget: delivery failures are logged, never surfaced.
func (s *NotificationService) AlertEvaluationError(siteUUID, clientIP string) {
	if !s.Enabled() {
		return
	}

	message := fmt.Sprintf("GeoGate: site %s returned evaluation_error for %s; its rule or geofence configuration is corrupt and requests are being denied", siteUUID, clientIP)

	go func() {
		for _, url := range s.urls {
			if err := shoutrrr.Send(url, message); err != nil {
				logger.WithFields(map[string]interface{}{"site_id": siteUUID}).
					WithError(err).Warn("failed to send evaluation error alert")
			}
		}
	}()
}
