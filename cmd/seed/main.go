package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/japperJ/geo2-ip-webserver/internal/config"
	"github.com/japperJ/geo2-ip-webserver/internal/database"
	"github.com/japperJ/geo2-ip-webserver/internal/models"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

// Seeds a demo tenant with an IP-gated site, its rules and a geofence, plus
// a default admin account, so a fresh install has something to poke at.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	fmt.Println("✓ Database migrated successfully")

	// Default admin user
	adminEmail := os.Getenv("GG_DEFAULT_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@localhost"
	}
	adminPassword := os.Getenv("GG_DEFAULT_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme-now"
	}

	authService := services.NewAuthService(db, cfg)
	if _, err := authService.Register(adminEmail, adminPassword, "Administrator"); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			fmt.Printf("  Admin user already exists: %s\n", adminEmail)
		} else {
			log.Fatalf("seed admin user: %v", err)
		}
	} else {
		fmt.Printf("✓ Created admin user: %s\n", adminEmail)
	}

	// Demo site gated on both IP and location
	siteService := services.NewSiteService(db)
	site := &models.Site{
		Name:       "Demo Gateway",
		Hostname:   "demo.localhost",
		FilterMode: models.FilterModeIPAndGeo,
	}
	if err := siteService.Create(site); err != nil {
		if errors.Is(err, services.ErrHostnameTaken) {
			existing, lookupErr := siteService.GetByIdentifier("demo.localhost")
			if lookupErr != nil {
				log.Fatalf("load existing demo site: %v", lookupErr)
			}
			site = existing
			fmt.Printf("  Demo site already exists: %s\n", site.Hostname)
		} else {
			log.Fatalf("seed demo site: %v", err)
		}
	} else {
		fmt.Printf("✓ Created demo site: %s (%s)\n", site.Hostname, site.UUID)
	}

	// A broad deny with a narrow allow carved out of it, to show
	// specificity ordering
	ruleService := services.NewIPRuleService(db)
	rules := []models.IPRule{
		{SiteID: site.ID, CIDR: "10.0.0.0/8", Action: models.RuleActionDeny, Description: "block the internal range", IsActive: true},
		{SiteID: site.ID, CIDR: "10.0.0.5/32", Action: models.RuleActionAllow, Description: "except the bastion host", IsActive: true},
	}
	for i := range rules {
		rule := rules[i]
		var existing models.IPRule
		if err := db.Where("site_id = ? AND cidr = ?", rule.SiteID, rule.CIDR).First(&existing).Error; err == nil {
			fmt.Printf("  IP rule already exists: %s %s\n", rule.Action, rule.CIDR)
			continue
		}
		if err := ruleService.Create(&rule); err != nil {
			log.Printf("Failed to seed IP rule %s: %v", rule.CIDR, err)
		} else {
			fmt.Printf("✓ Created IP rule: %s %s\n", rule.Action, rule.CIDR)
		}
	}

	// A 500 m circle around the Palace of Westminster
	fenceService := services.NewGeofenceService(db)
	fence := models.Geofence{
		SiteID:       site.ID,
		Name:         "Westminster",
		Kind:         models.GeofenceKindCircle,
		CenterLat:    51.5007,
		CenterLon:    -0.1246,
		RadiusMeters: 500,
		IsActive:     true,
	}
	var existingFence models.Geofence
	if err := db.Where("site_id = ? AND name = ?", fence.SiteID, fence.Name).First(&existingFence).Error; err == nil {
		fmt.Printf("  Geofence already exists: %s\n", fence.Name)
	} else if err := fenceService.Create(&fence); err != nil {
		log.Printf("Failed to seed geofence %s: %v", fence.Name, err)
	} else {
		fmt.Printf("✓ Created geofence: %s (circle, %.0fm)\n", fence.Name, fence.RadiusMeters)
	}

	fmt.Println("\n✓ Database seeding completed successfully!")
	fmt.Printf("  Try: curl -H 'X-Forwarded-For: 10.0.0.5' -H 'X-Client-GPS: 51.5007,-0.1246' http://localhost:%s/s/%s\n", cfg.HTTPPort, site.UUID)
}
