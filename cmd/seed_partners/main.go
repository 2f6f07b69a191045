package main

import (
	"fmt"
	"log"

	"harborview/internal/config"
	"harborview/internal/database"
	"harborview/internal/domain"
)

// Carrier roster shown on the public site. Re-running the script is
// safe: existing names are left untouched.
var partners = []domain.Partner{
	{Name: "Meridian Mutual", Category: "home", Website: "https://www.meridianmutual.example", DisplayOrder: 1},
	{Name: "Lakeshore Life", Category: "life", Website: "https://www.lakeshorelife.example", DisplayOrder: 2},
	{Name: "Cascade Auto Group", Category: "auto", Website: "https://www.cascadeauto.example", DisplayOrder: 3},
	{Name: "Pinnacle Health Plans", Category: "health", Website: "https://www.pinnaclehealth.example", DisplayOrder: 4},
	{Name: "Beacon Commercial", Category: "business", Website: "https://www.beaconcommercial.example", DisplayOrder: 5},
	{Name: "Northgate Umbrella", Category: "umbrella", Website: "https://www.northgateumbrella.example", DisplayOrder: 6},
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	created := 0
	for _, p := range partners {
		var existing domain.Partner
		if err := db.Where("name = ?", p.Name).First(&existing).Error; err == nil {
			continue
		}
		p.Active = true
		if err := db.Create(&p).Error; err != nil {
			log.Fatalf("Failed to seed partner %q: %v", p.Name, err)
		}
		created++
	}

	fmt.Printf("Seeded %d partners (%d already present)\n", created, len(partners)-created)
}
