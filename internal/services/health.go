package services

import (
	"context"

	"gorm.io/gorm"

	"harborview/internal/database"
	"harborview/internal/metrics"
)

// HealthService implements the health check
type HealthService struct {
	db      *gorm.DB
	name    string
	version string
}

// NewHealthService creates a new health service
func NewHealthService(db *gorm.DB, name, version string) *HealthService {
	return &HealthService{db: db, name: name, version: version}
}

// HealthResult reports liveness and datastore connectivity
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database bool   `json:"database"`
}

// Check reports service health. The service is degraded, not down, when
// the datastore is unreachable.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{
		Status:   "healthy",
		Service:  s.name,
		Version:  s.version,
		Database: true,
	}
	if err := database.Ping(s.db); err != nil {
		result.Status = "degraded"
		result.Database = false
		return result
	}

	if stats, err := database.Stats(s.db); err == nil {
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}
	return result
}
