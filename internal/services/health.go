package services

import (
	"context"
	"log"
)

// HealthResult is the liveness report.
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	name    string
	version string
	ping    func() error
}

// NewHealthService creates a new health service. ping checks the database.
func NewHealthService(name, version string, ping func() error) *HealthService {
	return &HealthService{name: name, version: version, ping: ping}
}

// Check implements the health check method
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{
		Status:   "healthy",
		Service:  s.name,
		Version:  s.version,
		Database: "ok",
	}
	if s.ping != nil {
		if err := s.ping(); err != nil {
			log.Printf("[HEALTH] Database check failed: %v", err)
			result.Status = "degraded"
			result.Database = "unavailable"
		}
	}
	return result
}
