package services

import (
	"context"
	"log"
	"time"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResult is the body of GET /health
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
	Time     string `json:"timestamp"`
}

// HealthService implements the health service
type HealthService struct {
	name string
	db   Pinger
}

// NewHealthService creates a new health service
func NewHealthService(name string, db Pinger) *HealthService {
	return &HealthService{name: name, db: db}
}

// Check implements the health check method. Healthy reports false when the
// database does not answer a ping.
func (s *HealthService) Check(ctx context.Context) (result *HealthResult, healthy bool) {
	result = &HealthResult{
		Status:   "healthy",
		Service:  s.name,
		Database: "connected",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		log.Printf("[HEALTH] Database ping failed: %v", err)
		result.Status = "unhealthy"
		result.Database = "unreachable"
		return result, false
	}
	return result, true
}
