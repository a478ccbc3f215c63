package services

import "context"

// HealthResult is the health check payload
type HealthResult struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthService implements the health service
type HealthService struct {
	name string
}

// NewHealthService creates a new health service
func NewHealthService(name string) *HealthService {
	return &HealthService{name: name}
}

// Check implements the health check method
func (s *HealthService) Check(ctx context.Context) (*HealthResult, error) {
	return &HealthResult{
		Status:  "healthy",
		Service: s.name,
	}, nil
}
