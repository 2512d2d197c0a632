package services

import (
	"context"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResult is the liveness payload.
type HealthResult struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthService implements the health service
type HealthService struct {
	store   Pinger
	timeout time.Duration
	now     func() time.Time
}

// NewHealthService creates a new health service
func NewHealthService(store Pinger, timeout time.Duration) *HealthService {
	if timeout <= 0 {
		timeout = defaultOutboundTimeout
	}
	return &HealthService{store: store, timeout: timeout, now: time.Now}
}

// Check reports liveness. It never touches the store.
func (s *HealthService) Check() HealthResult {
	return HealthResult{Status: "ok", Timestamp: s.now().UTC().Format(time.RFC3339)}
}

// Ready pings the store.
func (s *HealthService) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Ping(ctx)
}
