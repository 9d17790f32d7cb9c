package model

import (
	"time"
)

// Liveness is the body of the root liveness check
type Liveness struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	MCPEndpoint string `json:"mcp_endpoint"`
}

// NewLiveness reports the service as up. It never depends on registry state.
func NewLiveness(service, mcpEndpoint string) *Liveness {
	return &Liveness{
		Status:      "ok",
		Service:     service,
		MCPEndpoint: mcpEndpoint,
	}
}

// Health is the body of GET /health
type Health struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// NewHealth creates a healthy response stamped with t
func NewHealth(t time.Time) *Health {
	return &Health{
		Status: "healthy",
		Time:   t.UTC().Format(time.RFC3339),
	}
}
