// Package server is the bot's status HTTP server: Gin behind an h2c
// handler, run as a lifecycle component.
//
// # Endpoints
//
//   - GET /health: aggregated component health
//   - GET /ready: readiness check, 503 until startup completes or while any component is unhealthy
//   - GET /version: build information
//   - GET /v1/jobs: poll loop statistics and tracked jobs
//   - GET /metrics: Prometheus exposition, when a metrics handler is set
package server
