// Package api implements the HTTP REST API and WebSocket server for doorcore.
//
// This package provides:
//   - REST endpoints for door status, commands, and the event audit trail
//   - WebSocket hub for real-time door status broadcasts
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between user interfaces (mobile apps, dashboards)
// and the door controller. Commands flow from the API into the controller,
// and status changes flow back through the event drain, which broadcasts
// them to WebSocket clients via the hub.
//
// # Security
//
// Authentication uses JWT tokens minted against the configured credential
// pair. WebSocket connections use single-use tickets to prevent token
// leakage in URLs. Door commands require the admin role.
//
// # Graceful Degradation
//
// The server operates without MQTT or InfluxDB configured. Only the door
// controller and the audit repository are hard dependencies.
package api
