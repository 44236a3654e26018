// Package api implements the optional status HTTP surface of the hiome-ifttt bridge.
//
// Endpoints:
//   - GET /api/v1/health: bridge status, MQTT connectivity, key provisioning
//   - GET /api/v1/metrics: Go runtime statistics and bridge counters
//
// The server never exposes the IFTTT key, only whether one is provisioned.
// It is disabled by default and binds to loopback unless configured otherwise.
package api
