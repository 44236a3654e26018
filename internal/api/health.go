package api

import (
	"net/http"
	"time"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Site           string `json:"site"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	MQTTConnected  bool   `json:"mqtt_connected"`
	KeyProvisioned bool   `json:"key_provisioned"`
}

// handleHealth reports bridge health.
//
// A disconnected MQTT client yields 503 "degraded". A missing IFTTT key is
// reported but does not degrade health: the bridge is waiting for
// provisioning, not broken.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	connected := s.mqttConnected()

	resp := HealthResponse{
		Status:         "healthy",
		Version:        s.version,
		Site:           s.site,
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		MQTTConnected:  connected,
		KeyProvisioned: s.bridge.KeyProvisioned(),
	}

	status := http.StatusOK
	if !connected {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

func (s *Server) mqttConnected() bool {
	return s.mqtt != nil && s.mqtt.IsConnected()
}
