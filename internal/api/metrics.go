package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Hiome/core-ifttt/internal/bridges/ifttt"
)

// SystemMetrics represents the complete metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	Site          string         `json:"site"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	MQTT          MQTTMetrics    `json:"mqtt"`
	Bridge        BridgeMetrics  `json:"bridge"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// BridgeMetrics contains translator statistics.
type BridgeMetrics struct {
	KeyProvisioned bool        `json:"key_provisioned"`
	Statistics     ifttt.Stats `json:"statistics"`
}

// handleMetrics returns runtime and bridge metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		Site:          s.site,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		MQTT: MQTTMetrics{
			Connected: s.mqttConnected(),
		},
		Bridge: BridgeMetrics{
			KeyProvisioned: s.bridge.KeyProvisioned(),
			Statistics:     s.bridge.Stats(),
		},
	}

	writeJSON(w, http.StatusOK, metrics)
}
