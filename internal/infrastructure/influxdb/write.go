package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the bridge.
const (
	// MeasurementTriggers counts IFTTT events handed to the webhook client.
	MeasurementTriggers = "ifttt_triggers"

	// MeasurementDrops counts telemetry dropped before forwarding.
	MeasurementDrops = "ifttt_drops"
)

// RecordTrigger records one IFTTT event.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
//	client.RecordTrigger("hiome_Living_Room_occupied")
func (c *Client) RecordTrigger(event string) {
	c.writeCount(MeasurementTriggers, map[string]string{"event": event})
}

// RecordDrop records one dropped message with its reason
// ("no_key", "unrecognized" or "malformed").
func (c *Client) RecordDrop(reason string) {
	c.writeCount(MeasurementDrops, map[string]string{"reason": reason})
}

// writeCount writes a count=1 point tagged with the site.
func (c *Client) writeCount(measurement string, tags map[string]string) {
	if !c.IsConnected() {
		return
	}

	if c.site != "" {
		tags["site"] = c.site
	}

	point := write.NewPoint(
		measurement,
		tags,
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
