// Package influxdb records hiome-ifttt bridge metrics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched non-blocking writes and health checks.
//
// # Measurements
//
//	ifttt_triggers  tags: site, event   fields: count=1
//	ifttt_drops     tags: site, reason  fields: count=1
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, machineID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics are optional
//	}
//	defer client.Close()
//
//	client.RecordTrigger("hiome_Kitchen_occupied")
//
// # Error Handling
//
// Writes are non-blocking and batch errors are delivered to the SetOnError
// callback. Connection and health check errors are returned directly.
package influxdb
