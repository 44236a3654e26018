// Package deadletter publishes malformed sensor telemetry to a Kafka topic.
//
// Malformed messages are dropped by the bridge; this package keeps a copy
// for later inspection. Each record is a JSON envelope:
//
//	{
//	  "id":          "4c1c...",              // uuid
//	  "error":       "ifttt: malformed telemetry: ...",
//	  "topic":       "hiome/1/sensor/0x01",
//	  "original":    "{\"meta\": ...}",      // payload as text
//	  "received_at": "2026-01-02T03:04:05.123Z",
//	  "site":        "aa:bb:cc:dd:ee:ff"
//	}
//
// The Kafka writer runs in async mode, so Send never waits on the broker.
// Delivery failures are logged and not retried beyond kafka-go's own retries.
// The sink is disabled by default.
package deadletter
