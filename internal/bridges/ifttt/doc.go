// Package ifttt translates Hiome sensor telemetry into IFTTT Maker events.
//
// The bridge subscribes to two topics on the hub broker:
//
//	_hiome/integrate/ifttt   control: payload is the IFTTT key (empty clears it)
//	hiome/1/sensor/#         telemetry: JSON {"meta": {...}, "val": ...}
//
// Telemetry is forwarded only while a key is provisioned. Each message is
// decoded once into a Telemetry variant and mapped to event names:
//
//	occupancy  hiome_<name>_empty | hiome_<name>_occupied, then hiome_<name>_count<val>
//	door       hiome_<label1>_<label2>_door_<val>
//
// Labels are sanitised to [A-Za-z0-9_] (see Sanitize). Door sensor names
// carry two labels joined by " <-> ". Only messages whose meta.source is
// "gateway" are actionable.
//
// # Error Handling
//
// Nothing in the translation path is fatal:
//   - No key provisioned, unknown type, foreign source: dropped silently
//     (ErrNoKeyProvisioned, ErrUnrecognizedMessage)
//   - Wrong shape for a known type: dropped with a warning, a metric and an
//     optional dead-letter record (ErrMalformedTelemetry)
//
// Webhook calls are fire-and-forget. The bridge hands each event to a
// Trigger and never waits for, retries, or inspects the result.
//
// # Thread Safety
//
// The paho client may deliver messages concurrently. The key store is
// locked, counters are atomic, and the rest of the translation is pure.
package ifttt
