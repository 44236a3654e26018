package ifttt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Telemetry meta values the bridge acts on.
const (
	// TypeOccupancy is the meta.type of room occupancy counts.
	TypeOccupancy = "occupancy"

	// TypeDoor is the meta.type of door sensors.
	TypeDoor = "door"

	// SourceGateway is the only actionable meta.source.
	SourceGateway = "gateway"

	// DoorSeparator joins the two labels of a door sensor name.
	DoorSeparator = " <-> "
)

// Telemetry is a decoded sensor message: either Occupancy or Door.
type Telemetry interface {
	telemetry()
}

// Occupancy is a room occupancy count reported by the gateway.
type Occupancy struct {
	// Name is the raw sensor label.
	Name string

	// Room identifies the room. It is decoded but does not take part in
	// event names.
	Room string

	// Count is the occupancy count exactly as it appeared in the JSON.
	Count json.Number
}

// Door is a door sensor state change reported by the gateway.
type Door struct {
	// Labels are the raw labels on either side of the door.
	Labels [2]string

	// State is the opaque door state (typically "open" or "closed").
	State string
}

func (Occupancy) telemetry() {}
func (Door) telemetry()      {}

// Empty reports whether the count is numerically zero.
func (o Occupancy) Empty() bool {
	f, err := o.Count.Float64()
	return err == nil && f == 0
}

// sensorMessage is the wire shape of a telemetry payload. Fields stay raw so
// presence can be told apart from zero values.
type sensorMessage struct {
	Meta json.RawMessage `json:"meta"`
	Val  json.RawMessage `json:"val"`
}

type sensorMeta struct {
	Type   json.RawMessage `json:"type"`
	Source json.RawMessage `json:"source"`
	Room   json.RawMessage `json:"room"`
	Name   json.RawMessage `json:"name"`
}

// DecodeTelemetry decodes a sensor payload into a Telemetry variant.
//
// Returns ErrUnrecognizedMessage for empty payloads, non-object JSON, absent
// or empty meta, a source other than the gateway, and unknown types. Returns
// ErrMalformedTelemetry (wrapped with detail) for invalid JSON and for
// occupancy or door messages missing the fields their type requires.
func DecodeTelemetry(payload []byte) (Telemetry, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, ErrUnrecognizedMessage
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedTelemetry)
	}
	if trimmed[0] != '{' {
		return nil, ErrUnrecognizedMessage
	}

	var msg sensorMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTelemetry, err)
	}

	meta, ok := decodeMeta(msg.Meta)
	if !ok {
		return nil, ErrUnrecognizedMessage
	}

	typ, _ := jsonString(meta.Type)
	source, _ := jsonString(meta.Source)
	if source != SourceGateway {
		return nil, ErrUnrecognizedMessage
	}

	switch typ {
	case TypeOccupancy:
		return decodeOccupancy(meta, msg.Val)
	case TypeDoor:
		return decodeDoor(meta, msg.Val)
	default:
		return nil, ErrUnrecognizedMessage
	}
}

// decodeMeta returns the meta object, or false if it is absent, null, empty,
// or not an object.
func decodeMeta(raw json.RawMessage) (sensorMeta, bool) {
	var meta sensorMeta
	if len(raw) == 0 || raw[0] != '{' {
		return meta, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return meta, false
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, false
	}
	return meta, true
}

func decodeOccupancy(meta sensorMeta, val json.RawMessage) (Telemetry, error) {
	name, ok := jsonString(meta.Name)
	if !ok {
		return nil, fmt.Errorf("%w: occupancy meta.name must be a string", ErrMalformedTelemetry)
	}

	count, ok := jsonNumber(val)
	if !ok {
		return nil, fmt.Errorf("%w: occupancy val must be a number", ErrMalformedTelemetry)
	}

	return Occupancy{
		Name:  name,
		Room:  jsonText(meta.Room),
		Count: count,
	}, nil
}

func decodeDoor(meta sensorMeta, val json.RawMessage) (Telemetry, error) {
	name, ok := jsonString(meta.Name)
	if !ok {
		return nil, fmt.Errorf("%w: door meta.name must be a string", ErrMalformedTelemetry)
	}

	parts := strings.Split(name, DoorSeparator)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: door name %q has %d parts, want 2", ErrMalformedTelemetry, name, len(parts))
	}

	state, ok := jsonString(val)
	if !ok {
		return nil, fmt.Errorf("%w: door val must be a string", ErrMalformedTelemetry)
	}

	return Door{
		Labels: [2]string{parts[0], parts[1]},
		State:  state,
	}, nil
}

// jsonString decodes raw as a JSON string. Absent, null and non-string
// values report false.
func jsonString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// jsonNumber returns the literal text of a JSON number.
func jsonNumber(raw json.RawMessage) (json.Number, bool) {
	if len(raw) == 0 {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// jsonText returns a string value as-is, other values as their JSON text,
// and "" for absent or null.
func jsonText(raw json.RawMessage) string {
	if s, ok := jsonString(raw); ok {
		return s
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports bridge status on the health topic.
// Topic: _hiome/integrate/ifttt/health
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	Site          string       `json:"site,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`

	// KeyProvisioned reports whether an IFTTT key is set. The key itself
	// is never published.
	KeyProvisioned bool `json:"key_provisioned"`

	Statistics Stats `json:"statistics"`

	// Reason explains the status (especially for degraded).
	Reason string `json:"reason,omitempty"`
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(site, version string, status HealthStatus, keyProvisioned bool, stats Stats, startTime time.Time) HealthMessage {
	return HealthMessage{
		Timestamp:      time.Now().UTC(),
		Status:         status,
		Version:        version,
		Site:           site,
		UptimeSeconds:  int64(time.Since(startTime).Seconds()),
		KeyProvisioned: keyProvisioned,
		Statistics:     stats,
	}
}

// Topics the bridge subscribes and publishes to.
const (
	// ControlTopic carries the IFTTT key.
	ControlTopic = "_hiome/integrate/ifttt"

	// SensorTopics matches all sensor telemetry.
	SensorTopics = "hiome/1/sensor/#"

	// HealthTopic carries retained HealthMessage payloads.
	HealthTopic = ControlTopic + "/health"
)
