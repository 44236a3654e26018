package ifttt

import "errors"

// Classification errors returned by HandleMessage.
// None of them are fatal; each maps to a drop policy.
var (
	// ErrNoKeyProvisioned is returned for telemetry that arrives before a key is set.
	ErrNoKeyProvisioned = errors.New("ifttt: no key provisioned")

	// ErrUnrecognizedMessage is returned when meta is missing, the source is
	// not the gateway, or the type is not one the bridge maps.
	ErrUnrecognizedMessage = errors.New("ifttt: unrecognized message")

	// ErrMalformedTelemetry is returned when a gateway occupancy or door
	// message does not have the fields its type requires.
	ErrMalformedTelemetry = errors.New("ifttt: malformed telemetry")
)
