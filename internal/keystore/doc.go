// Package keystore holds the IFTTT Maker key provisioned over MQTT.
//
// The key arrives as the payload of a message on the integration control
// topic and lives only in memory. Each message replaces the previous value;
// an empty payload clears it. There is no history and no persistence, so a
// restarted bridge forwards nothing until the hub provisions the key again
// (the hub publishes it retained, so this normally happens on subscribe).
//
// The key is a secret. Callers must never log it; Provisioned exists so that
// health and log output can report presence without the value.
package keystore
