package mqtt

import "fmt"

// Topic prefixes on the Hiome hub broker.
const (
	// TopicPrefixIntegration is the base for integration control topics.
	// The leading underscore keeps them out of user-facing "hiome/#" wildcards.
	TopicPrefixIntegration = "_hiome/integrate"

	// TopicPrefixSensor is the base for sensor telemetry (protocol version 1).
	TopicPrefixSensor = "hiome/1/sensor"

	// Integration is the name this bridge registers under.
	Integration = "ifttt"
)

// Topics provides builders for Hiome MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	control := topics.IntegrationControl(mqtt.Integration)
//	// Returns: "_hiome/integrate/ifttt"
type Topics struct{}

// IntegrationControl returns the topic an integration's secret is provisioned on.
//
// Example: _hiome/integrate/ifttt
func (Topics) IntegrationControl(integration string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixIntegration, integration)
}

// IntegrationStatus returns the retained online/offline status topic.
//
// Example: _hiome/integrate/ifttt/status
func (Topics) IntegrationStatus(integration string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixIntegration, integration)
}

// IntegrationHealth returns the retained periodic health topic.
//
// Example: _hiome/integrate/ifttt/health
func (Topics) IntegrationHealth(integration string) string {
	return fmt.Sprintf("%s/%s/health", TopicPrefixIntegration, integration)
}

// Sensor returns the telemetry topic for a single sensor.
//
// Example: hiome/1/sensor/0x00158d0001a2b3c4
func (Topics) Sensor(sensorID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixSensor, sensorID)
}

// AllSensors returns a pattern matching all sensor telemetry.
//
// Pattern: hiome/1/sensor/#
func (Topics) AllSensors() string {
	return fmt.Sprintf("%s/#", TopicPrefixSensor)
}
